package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NotAssigned is rendered when a subject has no teacher.
const NotAssigned = "Not Assigned"

// SubjectRank is a dense within-subject position, rendered as "position/total".
type SubjectRank struct {
	Position int
	Total    int
}

// String renders the rank for report cards.
func (r SubjectRank) String() string {
	return fmt.Sprintf("%d/%d", r.Position, r.Total)
}

// SubjectResultRecord is one subject line of a student's result set.
// Marks, Deviation and Rank are nil when absent; the "-" placeholder only
// appears in the JSON encoding.
type SubjectResultRecord struct {
	SubjectID  string
	Subject    string
	Marks      *float64
	Grade      string
	GradePoint int
	Remark     string
	Deviation  *float64
	Rank       *SubjectRank
	Teacher    string
	FullMarks  string
}

type subjectResultWire struct {
	SubjectID  string          `json:"subject_id"`
	Subject    string          `json:"subject"`
	Marks      json.RawMessage `json:"marks"`
	Grade      string          `json:"grade"`
	GradePoint int             `json:"grade_point"`
	Remark     string          `json:"remark"`
	Deviation  json.RawMessage `json:"deviation"`
	Rank       string          `json:"rank"`
	Teacher    string          `json:"teacher"`
	FullMarks  string          `json:"full_marks"`
}

var placeholderJSON = json.RawMessage(`"` + Ungraded + `"`)

// MarshalJSON renders optional values with the "-" placeholder.
func (r SubjectResultRecord) MarshalJSON() ([]byte, error) {
	wire := subjectResultWire{
		SubjectID:  r.SubjectID,
		Subject:    r.Subject,
		Marks:      optionalNumber(r.Marks),
		Grade:      r.Grade,
		GradePoint: r.GradePoint,
		Remark:     r.Remark,
		Deviation:  optionalNumber(r.Deviation),
		Rank:       Ungraded,
		Teacher:    r.Teacher,
		FullMarks:  r.FullMarks,
	}
	if r.Rank != nil {
		wire.Rank = r.Rank.String()
	}
	return json.Marshal(wire)
}

// UnmarshalJSON restores a record previously encoded by MarshalJSON.
func (r *SubjectResultRecord) UnmarshalJSON(data []byte) error {
	var wire subjectResultWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	marks, err := parseOptionalNumber(wire.Marks)
	if err != nil {
		return fmt.Errorf("decode marks: %w", err)
	}
	deviation, err := parseOptionalNumber(wire.Deviation)
	if err != nil {
		return fmt.Errorf("decode deviation: %w", err)
	}
	rank, err := parseSubjectRank(wire.Rank)
	if err != nil {
		return err
	}
	*r = SubjectResultRecord{
		SubjectID:  wire.SubjectID,
		Subject:    wire.Subject,
		Marks:      marks,
		Grade:      wire.Grade,
		GradePoint: wire.GradePoint,
		Remark:     wire.Remark,
		Deviation:  deviation,
		Rank:       rank,
		Teacher:    wire.Teacher,
		FullMarks:  wire.FullMarks,
	}
	return nil
}

func optionalNumber(v *float64) json.RawMessage {
	if v == nil {
		return placeholderJSON
	}
	return json.RawMessage(strconv.FormatFloat(*v, 'f', -1, 64))
}

func parseOptionalNumber(raw json.RawMessage) (*float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, placeholderJSON) {
		return nil, nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func parseSubjectRank(raw string) (*SubjectRank, error) {
	if raw == "" || raw == Ungraded {
		return nil, nil
	}
	var rank SubjectRank
	if _, err := fmt.Sscanf(raw, "%d/%d", &rank.Position, &rank.Total); err != nil {
		return nil, fmt.Errorf("decode rank %q: %w", raw, err)
	}
	return &rank, nil
}

// AggregatedStudent is one student's result set for an exam.
type AggregatedStudent struct {
	StudentID       string                `json:"student_id"`
	Name            string                `json:"name"`
	ProfileImage    *string               `json:"profile_image"`
	Signature       *string               `json:"signature"`
	ClassStreamID   *string               `json:"class_stream_id"`
	AdmissionNumber string                `json:"admission_number"`
	Subjects        []SubjectResultRecord `json:"subjects"`
	TotalMarks      float64               `json:"total_marks"`
	AvgMarks        float64               `json:"avg_marks"`
	TotalPoints     int                   `json:"total_points"`
	AvgPoints       float64               `json:"avg_points"`
	AvgGrade        string                `json:"avg_grade"`
	ClassRank       *int                  `json:"class_rank"`
	StreamRank      *int                  `json:"stream_rank"`
}

// OverviewStats summarises a class for one exam.
type OverviewStats struct {
	Students   int     `json:"students"`
	TotalMarks float64 `json:"totalMarks"`
	AvgMarks   float64 `json:"avgMarks"`
	AvgPoints  float64 `json:"avgPoints"`
	AvgGrade   string  `json:"avgGrade"`
	Color      string  `json:"color"`
}

// GradeCount is the number of entries holding one grade label.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// DistributionSummary is a grade histogram with its overall mean.
type DistributionSummary struct {
	StreamID string       `json:"stream_id,omitempty"`
	Stream   string       `json:"stream,omitempty"`
	Grades   []GradeCount `json:"grades"`
	Count    int          `json:"count"`
	Mean     float64      `json:"mean"`
	Grade    string       `json:"grade"`
	Color    string       `json:"color"`
}

// GradeDistribution groups the class-wide and per-stream histograms.
// Streams are keyed by stream id.
type GradeDistribution struct {
	General DistributionSummary            `json:"general"`
	Streams map[string]DistributionSummary `json:"streams"`
}

// SubjectPerformance summarises one catalog subject.
type SubjectPerformance struct {
	SubjectID string                         `json:"subject_id"`
	Subject   string                         `json:"subject"`
	General   DistributionSummary            `json:"general"`
	Streams   map[string]DistributionSummary `json:"streams"`
}

// AnalysisResult is the computed analysis of one exam for one class.
type AnalysisResult struct {
	OverviewStats      OverviewStats        `json:"overviewStats"`
	GradeDistribution  GradeDistribution    `json:"gradeDistribution"`
	SubjectPerformance []SubjectPerformance `json:"subjectPerformance"`
	MeritList          []AggregatedStudent  `json:"meritList"`
}

// StudentTrend is a student's mean score across recent exams next to the class mean.
type StudentTrend struct {
	StudentID    string      `json:"student_id"`
	Name         string      `json:"name"`
	Labels       []string    `json:"labels"`
	Scores       []*float64  `json:"scores"`
	ClassAverage []*float64  `json:"class_average"`
	Chart        ChartConfig `json:"chart"`
}
