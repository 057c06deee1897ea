package models

// Ungraded is the display placeholder for missing grades, marks, ranks and deviations.
const Ungraded = "-"

// GradeScale is one inclusive [MinScore, MaxScore] band of a grading system.
type GradeScale struct {
	ID              string  `db:"id" json:"id" yaml:"id"`
	GradingSystemID string  `db:"grading_system_id" json:"grading_system_id" yaml:"-"`
	Name            string  `db:"name" json:"name" yaml:"name" validate:"required"`
	Code            string  `db:"code" json:"code" yaml:"code"`
	MinScore        float64 `db:"min_score" json:"min_score" yaml:"min_score" validate:"gte=0,lte=100"`
	MaxScore        float64 `db:"max_score" json:"max_score" yaml:"max_score" validate:"gte=0,lte=100"`
	GradePoint      float64 `db:"grade_point" json:"grade_point" yaml:"grade_point"`
	Remark          string  `db:"remark" json:"remark" yaml:"remark"`
	SortOrder       int     `db:"sort_order" json:"-" yaml:"-"`
}

// GradingSystem is a named, ordered collection of grade bands.
type GradingSystem struct {
	ID        string       `db:"id" json:"id" yaml:"id"`
	Name      string       `db:"name" json:"name" yaml:"name" validate:"required"`
	IsDefault bool         `db:"is_default" json:"is_default" yaml:"is_default"`
	Scales    []GradeScale `db:"-" json:"scales" yaml:"scales" validate:"required,min=1,dive"`
}
