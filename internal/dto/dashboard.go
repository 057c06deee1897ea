package dto

import "github.com/noah-isme/sma-result-analysis/internal/models"

// Dashboard is the role specific landing payload. Exactly one section is set.
type Dashboard struct {
	Role    models.UserRole   `json:"role"`
	Admin   *AdminDashboard   `json:"admin,omitempty"`
	Teacher *TeacherDashboard `json:"teacher,omitempty"`
	Student *StudentDashboard `json:"student,omitempty"`
}

// AdminDashboard lists the overview of recent exams across classes.
type AdminDashboard struct {
	RecentExams []ExamOverview       `json:"recentExams"`
	System      models.SystemMetrics `json:"system"`
}

// ExamOverview is the overview block of one exam/class analysis.
type ExamOverview struct {
	ExamID    string               `json:"examId"`
	ExamName  string               `json:"examName"`
	ClassID   string               `json:"classId"`
	ClassName string               `json:"className"`
	Overview  models.OverviewStats `json:"overview"`
}

// TeacherDashboard shows subject performance for each assigned class/subject.
type TeacherDashboard struct {
	Subjects []TeacherSubjectPerformance `json:"subjects"`
}

// TeacherSubjectPerformance is the latest exam performance for one assignment.
type TeacherSubjectPerformance struct {
	ClassID     string                     `json:"classId"`
	ClassName   string                     `json:"className"`
	ExamID      string                     `json:"examId"`
	ExamName    string                     `json:"examName"`
	Performance *models.SubjectPerformance `json:"performance,omitempty"`
}

// StudentDashboard shows the student's own latest result and trend.
type StudentDashboard struct {
	ExamID   string                    `json:"examId,omitempty"`
	ExamName string                    `json:"examName,omitempty"`
	Result   *models.AggregatedStudent `json:"result,omitempty"`
	Trend    *models.StudentTrend      `json:"trend,omitempty"`
}
