package models

// TeacherAssignment links a teacher user to a class/subject pair.
type TeacherAssignment struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	UserID      string `db:"user_id" json:"user_id"`
	ClassID     string `db:"class_id" json:"class_id"`
	ClassName   string `db:"class_name" json:"class_name"`
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SubjectName string `db:"subject_name" json:"subject_name"`
}
