package models

import "time"

// Student represents a learner registered in a class.
type Student struct {
	ID              string    `db:"id" json:"id"`
	FullName        string    `db:"full_name" json:"full_name"`
	AdmissionNumber string    `db:"admission_number" json:"admission_number"`
	ProfileImage    *string   `db:"profile_image" json:"profile_image,omitempty"`
	Signature       *string   `db:"signature" json:"signature,omitempty"`
	ClassID         string    `db:"class_id" json:"class_id"`
	ClassStreamID   *string   `db:"class_stream_id" json:"class_stream_id,omitempty"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
