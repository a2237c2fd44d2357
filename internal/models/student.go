package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID          string    `db:"id" json:"id"`
	SchoolID    string    `db:"school_id" json:"school_id"`
	AdmissionNo string    `db:"admission_no" json:"admission_no"`
	FullName    string    `db:"full_name" json:"full_name"`
	BatchLabel  string    `db:"batch_label" json:"batch_label"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
