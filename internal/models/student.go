package models

import "time"

// Student is a shared reference entity keyed by its NIM (student number).
// It may be referenced by many enrollments; repeated enrollment submissions
// overwrite its mutable attributes with the latest supplied values.
type Student struct {
	ID        int64     `db:"id" json:"id"`
	NIM       string    `db:"nim" json:"nim"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
