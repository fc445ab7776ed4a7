package model

import "time"

// Metadata carries the actor audit columns shared by every mutable table.
// The timestamp fields deliberately have no db tags: created_at and
// modified_at are owned by the database defaults and by the explicit
// modified_at writes in the repositories, and never travel through the
// generic column mapper.
type Metadata struct {
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	CreatedBy  string    `db:"created_by"`
	ModifiedBy string    `db:"modified_by"`
}
