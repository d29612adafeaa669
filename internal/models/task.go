package models

import "time"

// Task is owned by exactly one user and is only ever visible to its owner.
type Task struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Completed   bool      `db:"completed" json:"completed"`
	OwnerID     string    `db:"owner_id" json:"owner"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
