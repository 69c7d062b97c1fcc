package entity

import "time"

// Task represents one unit of work moving through the task lifecycle
// workflow. Status and Version are persisted together: Version is the
// optimistic-concurrency token the store compares on every write, so two
// actors racing on the same task produce a detectable conflict instead of
// a lost update.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatorID   string    `json:"creator_id"`
	ExecutorID  string    `json:"executor_id,omitempty"`
	Status      string    `json:"status"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
