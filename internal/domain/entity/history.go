package entity

import "time"

// TaskHistory is the persisted audit trail of a task: one row per
// successfully completed transition, recorded in the same transaction as
// the status write.
type TaskHistory struct {
	ID             int64     `json:"id"`
	TaskID         int64     `json:"task_id"`
	ActorID        string    `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Event          string    `json:"event"`
	Timestamp      time.Time `json:"timestamp"`
}
