package db

import "time"

const (
	StatusActive  int16 = 1
	StatusDeleted int16 = 0
)

// Record carries the columns shared by every table: numeric id, creation
// timestamp and soft-delete status flag. Entity types embed it.
type Record struct {
	ID        int64
	CreatedAt time.Time
	Status    int16
}

// Active reports whether the record has not been soft-deleted.
func (r Record) Active() bool {
	return r.Status == StatusActive
}
