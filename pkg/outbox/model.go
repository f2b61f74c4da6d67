package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is a message committed in the same transaction as the change it
// describes and relayed to the broker afterwards.
type Event struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	AggregateID string `gorm:"index;not null"`
	Type        string `gorm:"not null"`
	Payload     []byte `gorm:"not null"`
	Status      Status `gorm:"index;not null;default:pending"`
	RetryCount  int    `gorm:"not null;default:0"`
	LastError   *string
	LockedBy    string
	LockedUntil *time.Time
	CreatedAt   time.Time
}

func (Event) TableName() string {
	return "outbox_events"
}
