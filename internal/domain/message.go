package domain

import "time"

// MessageStatus is the delivery state of a scheduled message. A row moves
// pending → sent or pending → failed exactly once and never backward.
type MessageStatus string

const (
	StatusPending MessageStatus = "pending"
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
)

// ScheduledMessage is one concrete notification awaiting delivery. Per user
// there is never more than one row for the same instant; the expansion
// engine merges colliding candidates before writing.
type ScheduledMessage struct {
	ID            int64
	UserID        int64
	Title         string
	Content       string
	ScheduledTime time.Time
	Status        MessageStatus
	CreatedAt     time.Time
}
