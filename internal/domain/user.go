package domain

import (
	"time"

	"github.com/google/uuid"
)

// User holds the slice of the account record this service needs: identity
// plus the registered push destination (FCM token or chat id). Nil
// destination means no device has registered yet.
type User struct {
	ID          int64
	UUID        string
	RealName    string
	PhoneNumber string
	Destination *string
	CreatedAt   time.Time
}

// NewUser creates a user with a fresh UUID and no registered device.
func NewUser(realName, phoneNumber string) *User {
	return &User{
		UUID:        uuid.NewString(),
		RealName:    realName,
		PhoneNumber: phoneNumber,
		CreatedAt:   time.Now().UTC(),
	}
}
