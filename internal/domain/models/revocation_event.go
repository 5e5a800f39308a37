package models

import (
	"time"

	"github.com/google/uuid"
)

// RevocationEvent announces that a token was added to a revocation ledger. Instances that do
// not share a store consume these events to converge on the same ledger contents.
// RevocationEvent 通告某个令牌已加入吊销账本；不共享存储的实例通过消费该事件保持账本一致。
type RevocationEvent struct {
	EventID   string    `json:"event_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRevocationEvent creates an event for token, stamped with the current time.
func NewRevocationEvent(token, source string, expiresAt time.Time) RevocationEvent {
	return RevocationEvent{
		EventID:   uuid.NewString(),
		Token:     token,
		ExpiresAt: expiresAt,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}
