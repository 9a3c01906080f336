package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/startline/auth-server/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp         EventType = "user_signed_up"
	EventTokensIssued         EventType = "tokens_issued"
	EventAccountStatusChanged EventType = "account_status_changed"
	EventAuthorityGranted     EventType = "authority_granted"
)

// Issuance branches reported in TokensIssuedPayload.
const (
	BranchPair       = "pair"
	BranchAccessOnly = "access_only"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Username  string      `json:"username"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New stamps an event with an ID and the current time.
func New(eventType EventType, username string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Username:  username,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserSignedUpPayload payload.
type UserSignedUpPayload struct {
	Authority domain.AuthorityName `json:"authority"`
	Enabled   bool                 `json:"enabled"`
}

// TokensIssuedPayload payload.
type TokensIssuedPayload struct {
	Branch                string    `json:"branch"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

// AccountStatusChangedPayload payload.
type AccountStatusChangedPayload struct {
	Enabled bool `json:"enabled"`
}

// AuthorityGrantedPayload payload.
type AuthorityGrantedPayload struct {
	Authority domain.AuthorityName `json:"authority"`
}
