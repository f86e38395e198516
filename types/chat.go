package types

import "time"

// MessageKindMessage is the only message kind the relay carries.
const MessageKindMessage = "message"

// ChatMessage is a single entry in the shared chat room.
type ChatMessage struct {
	ID         int64     `json:"id" db:"id"`
	Sender     string    `json:"sender" db:"sender"`
	Identifier string    `json:"identifier" db:"identifier"`
	Message    string    `json:"message" db:"message"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
	Kind       string    `json:"type" db:"kind"`
}

// ChatIdentity is the name a session uses in the chat room.
type ChatIdentity struct {
	// Identifier is a 10-digit phone number or an email address.
	Identifier string `json:"identifier"`

	// DisplayName is derived from Identifier and shown next to messages.
	DisplayName string `json:"displayName"`
}
