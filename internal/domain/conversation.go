package domain

import "time"

// Conversation is the message channel between the customer and the repairer
// of one service request. At most one conversation exists per request.
type Conversation struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	CustomerID int64     `json:"customer_id"`
	RepairerID int64     `json:"repairer_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Display enrichment for list views.
	RequestTitle string `json:"request_title,omitempty"`
	PeerName     string `json:"peer_name,omitempty"`
	LastMessage  string `json:"last_message,omitempty"`
	UnreadCount  int64  `json:"unread_count,omitempty"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.CustomerID == userID || c.RepairerID == userID
}

// PeerOf returns the other participant of the conversation.
func (c *Conversation) PeerOf(userID int64) int64 {
	if c.CustomerID == userID {
		return c.RepairerID
	}
	return c.CustomerID
}

type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	Body           string     `json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
