package domain

import (
	"encoding/json"
	"time"
)

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotifRequestCreated   NotificationType = "request_created"   // repairer: direct booking landed on you
	NotifRequestAccepted  NotificationType = "request_accepted"  // customer: a repairer took your job
	NotifRequestCompleted NotificationType = "request_completed" // counterparty: job marked done
	NotifRequestCancelled NotificationType = "request_cancelled" // counterparty: job cancelled
	NotifNewMessage       NotificationType = "new_message"       // peer: new chat message
	NotifSettlementPaid   NotificationType = "settlement_paid"   // repairer: payout settled
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
