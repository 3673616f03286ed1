package domain

import "time"

// SettlementStatus tracks whether the platform has paid the repairer out
// for a completed request. Reconciliation against an actual payment
// provider is out of scope; this models the oversight workflow only.
type SettlementStatus string

const (
	SettlementPending SettlementStatus = "pending"
	SettlementSettled SettlementStatus = "settled"
)

// Settlement is created once per completed service request and moved to
// settled by an admin.
type Settlement struct {
	ID         int64            `json:"id"`
	RequestID  int64            `json:"request_id"`
	CustomerID int64            `json:"customer_id"`
	RepairerID int64            `json:"repairer_id"`
	Amount     float64          `json:"amount"`
	Status     SettlementStatus `json:"status"`
	SettledAt  *time.Time       `json:"settled_at,omitempty"`
	SettledBy  *int64           `json:"settled_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`

	// Display enrichment.
	RequestTitle string `json:"request_title,omitempty"`
	RepairerName string `json:"repairer_name,omitempty"`
}
