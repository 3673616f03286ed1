package request

import (
	"context"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/repository"
)

// RequestRepository is the persistence contract for service requests.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error)
	Assign(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error)
	UpdateStatusByCustomer(ctx context.Context, requestID, customerID int64, from, to domain.RequestStatus, now time.Time) (bool, error)
	CompleteByRepairer(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error)
	SetRating(ctx context.Context, requestID, customerID int64, stars int, comment string) (bool, error)
	ListMatching(ctx context.Context, f repository.MatchFilter) ([]domain.ServiceRequest, error)
	ListOpenByPincode(ctx context.Context, prefix, serviceType string) ([]domain.ServiceRequest, error)
	ListOpenWithCoordinates(ctx context.Context, serviceType string) ([]domain.ServiceRequest, error)
	ListByCustomer(ctx context.Context, customerID int64, status *domain.RequestStatus) ([]domain.ServiceRequest, error)
}

// ProfileReader loads the repairer's registered trades and pincode.
type ProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.RepairerProfile, error)
}

// UserReader validates direct-booking targets.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// NotificationSender fans out lifecycle notifications. Failures are not the
// caller's problem; implementations log and move on.
type NotificationSender interface {
	NotifyDirectBooking(ctx context.Context, repairerID int64, req *domain.ServiceRequest) error
	NotifyRequestAccepted(ctx context.Context, customerID int64, req *domain.ServiceRequest) error
	NotifyRequestCompleted(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error
	NotifyRequestCancelled(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error
}

// ConversationEnsurer idempotently creates the per-request chat channel.
type ConversationEnsurer interface {
	EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error)
}

// SettlementRecorder opens a pending payout for a completed request.
type SettlementRecorder interface {
	CreateForRequest(ctx context.Context, req *domain.ServiceRequest) error
}
