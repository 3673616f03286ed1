package notification

import (
	"context"
	"fmt"

	"fixhub/internal/domain"
)

// Repository is what the service needs from persistence.
type Repository interface {
	Create(ctx context.Context, n *domain.Notification, data map[string]any) error
	GetByUserID(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, notificationID, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, userID int64, t domain.NotificationType, title, message string, data map[string]any) error {
	n := &domain.Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
		IsRead:  false,
	}
	return s.repo.Create(ctx, n, data)
}

func (s *Service) GetUserNotifications(ctx context.Context, userID int64, limit int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	list, err := s.repo.GetByUserID(ctx, userID, limit)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}

	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	return s.repo.MarkAsRead(ctx, notificationID, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func requestData(req *domain.ServiceRequest) map[string]any {
	return map[string]any{
		"request_id":   req.ID,
		"service_type": string(req.ServiceType),
	}
}

func (s *Service) NotifyDirectBooking(ctx context.Context, repairerID int64, req *domain.ServiceRequest) error {
	return s.Create(
		ctx,
		repairerID,
		domain.NotifRequestCreated,
		"New direct booking",
		fmt.Sprintf("A customer booked you directly for %q", req.Title),
		requestData(req),
	)
}

func (s *Service) NotifyRequestAccepted(ctx context.Context, customerID int64, req *domain.ServiceRequest) error {
	msg := "A repairer accepted your request"
	if req.RepairerName != "" {
		msg = fmt.Sprintf("%s accepted your request %q", req.RepairerName, req.Title)
	}
	return s.Create(
		ctx,
		customerID,
		domain.NotifRequestAccepted,
		"Request accepted",
		msg,
		requestData(req),
	)
}

func (s *Service) NotifyRequestCompleted(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error {
	return s.Create(
		ctx,
		recipientID,
		domain.NotifRequestCompleted,
		"Request completed",
		fmt.Sprintf("Request %q was marked completed", req.Title),
		requestData(req),
	)
}

func (s *Service) NotifyRequestCancelled(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error {
	return s.Create(
		ctx,
		recipientID,
		domain.NotifRequestCancelled,
		"Request cancelled",
		fmt.Sprintf("Request %q was cancelled", req.Title),
		requestData(req),
	)
}

func (s *Service) NotifyNewMessage(ctx context.Context, recipientID int64, senderName string, conversationID int64) error {
	msg := "You have a new message"
	if senderName != "" {
		msg = "New message from " + senderName
	}
	return s.Create(
		ctx,
		recipientID,
		domain.NotifNewMessage,
		"New message",
		msg,
		map[string]any{"conversation_id": conversationID},
	)
}

func (s *Service) NotifySettlementPaid(ctx context.Context, repairerID int64, settlementID int64, amount float64) error {
	return s.Create(
		ctx,
		repairerID,
		domain.NotifSettlementPaid,
		"Payout settled",
		fmt.Sprintf("Your payout of %.2f has been settled", amount),
		map[string]any{"settlement_id": settlementID},
	)
}
