package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixhub/internal/domain"
)

var (
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrEmptyBody            = errors.New("message body cannot be empty")
)

// ConversationRepository is the persistence contract for channels/messages.
type ConversationRepository interface {
	EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error)
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error)
	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error)
	MarkRead(ctx context.Context, conversationID, readerID int64, at time.Time) error
}

// UserReader resolves sender names for message notifications.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// MessageNotifier lets the chat fan a new-message notification out.
type MessageNotifier interface {
	NotifyNewMessage(ctx context.Context, recipientID int64, senderName string, conversationID int64) error
}

type Service struct {
	convos ConversationRepository
	users  UserReader
	notifs MessageNotifier
	hub    *Hub
}

func NewService(convos ConversationRepository, users UserReader, notifs MessageNotifier, hub *Hub) *Service {
	return &Service{
		convos: convos,
		users:  users,
		notifs: notifs,
		hub:    hub,
	}
}

// EnsureForRequest is the idempotent channel upsert invoked when a repairer
// is bound to a request.
func (s *Service) EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error) {
	return s.convos.EnsureForRequest(ctx, requestID, customerID, repairerID)
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	return s.convos.ListForUser(ctx, userID)
}

func (s *Service) participantConversation(ctx context.Context, conversationID, userID int64) (*domain.Conversation, error) {
	conv, err := s.convos.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *Service) SendMessage(ctx context.Context, senderID, conversationID int64, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}

	conv, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
	}
	if err := s.convos.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	recipientID := conv.PeerOf(senderID)

	delivered := false
	if s.hub != nil {
		delivered = s.hub.SendToUser(recipientID, wsEvent{
			Type:    "message",
			Payload: msg,
		})
	}

	// Offline peers get a persisted notification instead.
	if !delivered && s.notifs != nil {
		senderName := ""
		if sender, err := s.users.GetByID(ctx, senderID); err == nil && sender != nil {
			senderName = sender.Name
		}
		_ = s.notifs.NotifyNewMessage(ctx, recipientID, senderName, conversationID)
	}

	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, userID, conversationID int64, limit int) ([]domain.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.convos.ListMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}

	_ = s.convos.MarkRead(ctx, conversationID, userID, time.Now())
	return msgs, nil
}

type wsEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
