package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fixhub/internal/domain"
)

type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error) {
	args := m.Called(ctx, requestID, customerID, repairerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Conversation), args.Error(1)
}

func (m *MockConversationRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	if msg != nil {
		msg.ID = 55 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockConversationRepository) ListMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockConversationRepository) MarkRead(ctx context.Context, conversationID, readerID int64, at time.Time) error {
	args := m.Called(ctx, conversationID, readerID, at)
	return args.Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockMessageNotifier struct {
	mock.Mock
}

func (m *MockMessageNotifier) NotifyNewMessage(ctx context.Context, recipientID int64, senderName string, conversationID int64) error {
	args := m.Called(ctx, recipientID, senderName, conversationID)
	return args.Error(0)
}

func TestService_SendMessage_OfflinePeerGetsNotification(t *testing.T) {
	convos := new(MockConversationRepository)
	users := new(MockUserReader)
	notifs := new(MockMessageNotifier)
	svc := NewService(convos, users, notifs, NewHub())

	conv := &domain.Conversation{ID: 3, RequestID: 101, CustomerID: 7, RepairerID: 42}
	convos.On("GetByID", mock.Anything, int64(3)).Return(conv, nil)
	convos.On("CreateMessage", mock.Anything, mock.Anything).Return(nil)
	users.On("GetByID", mock.Anything, int64(7)).Return(&domain.User{ID: 7, Name: "Priya"}, nil)
	notifs.On("NotifyNewMessage", mock.Anything, int64(42), "Priya", int64(3)).Return(nil)

	msg, err := svc.SendMessage(context.Background(), 7, 3, "  are you on your way?  ")

	assert.NoError(t, err)
	assert.Equal(t, "are you on your way?", msg.Body)
	assert.Equal(t, int64(7), msg.SenderID)
	notifs.AssertExpectations(t)
}

func TestService_SendMessage_NotParticipant(t *testing.T) {
	convos := new(MockConversationRepository)
	svc := NewService(convos, new(MockUserReader), new(MockMessageNotifier), NewHub())

	conv := &domain.Conversation{ID: 3, CustomerID: 7, RepairerID: 42}
	convos.On("GetByID", mock.Anything, int64(3)).Return(conv, nil)

	_, err := svc.SendMessage(context.Background(), 99, 3, "hello")

	assert.ErrorIs(t, err, ErrNotParticipant)
	convos.AssertNotCalled(t, "CreateMessage")
}

func TestService_SendMessage_EmptyBody(t *testing.T) {
	convos := new(MockConversationRepository)
	svc := NewService(convos, new(MockUserReader), new(MockMessageNotifier), NewHub())

	_, err := svc.SendMessage(context.Background(), 7, 3, "   ")

	assert.ErrorIs(t, err, ErrEmptyBody)
	convos.AssertNotCalled(t, "GetByID")
}

func TestService_ListMessages_MarksRead(t *testing.T) {
	convos := new(MockConversationRepository)
	svc := NewService(convos, new(MockUserReader), new(MockMessageNotifier), NewHub())

	conv := &domain.Conversation{ID: 3, CustomerID: 7, RepairerID: 42}
	convos.On("GetByID", mock.Anything, int64(3)).Return(conv, nil)
	convos.On("ListMessages", mock.Anything, int64(3), 50).
		Return([]domain.Message{{ID: 55, Body: "hi"}}, nil)
	convos.On("MarkRead", mock.Anything, int64(3), int64(42), mock.Anything).Return(nil)

	msgs, err := svc.ListMessages(context.Background(), 42, 3, 50)

	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	convos.AssertCalled(t, "MarkRead", mock.Anything, int64(3), int64(42), mock.Anything)
}

func TestService_ListMessages_UnknownConversation(t *testing.T) {
	convos := new(MockConversationRepository)
	svc := NewService(convos, new(MockUserReader), new(MockMessageNotifier), NewHub())

	convos.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

	_, err := svc.ListMessages(context.Background(), 7, 404, 50)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
