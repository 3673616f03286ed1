package repository

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type conversationModel struct {
	ID         int64     `gorm:"column:id;primaryKey"`
	RequestID  int64     `gorm:"column:request_id;uniqueIndex"`
	CustomerID int64     `gorm:"column:customer_id;index"`
	RepairerID int64     `gorm:"column:repairer_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (conversationModel) TableName() string { return "conversations" }

type messageModel struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	ConversationID int64      `gorm:"column:conversation_id;index"`
	SenderID       int64      `gorm:"column:sender_id"`
	Body           string     `gorm:"column:body"`
	ReadAt         *time.Time `gorm:"column:read_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (messageModel) TableName() string { return "messages" }

func toDomainConversation(m conversationModel) *domain.Conversation {
	return &domain.Conversation{
		ID:         m.ID,
		RequestID:  m.RequestID,
		CustomerID: m.CustomerID,
		RepairerID: m.RepairerID,
		CreatedAt:  m.CreatedAt,
	}
}

func toDomainMessage(m messageModel) *domain.Message {
	return &domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

// EnsureForRequest upserts the request's conversation channel. The unique
// index on request_id makes racing callers converge on the same row.
func (r *ConversationRepository) EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error) {
	m := conversationModel{
		RequestID:  requestID,
		CustomerID: customerID,
		RepairerID: repairerID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(&m).Error
	if err != nil {
		return nil, err
	}

	// DoNothing leaves m.ID zero when the row already existed.
	var got conversationModel
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&got).Error; err != nil {
		return nil, err
	}
	return toDomainConversation(got), nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	var m conversationModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainConversation(m), nil
}

func (r *ConversationRepository) GetByRequestID(ctx context.Context, requestID int64) (*domain.Conversation, error) {
	var m conversationModel
	tx := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainConversation(m), nil
}

// ListForUser returns the user's conversations enriched for display.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	type row struct {
		conversationModel
		RequestTitle string `gorm:"column:request_title"`
		PeerName     string `gorm:"column:peer_name"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Table("conversations AS c").
		Select(`c.*, sr.title AS request_title,
			CASE WHEN c.customer_id = ? THEN ru.name ELSE cu.name END AS peer_name`, userID).
		Joins("LEFT JOIN service_requests sr ON sr.id = c.request_id").
		Joins("LEFT JOIN users cu ON cu.id = c.customer_id").
		Joins("LEFT JOIN users ru ON ru.id = c.repairer_id").
		Where("c.customer_id = ? OR c.repairer_id = ?", userID, userID).
		Order("c.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Conversation, 0, len(rows))
	for _, it := range rows {
		conv := toDomainConversation(it.conversationModel)
		conv.RequestTitle = it.RequestTitle
		conv.PeerName = it.PeerName
		out = append(out, *conv)
	}
	return out, nil
}

func (r *ConversationRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	m := messageModel{
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*msg = *toDomainMessage(m)
	return nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID int64, limit int) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var models []messageModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Message, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainMessage(m))
	}
	return out, nil
}

// MarkRead marks everything the peer sent as read.
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, readerID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&messageModel{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", at).Error
}
