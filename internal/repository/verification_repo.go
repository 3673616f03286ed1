package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// VerificationCode is one user's current email OTP state. Only the sha256
// hash of the code is stored.
type VerificationCode struct {
	UserID      int64
	CodeHash    string
	Attempts    int
	ResendCount int
	LastSentAt  time.Time
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

type VerificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

type verificationCodeModel struct {
	UserID      int64      `gorm:"column:user_id;primaryKey"`
	CodeHash    string     `gorm:"column:code_hash"`
	Attempts    int        `gorm:"column:attempts"`
	ResendCount int        `gorm:"column:resend_count"`
	LastSentAt  time.Time  `gorm:"column:last_sent_at"`
	ExpiresAt   time.Time  `gorm:"column:expires_at"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (verificationCodeModel) TableName() string { return "email_verification_codes" }

func (r *VerificationRepository) Get(ctx context.Context, userID int64) (*VerificationCode, error) {
	var m verificationCodeModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &VerificationCode{
		UserID:      m.UserID,
		CodeHash:    m.CodeHash,
		Attempts:    m.Attempts,
		ResendCount: m.ResendCount,
		LastSentAt:  m.LastSentAt,
		ExpiresAt:   m.ExpiresAt,
		UsedAt:      m.UsedAt,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// Issue stores a fresh code hash, replacing any previous one.
func (r *VerificationRepository) Issue(ctx context.Context, userID int64, codeHash string, sentAt, expiresAt time.Time) error {
	var existing verificationCodeModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := verificationCodeModel{
			UserID:      userID,
			CodeHash:    codeHash,
			ResendCount: 1,
			LastSentAt:  sentAt,
			ExpiresAt:   expiresAt,
		}
		return r.db.WithContext(ctx).Create(&row).Error
	}
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&verificationCodeModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"code_hash":    codeHash,
			"attempts":     0,
			"last_sent_at": sentAt,
			"expires_at":   expiresAt,
			"resend_count": gorm.Expr("resend_count + 1"),
			"used_at":      nil,
		}).Error
}

func (r *VerificationRepository) IncrementAttempts(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&verificationCodeModel{}).
		Where("user_id = ?", userID).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *VerificationRepository) MarkUsed(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&verificationCodeModel{}).
		Where("user_id = ?", userID).
		Update("used_at", at).Error
}

// DeleteExpired is run by the cleanup tool.
func (r *VerificationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&verificationCodeModel{})
	return tx.RowsAffected, tx.Error
}
