package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RepairerProfileRepository struct {
	db *gorm.DB
}

func NewRepairerProfileRepository(db *gorm.DB) *RepairerProfileRepository {
	return &RepairerProfileRepository{db: db}
}

type repairerProfileModel struct {
	UserID    int64     `gorm:"column:user_id;primaryKey"`
	Services  []byte    `gorm:"column:services"` // JSON array of service types
	Pincode   string    `gorm:"column:pincode;index"`
	Bio       string    `gorm:"column:bio"`
	Verified  bool      `gorm:"column:verified"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (repairerProfileModel) TableName() string { return "repairer_profiles" }

func toDomainProfile(m repairerProfileModel) (*domain.RepairerProfile, error) {
	var services []string
	if len(m.Services) > 0 {
		if err := json.Unmarshal(m.Services, &services); err != nil {
			return nil, err
		}
	}
	return &domain.RepairerProfile{
		UserID:    m.UserID,
		Services:  services,
		Pincode:   m.Pincode,
		Bio:       m.Bio,
		Verified:  m.Verified,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

func (r *RepairerProfileRepository) GetByUserID(ctx context.Context, userID int64) (*domain.RepairerProfile, error) {
	var m repairerProfileModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainProfile(m)
}

// Upsert creates or replaces the repairer's profile in one statement.
func (r *RepairerProfileRepository) Upsert(ctx context.Context, p *domain.RepairerProfile) error {
	raw, err := json.Marshal(p.Services)
	if err != nil {
		return err
	}

	now := time.Now()
	m := repairerProfileModel{
		UserID:    p.UserID,
		Services:  raw,
		Pincode:   p.Pincode,
		Bio:       p.Bio,
		Verified:  p.Verified,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"services", "pincode", "bio", "updated_at"}),
		}).
		Create(&m).Error
	if err != nil {
		return err
	}

	got, err := toDomainProfile(m)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}
