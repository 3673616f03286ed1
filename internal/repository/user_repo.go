package repository

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userModel struct {
	ID              int64      `gorm:"column:id;primaryKey"`
	Name            string     `gorm:"column:name"`
	Email           string     `gorm:"column:email;uniqueIndex"`
	Phone           string     `gorm:"column:phone"`
	PasswordHash    string     `gorm:"column:password_hash"`
	Role            string     `gorm:"column:role;index"`
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at"`
}

func (userModel) TableName() string { return "users" }

func toDomainUser(m userModel) *domain.User {
	return &domain.User{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		PasswordHash:    m.PasswordHash,
		Role:            domain.Role(m.Role),
		EmailVerifiedAt: m.EmailVerifiedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	m := userModel{
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		PasswordHash:    u.PasswordHash,
		Role:            string(u.Role),
		EmailVerifiedAt: u.EmailVerifiedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*u = *toDomainUser(m)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m userModel
	tx := r.db.WithContext(ctx).Where("email = ?", email).First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainUser(m), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name, phone string) error {
	return r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"phone":      phone,
			"updated_at": time.Now(),
		}).Error
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"email_verified_at": at,
			"updated_at":        at,
		}).Error
}

func (r *UserRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var models []userModel
	err := r.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainUser(m))
	}
	return out, nil
}
