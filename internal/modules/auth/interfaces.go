package auth

import (
	"context"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/repository"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	MarkEmailVerified(ctx context.Context, userID int64, at time.Time) error
}

type VerificationRepository interface {
	Get(ctx context.Context, userID int64) (*repository.VerificationCode, error)
	Issue(ctx context.Context, userID int64, codeHash string, sentAt, expiresAt time.Time) error
	IncrementAttempts(ctx context.Context, userID int64) error
	MarkUsed(ctx context.Context, userID int64, at time.Time) error
}

type TokenIssuer interface {
	GenerateToken(userID int64, role string) (string, error)
}

// Mailer delivers the OTP. Transport is an external collaborator; the dev
// implementation just logs.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}
