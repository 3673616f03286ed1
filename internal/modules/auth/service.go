package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"fixhub/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const maxVerifyAttempts = 5

var codeRegex = regexp.MustCompile(`^\d{6}$`)

type Service struct {
	users          UserRepository
	codes          VerificationRepository
	jwt            TokenIssuer
	mailer         Mailer
	codePepper     string
	codeTTL        time.Duration
	resendCooldown time.Duration
}

func NewService(
	users UserRepository,
	codes VerificationRepository,
	jwt TokenIssuer,
	mailer Mailer,
	codePepper string,
	codeTTL time.Duration,
	resendCooldown time.Duration,
) *Service {
	return &Service{
		users:          users,
		codes:          codes,
		jwt:            jwt,
		mailer:         mailer,
		codePepper:     codePepper,
		codeTTL:        codeTTL,
		resendCooldown: resendCooldown,
	}
}

type LoginResult struct {
	User  *domain.User
	Token string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if !domain.IsValidRole(in.Role) {
		return nil, ErrInvalidRole
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         domain.Role(in.Role),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	// Kick off verification right away; registration itself still succeeds
	// if mail delivery hiccups.
	_, _ = s.RequestEmailVerification(ctx, email)

	return u, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: u, Token: token}, nil
}

type VerifyRequestResult struct {
	Status string
}

// RequestEmailVerification issues (or reissues) an OTP. Unknown and already
// verified emails get the same accepted answer so the endpoint does not
// reveal which addresses exist.
func (s *Service) RequestEmailVerification(ctx context.Context, email string) (*VerifyRequestResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.IsEmailVerified() {
		return &VerifyRequestResult{Status: "accepted"}, nil
	}

	now := time.Now()
	current, err := s.codes.Get(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.LastSentAt.Add(s.resendCooldown).After(now) {
		return nil, ErrRateLimitExceeded
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, err
	}

	if err := s.codes.Issue(ctx, u.ID, hashVerificationCode(code, s.codePepper), now, now.Add(s.codeTTL)); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		return nil, err
	}

	return &VerifyRequestResult{Status: "accepted"}, nil
}

func (s *Service) ConfirmEmailVerification(ctx context.Context, email, code string) error {
	if !codeRegex.MatchString(code) {
		return ErrCodeInvalid
	}

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrCodeInvalid
	}
	if u.IsEmailVerified() {
		return nil
	}

	current, err := s.codes.Get(ctx, u.ID)
	if err != nil {
		return err
	}
	if current == nil || current.UsedAt != nil {
		return ErrCodeInvalid
	}

	now := time.Now()
	if current.ExpiresAt.Before(now) {
		return ErrCodeExpired
	}
	if current.Attempts >= maxVerifyAttempts {
		return ErrTooManyAttempts
	}

	if hashVerificationCode(code, s.codePepper) != current.CodeHash {
		_ = s.codes.IncrementAttempts(ctx, u.ID)
		return ErrCodeInvalid
	}

	if err := s.codes.MarkUsed(ctx, u.ID, now); err != nil {
		return err
	}
	return s.users.MarkEmailVerified(ctx, u.ID, now)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashVerificationCode(code, pepper string) string {
	sum := sha256.Sum256([]byte(code + pepper))
	return hex.EncodeToString(sum[:])
}
