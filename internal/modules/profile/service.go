package profile

import (
	"context"
	"sort"
	"strings"

	"fixhub/internal/domain"
)

// ValidationError enumerates rejected profile fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "invalid profile input: " + strings.Join(names, ", ")
}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.RepairerProfile, error)
	Upsert(ctx context.Context, p *domain.RepairerProfile) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) error
}

type Service struct {
	profiles ProfileRepository
	users    UserStore
}

func NewService(profiles ProfileRepository, users UserStore) *Service {
	return &Service{profiles: profiles, users: users}
}

type UpsertProfileInput struct {
	Services []string `json:"services"`
	Pincode  string   `json:"pincode"`
	Bio      string   `json:"bio"`
}

// UpsertRepairerProfile validates and stores the repairer's matching data.
// Services must come from the fixed catalog; dynamic shapes (single string
// instead of an array) are rejected at the binding layer, not coerced.
func (s *Service) UpsertRepairerProfile(ctx context.Context, userID int64, in UpsertProfileInput) (*domain.RepairerProfile, error) {
	fields := make(map[string]string)

	if len(in.Services) == 0 {
		fields["services"] = "at least one service is required"
	}
	seen := make(map[string]bool, len(in.Services))
	normalized := make([]string, 0, len(in.Services))
	for _, svc := range in.Services {
		svc = strings.TrimSpace(strings.ToLower(svc))
		if !domain.IsValidServiceType(svc) {
			fields["services"] = "unknown service type: " + svc
			continue
		}
		if !seen[svc] {
			seen[svc] = true
			normalized = append(normalized, svc)
		}
	}

	if !domain.IsValidPincode(in.Pincode) {
		fields["pincode"] = "must be a 6-digit postal code"
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	p := &domain.RepairerProfile{
		UserID:   userID,
		Services: normalized,
		Pincode:  in.Pincode,
		Bio:      strings.TrimSpace(in.Bio),
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetRepairerProfile(ctx context.Context, userID int64) (*domain.RepairerProfile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

type UpdateMeInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateMe changes the caller's display name and phone. Email and role are
// not editable through this endpoint.
func (s *Service) UpdateMe(ctx context.Context, userID int64, in UpdateMeInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)

	fields := make(map[string]string)
	if name == "" {
		fields["name"] = "required"
	}
	if phone == "" {
		fields["phone"] = "required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if err := s.users.UpdateProfile(ctx, userID, name, phone); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}
