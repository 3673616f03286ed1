package admin

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"
)

var (
	ErrSettlementNotFound = errors.New("settlement not found")
	// ErrAlreadySettled also covers an admin racing another admin: the
	// conditional update matches no row either way.
	ErrAlreadySettled = errors.New("settlement is already settled")
	ErrInvalidStatus  = errors.New("unknown settlement status")
)

// StaleOpenCutoff is how old a still-requested job must be before it counts
// as backlog in the stats view. Nothing auto-expires these.
const StaleOpenCutoff = 7 * 24 * time.Hour

type Service struct {
	settlements SettlementRepository
	requests    RequestStatsReader
	users       UserLister
	notifs      SettlementNotifier
}

func NewService(settlements SettlementRepository, requests RequestStatsReader, users UserLister, notifs SettlementNotifier) *Service {
	return &Service{
		settlements: settlements,
		requests:    requests,
		users:       users,
		notifs:      notifs,
	}
}

func (s *Service) ListSettlements(ctx context.Context, statusFilter string) ([]domain.Settlement, error) {
	var status *domain.SettlementStatus
	if statusFilter != "" {
		st := domain.SettlementStatus(statusFilter)
		if st != domain.SettlementPending && st != domain.SettlementSettled {
			return nil, ErrInvalidStatus
		}
		status = &st
	}
	return s.settlements.List(ctx, status)
}

func (s *Service) MarkSettled(ctx context.Context, settlementID, adminID int64) (*domain.Settlement, error) {
	existing, err := s.settlements.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrSettlementNotFound
	}

	ok, err := s.settlements.MarkSettled(ctx, settlementID, adminID, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadySettled
	}

	settled, err := s.settlements.GetByID(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifySettlementPaid(ctx, settled.RepairerID, settled.ID, settled.Amount)
	}

	return settled, nil
}

type Stats struct {
	RequestsByStatus map[domain.RequestStatus]int64      `json:"requests_by_status"`
	StaleOpenCount   int64                               `json:"stale_open_count"`
	SettlementTotals map[domain.SettlementStatus]float64 `json:"settlement_totals"`
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stale, err := s.requests.CountStaleOpen(ctx, time.Now().Add(-StaleOpenCutoff))
	if err != nil {
		return nil, err
	}

	totals, err := s.settlements.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		RequestsByStatus: byStatus,
		StaleOpenCount:   stale,
		SettlementTotals: totals,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	r := domain.Role(role)
	if r != domain.RoleCustomer && r != domain.RoleRepairer && r != domain.RoleAdmin {
		r = domain.RoleCustomer
	}
	return s.users.ListByRole(ctx, r)
}
