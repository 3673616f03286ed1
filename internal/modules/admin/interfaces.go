package admin

import (
	"context"
	"time"

	"fixhub/internal/domain"
)

type SettlementRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Settlement, error)
	List(ctx context.Context, status *domain.SettlementStatus) ([]domain.Settlement, error)
	MarkSettled(ctx context.Context, id, adminID int64, at time.Time) (bool, error)
	Totals(ctx context.Context) (map[domain.SettlementStatus]float64, error)
}

type RequestStatsReader interface {
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error)
	CountStaleOpen(ctx context.Context, olderThan time.Time) (int64, error)
}

type UserLister interface {
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type SettlementNotifier interface {
	NotifySettlementPaid(ctx context.Context, repairerID int64, settlementID int64, amount float64) error
}
