package repository

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

type settlementModel struct {
	ID         int64      `gorm:"column:id;primaryKey"`
	RequestID  int64      `gorm:"column:request_id;uniqueIndex"`
	CustomerID int64      `gorm:"column:customer_id"`
	RepairerID int64      `gorm:"column:repairer_id;index"`
	Amount     float64    `gorm:"column:amount"`
	Status     string     `gorm:"column:status;index"`
	SettledAt  *time.Time `gorm:"column:settled_at"`
	SettledBy  *int64     `gorm:"column:settled_by"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
}

func (settlementModel) TableName() string { return "settlements" }

func toDomainSettlement(m settlementModel) *domain.Settlement {
	return &domain.Settlement{
		ID:         m.ID,
		RequestID:  m.RequestID,
		CustomerID: m.CustomerID,
		RepairerID: m.RepairerID,
		Amount:     m.Amount,
		Status:     domain.SettlementStatus(m.Status),
		SettledAt:  m.SettledAt,
		SettledBy:  m.SettledBy,
		CreatedAt:  m.CreatedAt,
	}
}

// CreateForRequest records a pending payout. Completing the same request
// twice (customer and repairer paths can both observe the transition) is
// absorbed by the unique request_id index.
func (r *SettlementRepository) CreateForRequest(ctx context.Context, req *domain.ServiceRequest) error {
	if req.RepairerID == nil {
		return nil
	}
	m := settlementModel{
		RequestID:  req.ID,
		CustomerID: req.CustomerID,
		RepairerID: *req.RepairerID,
		Amount:     req.Budget,
		Status:     string(domain.SettlementPending),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "request_id"}},
			DoNothing: true,
		}).
		Create(&m).Error
}

func (r *SettlementRepository) GetByID(ctx context.Context, id int64) (*domain.Settlement, error) {
	var m settlementModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return toDomainSettlement(m), nil
}

func (r *SettlementRepository) List(ctx context.Context, status *domain.SettlementStatus) ([]domain.Settlement, error) {
	type row struct {
		settlementModel
		RequestTitle string `gorm:"column:request_title"`
		RepairerName string `gorm:"column:repairer_name"`
	}

	q := r.db.WithContext(ctx).
		Table("settlements AS s").
		Select("s.*, sr.title AS request_title, u.name AS repairer_name").
		Joins("LEFT JOIN service_requests sr ON sr.id = s.request_id").
		Joins("LEFT JOIN users u ON u.id = s.repairer_id").
		Order("s.created_at DESC")
	if status != nil {
		q = q.Where("s.status = ?", string(*status))
	}

	var rows []row
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]domain.Settlement, 0, len(rows))
	for _, it := range rows {
		s := toDomainSettlement(it.settlementModel)
		s.RequestTitle = it.RequestTitle
		s.RepairerName = it.RepairerName
		out = append(out, *s)
	}
	return out, nil
}

// MarkSettled flips a pending settlement; a second admin racing the first
// simply matches no row.
func (r *SettlementRepository) MarkSettled(ctx context.Context, id, adminID int64, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&settlementModel{}).
		Where("id = ? AND status = ?", id, string(domain.SettlementPending)).
		Updates(map[string]any{
			"status":     string(domain.SettlementSettled),
			"settled_at": at,
			"settled_by": adminID,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// Totals aggregates pending/settled amounts for the admin stats view.
func (r *SettlementRepository) Totals(ctx context.Context) (map[domain.SettlementStatus]float64, error) {
	var rows []struct {
		Status string  `gorm:"column:status"`
		Total  float64 `gorm:"column:total"`
	}
	err := r.db.WithContext(ctx).
		Model(&settlementModel{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.SettlementStatus]float64, len(rows))
	for _, row := range rows {
		out[domain.SettlementStatus(row.Status)] = row.Total
	}
	return out, nil
}
