package repository

import (
	"context"
	"errors"
	"time"

	"fixhub/internal/domain"

	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

type requestModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	CustomerID  int64   `gorm:"column:customer_id;index:idx_requests_customer_status"`
	RepairerID  *int64  `gorm:"column:repairer_id;index:idx_requests_repairer_status"`
	Title       string  `gorm:"column:title"`
	Description string  `gorm:"column:description"`
	ServiceType string  `gorm:"column:service_type;index:idx_requests_service_status;index:idx_requests_pincode_service,priority:2"`
	Urgency     string  `gorm:"column:urgency"`
	Budget      float64 `gorm:"column:budget"`
	ContactInfo string  `gorm:"column:contact_info"`

	FullAddress   string   `gorm:"column:full_address"`
	Pincode       string   `gorm:"column:pincode;index:idx_requests_pincode_service,priority:1"`
	CaptureMethod string   `gorm:"column:capture_method"`
	Latitude      *float64 `gorm:"column:latitude"`
	Longitude     *float64 `gorm:"column:longitude"`

	PreferredDate string `gorm:"column:preferred_date"`
	PreferredTime string `gorm:"column:preferred_time"`

	Status      string     `gorm:"column:status;index:idx_requests_service_status;index:idx_requests_customer_status;index:idx_requests_repairer_status"`
	AssignedAt  *time.Time `gorm:"column:assigned_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	RatingStars   *int   `gorm:"column:rating_stars"`
	RatingComment string `gorm:"column:rating_comment"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (requestModel) TableName() string { return "service_requests" }

// requestRow carries a request joined with party display fields.
type requestRow struct {
	requestModel
	CustomerName  string `gorm:"column:customer_name"`
	CustomerPhone string `gorm:"column:customer_phone"`
	RepairerName  string `gorm:"column:repairer_name"`
	RepairerPhone string `gorm:"column:repairer_phone"`
}

func toDomainRequest(m requestModel) *domain.ServiceRequest {
	r := &domain.ServiceRequest{
		ID:          m.ID,
		CustomerID:  m.CustomerID,
		RepairerID:  m.RepairerID,
		Title:       m.Title,
		Description: m.Description,
		ServiceType: domain.ServiceType(m.ServiceType),
		Urgency:     domain.Urgency(m.Urgency),
		Budget:      m.Budget,
		ContactInfo: m.ContactInfo,
		Location: domain.Location{
			FullAddress:   m.FullAddress,
			Pincode:       m.Pincode,
			CaptureMethod: m.CaptureMethod,
			Latitude:      m.Latitude,
			Longitude:     m.Longitude,
		},
		PreferredTimeSlot: domain.TimeSlot{
			Date: m.PreferredDate,
			Time: m.PreferredTime,
		},
		Status:      domain.RequestStatus(m.Status),
		AssignedAt:  m.AssignedAt,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.RatingStars != nil {
		r.Rating = &domain.Rating{Stars: *m.RatingStars, Comment: m.RatingComment}
	}
	return r
}

func toRequestModel(r *domain.ServiceRequest) requestModel {
	m := requestModel{
		ID:            r.ID,
		CustomerID:    r.CustomerID,
		RepairerID:    r.RepairerID,
		Title:         r.Title,
		Description:   r.Description,
		ServiceType:   string(r.ServiceType),
		Urgency:       string(r.Urgency),
		Budget:        r.Budget,
		ContactInfo:   r.ContactInfo,
		FullAddress:   r.Location.FullAddress,
		Pincode:       r.Location.Pincode,
		CaptureMethod: r.Location.CaptureMethod,
		Latitude:      r.Location.Latitude,
		Longitude:     r.Location.Longitude,
		PreferredDate: r.PreferredTimeSlot.Date,
		PreferredTime: r.PreferredTimeSlot.Time,
		Status:        string(r.Status),
		AssignedAt:    r.AssignedAt,
		CompletedAt:   r.CompletedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.Rating != nil {
		stars := r.Rating.Stars
		m.RatingStars = &stars
		m.RatingComment = r.Rating.Comment
	}
	return m
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	m := toRequestModel(req)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*req = *toDomainRequest(m)
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	var row requestRow
	tx := r.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, cu.name AS customer_name, cu.phone AS customer_phone, rp.name AS repairer_name, rp.phone AS repairer_phone").
		Joins("LEFT JOIN users cu ON cu.id = sr.customer_id").
		Joins("LEFT JOIN users rp ON rp.id = sr.repairer_id").
		Where("sr.id = ?", id).
		Take(&row)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return rowToDomain(row), nil
}

func rowToDomain(row requestRow) *domain.ServiceRequest {
	req := toDomainRequest(row.requestModel)
	req.CustomerName = row.CustomerName
	req.CustomerPhone = row.CustomerPhone
	req.RepairerName = row.RepairerName
	req.RepairerPhone = row.RepairerPhone
	return req
}

// Assign binds a repairer to an open request. It is a single conditional
// update: the row must still be requested and unassigned, otherwise no row
// matches and the caller gets assigned=false. Two racing repairers can both
// read the open request, but only one UPDATE matches.
func (r *RequestRepository) Assign(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("id = ? AND status = ? AND repairer_id IS NULL", requestID, string(domain.RequestRequested)).
		Updates(map[string]any{
			"repairer_id": repairerID,
			"status":      string(domain.RequestInProgress),
			"assigned_at": now,
			"updated_at":  now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// UpdateStatusByCustomer transitions a request the customer owns, guarded by
// the expected current status so a concurrent transition loses cleanly.
func (r *RequestRepository) UpdateStatusByCustomer(ctx context.Context, requestID, customerID int64, from, to domain.RequestStatus, now time.Time) (bool, error) {
	updates := map[string]any{
		"status":     string(to),
		"updated_at": now,
	}
	if to == domain.RequestCompleted {
		updates["completed_at"] = now
	}
	tx := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("id = ? AND customer_id = ? AND status = ?", requestID, customerID, string(from)).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// CompleteByRepairer marks the assigned repairer's active job done.
func (r *RequestRepository) CompleteByRepairer(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("id = ? AND repairer_id = ? AND status = ?", requestID, repairerID, string(domain.RequestInProgress)).
		Updates(map[string]any{
			"status":       string(domain.RequestCompleted),
			"completed_at": now,
			"updated_at":   now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// SetRating attaches post-completion feedback. Only the owning customer of a
// completed, still unrated request matches.
func (r *RequestRepository) SetRating(ctx context.Context, requestID, customerID int64, stars int, comment string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("id = ? AND customer_id = ? AND status = ? AND rating_stars IS NULL",
			requestID, customerID, string(domain.RequestCompleted)).
		Updates(map[string]any{
			"rating_stars":   stars,
			"rating_comment": comment,
			"updated_at":     time.Now(),
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// MatchFilter is the repairer-context eligibility query: open jobs in the
// repairer's trades within the pincode prefix, unioned with the repairer's
// own active and completed jobs.
type MatchFilter struct {
	RepairerID    int64
	Services      []string
	PincodePrefix string
	Status        *domain.RequestStatus // narrows the clause selection
	ServiceType   string                // optional extra narrowing on open jobs
}

func (r *RequestRepository) ListMatching(ctx context.Context, f MatchFilter) ([]domain.ServiceRequest, error) {
	q := r.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, cu.name AS customer_name, cu.phone AS customer_phone, rp.name AS repairer_name, rp.phone AS repairer_phone").
		Joins("LEFT JOIN users cu ON cu.id = sr.customer_id").
		Joins("LEFT JOIN users rp ON rp.id = sr.repairer_id")

	openClause := r.db.
		Where("sr.status = ? AND sr.repairer_id IS NULL", string(domain.RequestRequested)).
		Where("sr.service_type IN ?", f.Services).
		Where("sr.pincode LIKE ?", f.PincodePrefix+"%")
	if f.ServiceType != "" {
		openClause = openClause.Where("sr.service_type = ?", f.ServiceType)
	}

	ownClause := r.db.Where("sr.repairer_id = ?", f.RepairerID)

	switch {
	case f.Status == nil:
		// Open jobs plus everything already bound to this repairer.
		ownClause = ownClause.Where("sr.status IN ?", []string{
			string(domain.RequestInProgress),
			string(domain.RequestCompleted),
		})
		q = q.Where(r.db.Where(openClause).Or(ownClause)).
			Order("sr.created_at ASC")
	case *f.Status == domain.RequestRequested:
		// Open jobs only; queue fairness wants oldest first.
		q = q.Where(openClause).Order("sr.created_at ASC")
	default:
		// A specific non-open status is always scoped to this repairer.
		ownClause = ownClause.Where("sr.status = ?", string(*f.Status))
		q = q.Where(ownClause).Order("sr.created_at DESC")
	}

	var rows []requestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// ListOpenByPincode serves anonymous/customer browsing of open jobs.
func (r *RequestRepository) ListOpenByPincode(ctx context.Context, prefix, serviceType string) ([]domain.ServiceRequest, error) {
	q := r.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, cu.name AS customer_name, cu.phone AS customer_phone, rp.name AS repairer_name, rp.phone AS repairer_phone").
		Joins("LEFT JOIN users cu ON cu.id = sr.customer_id").
		Joins("LEFT JOIN users rp ON rp.id = sr.repairer_id").
		Where("sr.status = ? AND sr.repairer_id IS NULL", string(domain.RequestRequested)).
		Where("sr.pincode LIKE ?", prefix+"%").
		Order("sr.created_at ASC")
	if serviceType != "" {
		q = q.Where("sr.service_type = ?", serviceType)
	}

	var rows []requestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// ListOpenWithCoordinates returns open jobs that carry coordinates; radius
// filtering happens in the service layer via haversine.
func (r *RequestRepository) ListOpenWithCoordinates(ctx context.Context, serviceType string) ([]domain.ServiceRequest, error) {
	q := r.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, cu.name AS customer_name, cu.phone AS customer_phone, rp.name AS repairer_name, rp.phone AS repairer_phone").
		Joins("LEFT JOIN users cu ON cu.id = sr.customer_id").
		Joins("LEFT JOIN users rp ON rp.id = sr.repairer_id").
		Where("sr.status = ? AND sr.repairer_id IS NULL", string(domain.RequestRequested)).
		Where("sr.latitude IS NOT NULL AND sr.longitude IS NOT NULL").
		Order("sr.created_at ASC")
	if serviceType != "" {
		q = q.Where("sr.service_type = ?", serviceType)
	}

	var rows []requestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// ListByCustomer returns a customer's own requests, newest first.
func (r *RequestRepository) ListByCustomer(ctx context.Context, customerID int64, status *domain.RequestStatus) ([]domain.ServiceRequest, error) {
	q := r.db.WithContext(ctx).
		Table("service_requests AS sr").
		Select("sr.*, cu.name AS customer_name, cu.phone AS customer_phone, rp.name AS repairer_name, rp.phone AS repairer_phone").
		Joins("LEFT JOIN users cu ON cu.id = sr.customer_id").
		Joins("LEFT JOIN users rp ON rp.id = sr.repairer_id").
		Where("sr.customer_id = ?", customerID).
		Order("sr.created_at DESC")
	if status != nil {
		q = q.Where("sr.status = ?", string(*status))
	}

	var rows []requestRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

func rowsToDomain(rows []requestRow) []domain.ServiceRequest {
	out := make([]domain.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, *rowToDomain(row))
	}
	return out
}

// CountByStatus feeds the admin stats view.
func (r *RequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	var rows []struct {
		Status string `gorm:"column:status"`
		Count  int64  `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Select("status, COUNT(1) AS count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[domain.RequestStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.RequestStatus(row.Status)] = row.Count
	}
	return out, nil
}

// CountStaleOpen counts requested jobs older than the cutoff. There is no
// auto-expiry; this only surfaces the backlog to operators.
func (r *RequestRepository) CountStaleOpen(ctx context.Context, olderThan time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&requestModel{}).
		Where("status = ? AND created_at < ?", string(domain.RequestRequested), olderThan).
		Count(&cnt).Error
	return cnt, err
}
