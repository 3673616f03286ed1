package request

import (
	"context"
	"strings"
	"time"

	"fixhub/internal/domain"
	"fixhub/internal/pkg/geo"
	"fixhub/internal/repository"
)

type Service struct {
	requests    RequestRepository
	profiles    ProfileReader
	users       UserReader
	notifs      NotificationSender
	convos      ConversationEnsurer
	settlements SettlementRecorder
}

func NewService(
	requests RequestRepository,
	profiles ProfileReader,
	users UserReader,
	notifs NotificationSender,
	convos ConversationEnsurer,
	settlements SettlementRecorder,
) *Service {
	return &Service{
		requests:    requests,
		profiles:    profiles,
		users:       users,
		notifs:      notifs,
		convos:      convos,
		settlements: settlements,
	}
}

func validateCreate(in CreateRequestInput) map[string]string {
	fields := make(map[string]string)

	if strings.TrimSpace(in.Title) == "" {
		fields["title"] = "required"
	}
	if strings.TrimSpace(in.ServiceType) == "" {
		fields["service_type"] = "required"
	} else if !domain.IsValidServiceType(in.ServiceType) {
		fields["service_type"] = "unknown service type"
	}
	if strings.TrimSpace(in.Description) == "" {
		fields["description"] = "required"
	}
	if strings.TrimSpace(in.Location.FullAddress) == "" {
		fields["location.full_address"] = "required"
	}
	if strings.TrimSpace(in.Location.Pincode) == "" {
		fields["location.pincode"] = "required"
	} else if !domain.IsValidPincode(in.Location.Pincode) {
		fields["location.pincode"] = "must be a 6-digit postal code"
	}
	if strings.TrimSpace(in.Location.CaptureMethod) == "" {
		fields["location.capture_method"] = "required"
	}
	if strings.TrimSpace(in.PreferredTimeSlot.Date) == "" {
		fields["preferred_time_slot.date"] = "required"
	} else if _, err := time.Parse("2006-01-02", in.PreferredTimeSlot.Date); err != nil {
		fields["preferred_time_slot.date"] = "must be YYYY-MM-DD"
	}
	if strings.TrimSpace(in.PreferredTimeSlot.Time) == "" {
		fields["preferred_time_slot.time"] = "required"
	} else if _, err := time.Parse("15:04", in.PreferredTimeSlot.Time); err != nil {
		fields["preferred_time_slot.time"] = "must be HH:MM"
	}
	if in.Budget <= 0 {
		fields["budget"] = "required"
	}
	if strings.TrimSpace(in.ContactInfo) == "" {
		fields["contact_info"] = "required"
	}
	if in.Urgency != "" && !domain.IsValidUrgency(in.Urgency) {
		fields["urgency"] = "unknown urgency"
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Create posts a new service request for the customer. With repairer_id set
// it is a direct booking: the row is inserted already assigned, so there is
// never an open-and-assigned intermediate state to guard.
func (s *Service) Create(ctx context.Context, customerID int64, in CreateRequestInput) (*domain.ServiceRequest, error) {
	if fields := validateCreate(in); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	urgency := domain.Urgency(in.Urgency)
	if in.Urgency == "" {
		urgency = domain.UrgencyMedium
	}

	req := &domain.ServiceRequest{
		CustomerID:  customerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		ServiceType: domain.ServiceType(in.ServiceType),
		Urgency:     urgency,
		Budget:      in.Budget,
		ContactInfo: strings.TrimSpace(in.ContactInfo),
		Location: domain.Location{
			FullAddress:   strings.TrimSpace(in.Location.FullAddress),
			Pincode:       in.Location.Pincode,
			CaptureMethod: in.Location.CaptureMethod,
			Latitude:      in.Location.Latitude,
			Longitude:     in.Location.Longitude,
		},
		PreferredTimeSlot: domain.TimeSlot{
			Date: in.PreferredTimeSlot.Date,
			Time: in.PreferredTimeSlot.Time,
		},
		Status: domain.RequestRequested,
	}

	if in.RepairerID != nil {
		repairer, err := s.users.GetByID(ctx, *in.RepairerID)
		if err != nil {
			return nil, err
		}
		if repairer == nil || repairer.Role != domain.RoleRepairer {
			return nil, &ValidationError{Fields: map[string]string{"repairer_id": "unknown repairer"}}
		}

		now := time.Now()
		rid := *in.RepairerID
		req.RepairerID = &rid
		req.Status = domain.RequestInProgress
		req.AssignedAt = &now
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	if req.RepairerID != nil {
		if s.notifs != nil {
			_ = s.notifs.NotifyDirectBooking(ctx, *req.RepairerID, req)
		}
		if s.convos != nil {
			_, _ = s.convos.EnsureForRequest(ctx, req.ID, req.CustomerID, *req.RepairerID)
		}
	}

	return req, nil
}

// ListForRepairer runs the matching query: open jobs in the repairer's
// trades within their pincode prefix, plus their own active and completed
// jobs. A status filter narrows the clause selection.
func (s *Service) ListForRepairer(ctx context.Context, repairerID int64, statusFilter, serviceType string) ([]domain.ServiceRequest, error) {
	profile, err := s.profiles.GetByUserID(ctx, repairerID)
	if err != nil {
		return nil, err
	}
	if profile == nil || len(profile.Services) == 0 || !domain.IsValidPincode(profile.Pincode) {
		return nil, &ValidationError{Fields: map[string]string{
			"profile": "complete your repairer profile (services and pincode) before browsing jobs",
		}}
	}

	f := repository.MatchFilter{
		RepairerID:    repairerID,
		Services:      profile.Services,
		PincodePrefix: domain.PincodePrefix(profile.Pincode),
	}

	if serviceType != "" {
		if !domain.IsValidServiceType(serviceType) {
			return nil, &ValidationError{Fields: map[string]string{"service_type": "unknown service type"}}
		}
		f.ServiceType = serviceType
	}

	if statusFilter != "" {
		status, ok := domain.ParseRequestStatus(statusFilter)
		if !ok {
			return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
		}
		f.Status = &status
	}

	return s.requests.ListMatching(ctx, f)
}

// BrowseOpen serves customers and anonymous visitors looking at open jobs,
// either around a pincode or around coordinates.
func (s *Service) BrowseOpen(ctx context.Context, q BrowseQuery) ([]domain.ServiceRequest, error) {
	if q.ServiceType != "" && !domain.IsValidServiceType(q.ServiceType) {
		return nil, &ValidationError{Fields: map[string]string{"service_type": "unknown service type"}}
	}

	if q.Pincode != "" {
		if !domain.IsValidPincode(q.Pincode) {
			return nil, &ValidationError{Fields: map[string]string{"pincode": "must be a 6-digit postal code"}}
		}
		return s.requests.ListOpenByPincode(ctx, domain.PincodePrefix(q.Pincode), q.ServiceType)
	}

	if q.Latitude != nil && q.Longitude != nil && q.RadiusKm != nil {
		if *q.RadiusKm <= 0 {
			return nil, &ValidationError{Fields: map[string]string{"radius_km": "must be positive"}}
		}
		all, err := s.requests.ListOpenWithCoordinates(ctx, q.ServiceType)
		if err != nil {
			return nil, err
		}
		out := make([]domain.ServiceRequest, 0, len(all))
		for _, r := range all {
			if r.Location.Latitude == nil || r.Location.Longitude == nil {
				continue
			}
			d := geo.HaversineKm(*q.Latitude, *q.Longitude, *r.Location.Latitude, *r.Location.Longitude)
			if d <= *q.RadiusKm {
				out = append(out, r)
			}
		}
		return out, nil
	}

	return nil, &ValidationError{Fields: map[string]string{
		"pincode": "a pincode or coordinates with radius_km is required",
	}}
}

func (s *Service) ListByCustomer(ctx context.Context, customerID int64, statusFilter string) ([]domain.ServiceRequest, error) {
	var status *domain.RequestStatus
	if statusFilter != "" {
		parsed, ok := domain.ParseRequestStatus(statusFilter)
		if !ok {
			return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
		}
		status = &parsed
	}
	return s.requests.ListByCustomer(ctx, customerID, status)
}

// Accept binds the repairer to an open request. The stored-state check is a
// single conditional update; when two repairers race, exactly one matches
// the row and the other gets ErrAlreadyAssigned.
func (s *Service) Accept(ctx context.Context, requestID, repairerID int64) (*domain.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	if req.Status != domain.RequestRequested || req.RepairerID != nil {
		return nil, ErrAlreadyAssigned
	}

	assigned, err := s.requests.Assign(ctx, requestID, repairerID, time.Now())
	if err != nil {
		return nil, err
	}
	if !assigned {
		// Lost the race between the read above and the update.
		return nil, ErrAlreadyAssigned
	}

	req, err = s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if s.notifs != nil {
		_ = s.notifs.NotifyRequestAccepted(ctx, req.CustomerID, req)
	}
	if s.convos != nil {
		_, _ = s.convos.EnsureForRequest(ctx, req.ID, req.CustomerID, repairerID)
	}

	return req, nil
}

// UpdateStatusAsCustomer applies a customer-initiated transition. Ownership
// failures look identical to a missing request.
func (s *Service) UpdateStatusAsCustomer(ctx context.Context, requestID, customerID int64, newStatus string) (*domain.ServiceRequest, error) {
	to, ok := domain.ParseRequestStatus(newStatus)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.CustomerID != customerID {
		return nil, ErrNotFound
	}

	if !domain.CustomerCanTransition(req.Status, to) {
		return nil, &InvalidTransitionError{From: req.Status, To: to}
	}

	updated, err := s.requests.UpdateStatusByCustomer(ctx, requestID, customerID, req.Status, to, time.Now())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrConflict
	}

	req, err = s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.RepairerID != nil && s.notifs != nil {
		switch to {
		case domain.RequestCompleted:
			_ = s.notifs.NotifyRequestCompleted(ctx, *req.RepairerID, req)
		case domain.RequestCancelled:
			_ = s.notifs.NotifyRequestCancelled(ctx, *req.RepairerID, req)
		}
	}
	if to == domain.RequestCompleted && s.settlements != nil {
		_ = s.settlements.CreateForRequest(ctx, req)
	}

	return req, nil
}

// UpdateStatusAsRepairer applies a repairer-initiated transition. Moving to
// in_progress is the accept path; completion is reserved for the currently
// assigned repairer.
func (s *Service) UpdateStatusAsRepairer(ctx context.Context, requestID, repairerID int64, newStatus string) (*domain.ServiceRequest, error) {
	to, ok := domain.ParseRequestStatus(newStatus)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"status": "unknown status"}}
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}

	switch to {
	case domain.RequestInProgress:
		if req.Status == domain.RequestRequested && req.RepairerID == nil {
			return s.Accept(ctx, requestID, repairerID)
		}
		if req.RepairerID != nil && *req.RepairerID != repairerID {
			return nil, ErrAssignedElsewhere
		}
		return nil, &InvalidTransitionError{From: req.Status, To: to}

	case domain.RequestCompleted:
		if req.RepairerID != nil && *req.RepairerID != repairerID {
			return nil, ErrAssignedElsewhere
		}
		if req.RepairerID == nil || !domain.RepairerCanTransition(req.Status, to) {
			return nil, &InvalidTransitionError{From: req.Status, To: to}
		}

		completed, err := s.requests.CompleteByRepairer(ctx, requestID, repairerID, time.Now())
		if err != nil {
			return nil, err
		}
		if !completed {
			return nil, ErrConflict
		}

		req, err = s.requests.GetByID(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if s.notifs != nil {
			_ = s.notifs.NotifyRequestCompleted(ctx, req.CustomerID, req)
		}
		if s.settlements != nil {
			_ = s.settlements.CreateForRequest(ctx, req)
		}
		return req, nil

	default:
		return nil, &InvalidTransitionError{From: req.Status, To: to}
	}
}

// GetByID returns full detail to the owning customer, the assigned
// repairer, or an admin; everyone else is refused. List views are the only
// pre-acceptance visibility a repairer gets.
func (s *Service) GetByID(ctx context.Context, requestID, callerID int64, role domain.Role) (*domain.ServiceRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}

	switch {
	case role == domain.RoleAdmin:
	case role == domain.RoleCustomer && req.CustomerID == callerID:
	case role == domain.RoleRepairer && req.RepairerID != nil && *req.RepairerID == callerID:
	default:
		return nil, ErrForbidden
	}

	return req, nil
}

// Rate attaches the customer's post-completion feedback.
func (s *Service) Rate(ctx context.Context, requestID, customerID int64, in RatingInput) (*domain.ServiceRequest, error) {
	if in.Stars < 1 || in.Stars > 5 {
		return nil, &ValidationError{Fields: map[string]string{"stars": "must be between 1 and 5"}}
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.CustomerID != customerID {
		return nil, ErrNotFound
	}
	if req.Status != domain.RequestCompleted {
		return nil, ErrNotCompleted
	}
	if req.Rating != nil {
		return nil, ErrAlreadyRated
	}

	set, err := s.requests.SetRating(ctx, requestID, customerID, in.Stars, strings.TrimSpace(in.Comment))
	if err != nil {
		return nil, err
	}
	if !set {
		return nil, ErrAlreadyRated
	}

	return s.requests.GetByID(ctx, requestID)
}
