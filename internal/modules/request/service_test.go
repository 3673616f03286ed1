package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fixhub/internal/domain"
	"fixhub/internal/repository"
)

// Mock repositories

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	args := m.Called(ctx, req)
	if req != nil {
		req.ID = 101 // simulate DB insert
	}
	return args.Error(0)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id int64) (*domain.ServiceRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) Assign(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, requestID, repairerID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatusByCustomer(ctx context.Context, requestID, customerID int64, from, to domain.RequestStatus, now time.Time) (bool, error) {
	args := m.Called(ctx, requestID, customerID, from, to, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) CompleteByRepairer(ctx context.Context, requestID, repairerID int64, now time.Time) (bool, error) {
	args := m.Called(ctx, requestID, repairerID, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) SetRating(ctx context.Context, requestID, customerID int64, stars int, comment string) (bool, error) {
	args := m.Called(ctx, requestID, customerID, stars, comment)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) ListMatching(ctx context.Context, f repository.MatchFilter) ([]domain.ServiceRequest, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListOpenByPincode(ctx context.Context, prefix, serviceType string) ([]domain.ServiceRequest, error) {
	args := m.Called(ctx, prefix, serviceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListOpenWithCoordinates(ctx context.Context, serviceType string) ([]domain.ServiceRequest, error) {
	args := m.Called(ctx, serviceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceRequest), args.Error(1)
}

func (m *MockRequestRepository) ListByCustomer(ctx context.Context, customerID int64, status *domain.RequestStatus) ([]domain.ServiceRequest, error) {
	args := m.Called(ctx, customerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ServiceRequest), args.Error(1)
}

type MockProfileReader struct {
	mock.Mock
}

func (m *MockProfileReader) GetByUserID(ctx context.Context, userID int64) (*domain.RepairerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RepairerProfile), args.Error(1)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) NotifyDirectBooking(ctx context.Context, repairerID int64, req *domain.ServiceRequest) error {
	args := m.Called(ctx, repairerID, req)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyRequestAccepted(ctx context.Context, customerID int64, req *domain.ServiceRequest) error {
	args := m.Called(ctx, customerID, req)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyRequestCompleted(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error {
	args := m.Called(ctx, recipientID, req)
	return args.Error(0)
}

func (m *MockNotificationSender) NotifyRequestCancelled(ctx context.Context, recipientID int64, req *domain.ServiceRequest) error {
	args := m.Called(ctx, recipientID, req)
	return args.Error(0)
}

type MockConversationEnsurer struct {
	mock.Mock
}

func (m *MockConversationEnsurer) EnsureForRequest(ctx context.Context, requestID, customerID, repairerID int64) (*domain.Conversation, error) {
	args := m.Called(ctx, requestID, customerID, repairerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

type MockSettlementRecorder struct {
	mock.Mock
}

func (m *MockSettlementRecorder) CreateForRequest(ctx context.Context, req *domain.ServiceRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func newTestService(reqs *MockRequestRepository) (*Service, *MockProfileReader, *MockUserReader, *MockNotificationSender, *MockConversationEnsurer, *MockSettlementRecorder) {
	profiles := new(MockProfileReader)
	users := new(MockUserReader)
	notifs := new(MockNotificationSender)
	convos := new(MockConversationEnsurer)
	settlements := new(MockSettlementRecorder)
	return NewService(reqs, profiles, users, notifs, convos, settlements), profiles, users, notifs, convos, settlements
}

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		Title:       "Kitchen sink leaking",
		ServiceType: "plumbing",
		Description: "Water pooling under the sink",
		Urgency:     "high",
		Budget:      800,
		ContactInfo: "+91 98450 12345",
		Location: LocationInput{
			FullAddress:   "42 Koramangala 4th Block, Bengaluru",
			Pincode:       "560034",
			CaptureMethod: "manual",
		},
		PreferredTimeSlot: TimeSlotInput{Date: "2026-09-15", Time: "10:00"},
	}
}

func TestService_Create_Success(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	mockReqs.On("Create", mock.Anything, mock.Anything).Return(nil)

	req, err := service.Create(context.Background(), 7, validCreateInput())

	assert.NoError(t, err)
	assert.NotNil(t, req)
	assert.Equal(t, int64(7), req.CustomerID)
	assert.Equal(t, domain.RequestRequested, req.Status)
	assert.Nil(t, req.RepairerID)
	assert.Equal(t, domain.UrgencyHigh, req.Urgency)
}

func TestService_Create_DefaultsUrgencyToMedium(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	mockReqs.On("Create", mock.Anything, mock.Anything).Return(nil)

	in := validCreateInput()
	in.Urgency = ""
	req, err := service.Create(context.Background(), 7, in)

	assert.NoError(t, err)
	assert.Equal(t, domain.UrgencyMedium, req.Urgency)
}

func TestService_Create_ValidationEnumeratesAllMissingFields(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	_, err := service.Create(context.Background(), 7, CreateRequestInput{})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	for _, field := range []string{
		"title", "service_type", "description",
		"location.full_address", "location.pincode", "location.capture_method",
		"preferred_time_slot.date", "preferred_time_slot.time",
		"budget", "contact_info",
	} {
		assert.Contains(t, verr.Fields, field)
	}
	mockReqs.AssertNotCalled(t, "Create")
}

func TestService_Create_RejectsBadPincodeAndSlot(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	in := validCreateInput()
	in.Location.Pincode = "56003"
	in.PreferredTimeSlot.Date = "15-09-2026"
	in.PreferredTimeSlot.Time = "10am"

	_, err := service.Create(context.Background(), 7, in)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "location.pincode")
	assert.Contains(t, verr.Fields, "preferred_time_slot.date")
	assert.Contains(t, verr.Fields, "preferred_time_slot.time")
}

func TestService_Create_DirectBooking(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, users, notifs, convos, _ := newTestService(mockReqs)

	users.On("GetByID", mock.Anything, int64(42)).
		Return(&domain.User{ID: 42, Role: domain.RoleRepairer}, nil)
	mockReqs.On("Create", mock.Anything, mock.Anything).Return(nil)
	notifs.On("NotifyDirectBooking", mock.Anything, int64(42), mock.Anything).Return(nil)
	convos.On("EnsureForRequest", mock.Anything, int64(101), int64(7), int64(42)).
		Return(&domain.Conversation{ID: 1}, nil)

	in := validCreateInput()
	rid := int64(42)
	in.RepairerID = &rid

	req, err := service.Create(context.Background(), 7, in)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestInProgress, req.Status)
	if assert.NotNil(t, req.RepairerID) {
		assert.Equal(t, int64(42), *req.RepairerID)
	}
	assert.NotNil(t, req.AssignedAt)
	notifs.AssertExpectations(t)
	convos.AssertExpectations(t)
}

func TestService_Create_DirectBookingUnknownRepairer(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, users, _, _, _ := newTestService(mockReqs)

	users.On("GetByID", mock.Anything, int64(42)).
		Return(&domain.User{ID: 42, Role: domain.RoleCustomer}, nil)

	in := validCreateInput()
	rid := int64(42)
	in.RepairerID = &rid

	_, err := service.Create(context.Background(), 7, in)

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "repairer_id")
	mockReqs.AssertNotCalled(t, "Create")
}

func TestService_Accept_Success(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, convos, _ := newTestService(mockReqs)

	open := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestRequested}
	rid := int64(42)
	assigned := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(open, nil).Once()
	mockReqs.On("Assign", mock.Anything, int64(101), int64(42), mock.Anything).Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(assigned, nil).Once()
	notifs.On("NotifyRequestAccepted", mock.Anything, int64(7), assigned).Return(nil)
	convos.On("EnsureForRequest", mock.Anything, int64(101), int64(7), int64(42)).
		Return(&domain.Conversation{ID: 1}, nil)

	req, err := service.Accept(context.Background(), 101, 42)

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestInProgress, req.Status)
	notifs.AssertExpectations(t)
}

func TestService_Accept_AlreadyAssigned(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	other := int64(9)
	taken := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &other, Status: domain.RequestInProgress}
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(taken, nil)

	_, err := service.Accept(context.Background(), 101, 42)

	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	mockReqs.AssertNotCalled(t, "Assign")
}

func TestService_Accept_LosesRace(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, _, _ := newTestService(mockReqs)

	open := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestRequested}
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(open, nil)
	// Another repairer won between the read and the conditional update.
	mockReqs.On("Assign", mock.Anything, int64(101), int64(42), mock.Anything).Return(false, nil)

	_, err := service.Accept(context.Background(), 101, 42)

	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	notifs.AssertNotCalled(t, "NotifyRequestAccepted")
}

func TestService_Accept_NotFound(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	mockReqs.On("GetByID", mock.Anything, int64(404)).Return(nil, nil)

	_, err := service.Accept(context.Background(), 404, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListForRepairer_RequiresProfile(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, profiles, _, _, _, _ := newTestService(mockReqs)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(nil, nil)

	_, err := service.ListForRepairer(context.Background(), 42, "", "")

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "profile")
}

func TestService_ListForRepairer_BuildsMatchFilter(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, profiles, _, _, _, _ := newTestService(mockReqs)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(&domain.RepairerProfile{
		UserID:   42,
		Services: []string{"plumbing", "electrical"},
		Pincode:  "560034",
	}, nil)

	want := repository.MatchFilter{
		RepairerID:    42,
		Services:      []string{"plumbing", "electrical"},
		PincodePrefix: "5600",
	}
	mockReqs.On("ListMatching", mock.Anything, want).Return([]domain.ServiceRequest{{ID: 101}}, nil)

	out, err := service.ListForRepairer(context.Background(), 42, "", "")

	assert.NoError(t, err)
	assert.Len(t, out, 1)
	mockReqs.AssertExpectations(t)
}

func TestService_ListForRepairer_StatusFilterAcceptsAlias(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, profiles, _, _, _, _ := newTestService(mockReqs)

	profiles.On("GetByUserID", mock.Anything, int64(42)).Return(&domain.RepairerProfile{
		UserID:   42,
		Services: []string{"plumbing"},
		Pincode:  "560034",
	}, nil)

	inProgress := domain.RequestInProgress
	want := repository.MatchFilter{
		RepairerID:    42,
		Services:      []string{"plumbing"},
		PincodePrefix: "5600",
		Status:        &inProgress,
	}
	mockReqs.On("ListMatching", mock.Anything, want).Return([]domain.ServiceRequest{}, nil)

	// "accepted" is the legacy client spelling of in_progress.
	_, err := service.ListForRepairer(context.Background(), 42, "accepted", "")

	assert.NoError(t, err)
	mockReqs.AssertExpectations(t)
}

func TestService_BrowseOpen_ByPincode(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	mockReqs.On("ListOpenByPincode", mock.Anything, "5600", "plumbing").
		Return([]domain.ServiceRequest{{ID: 101}}, nil)

	out, err := service.BrowseOpen(context.Background(), BrowseQuery{Pincode: "560034", ServiceType: "plumbing"})

	assert.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestService_BrowseOpen_ByCoordinates(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	near := func(v float64) *float64 { return &v }
	rows := []domain.ServiceRequest{
		{ID: 1, Location: domain.Location{Latitude: near(12.935), Longitude: near(77.624)}},
		{ID: 2, Location: domain.Location{Latitude: near(28.633), Longitude: near(77.220)}}, // ~1700km away
		{ID: 3}, // no coordinates captured
	}
	mockReqs.On("ListOpenWithCoordinates", mock.Anything, "").Return(rows, nil)

	lat, lng, radius := 12.934, 77.626, 5.0
	out, err := service.BrowseOpen(context.Background(), BrowseQuery{Latitude: &lat, Longitude: &lng, RadiusKm: &radius})

	assert.NoError(t, err)
	if assert.Len(t, out, 1) {
		assert.Equal(t, int64(1), out[0].ID)
	}
}

func TestService_BrowseOpen_NeedsPincodeOrCoordinates(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	_, err := service.BrowseOpen(context.Background(), BrowseQuery{})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "pincode")
}

func TestService_UpdateStatusAsCustomer_Cancel(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, _, _ := newTestService(mockReqs)

	rid := int64(42)
	active := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}
	cancelled := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestCancelled}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(active, nil).Once()
	mockReqs.On("UpdateStatusByCustomer", mock.Anything, int64(101), int64(7),
		domain.RequestInProgress, domain.RequestCancelled, mock.Anything).Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(cancelled, nil).Once()
	notifs.On("NotifyRequestCancelled", mock.Anything, int64(42), cancelled).Return(nil)

	req, err := service.UpdateStatusAsCustomer(context.Background(), 101, 7, "cancelled")

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, req.Status)
	notifs.AssertExpectations(t)
}

func TestService_UpdateStatusAsCustomer_CompleteOpensSettlement(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, _, settlements := newTestService(mockReqs)

	rid := int64(42)
	active := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}
	done := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestCompleted}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(active, nil).Once()
	mockReqs.On("UpdateStatusByCustomer", mock.Anything, int64(101), int64(7),
		domain.RequestInProgress, domain.RequestCompleted, mock.Anything).Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(done, nil).Once()
	notifs.On("NotifyRequestCompleted", mock.Anything, int64(42), done).Return(nil)
	settlements.On("CreateForRequest", mock.Anything, done).Return(nil)

	_, err := service.UpdateStatusAsCustomer(context.Background(), 101, 7, "completed")

	assert.NoError(t, err)
	settlements.AssertExpectations(t)
}

func TestService_UpdateStatusAsCustomer_NotOwnerLooksLikeNotFound(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	mockReqs.On("GetByID", mock.Anything, int64(101)).
		Return(&domain.ServiceRequest{ID: 101, CustomerID: 8, Status: domain.RequestRequested}, nil)

	_, err := service.UpdateStatusAsCustomer(context.Background(), 101, 7, "cancelled")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdateStatusAsCustomer_TransitionTable(t *testing.T) {
	cases := []struct {
		name string
		from domain.RequestStatus
		to   string
		ok   bool
	}{
		{"requested to cancelled", domain.RequestRequested, "cancelled", true},
		{"requested to completed", domain.RequestRequested, "completed", false},
		{"in_progress to completed", domain.RequestInProgress, "completed", true},
		{"in_progress to cancelled", domain.RequestInProgress, "cancelled", true},
		{"completed to cancelled", domain.RequestCompleted, "cancelled", false},
		{"cancelled to requested", domain.RequestCancelled, "requested", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockReqs := new(MockRequestRepository)
			service, _, _, notifs, _, settlements := newTestService(mockReqs)

			cur := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: tc.from}
			mockReqs.On("GetByID", mock.Anything, int64(101)).Return(cur, nil)
			if tc.ok {
				to, _ := domain.ParseRequestStatus(tc.to)
				mockReqs.On("UpdateStatusByCustomer", mock.Anything, int64(101), int64(7),
					tc.from, to, mock.Anything).Return(true, nil)
				notifs.On("NotifyRequestCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
				notifs.On("NotifyRequestCancelled", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
				settlements.On("CreateForRequest", mock.Anything, mock.Anything).Return(nil).Maybe()
			}

			_, err := service.UpdateStatusAsCustomer(context.Background(), 101, 7, tc.to)

			if tc.ok {
				assert.NoError(t, err)
			} else {
				var terr *InvalidTransitionError
				assert.ErrorAs(t, err, &terr)
				assert.Equal(t, tc.from, terr.From)
			}
		})
	}
}

func TestService_UpdateStatusAsRepairer_AcceptedAliasTriggersAccept(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, convos, _ := newTestService(mockReqs)

	open := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestRequested}
	rid := int64(42)
	assigned := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(open, nil).Twice()
	mockReqs.On("Assign", mock.Anything, int64(101), int64(42), mock.Anything).Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(assigned, nil).Once()
	notifs.On("NotifyRequestAccepted", mock.Anything, int64(7), assigned).Return(nil)
	convos.On("EnsureForRequest", mock.Anything, int64(101), int64(7), int64(42)).
		Return(&domain.Conversation{ID: 1}, nil)

	req, err := service.UpdateStatusAsRepairer(context.Background(), 101, 42, "accepted")

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestInProgress, req.Status)
}

func TestService_UpdateStatusAsRepairer_AssignedElsewhere(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	other := int64(9)
	taken := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &other, Status: domain.RequestInProgress}
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(taken, nil)

	_, err := service.UpdateStatusAsRepairer(context.Background(), 101, 42, "completed")
	assert.ErrorIs(t, err, ErrAssignedElsewhere)
}

func TestService_UpdateStatusAsRepairer_Complete(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, notifs, _, settlements := newTestService(mockReqs)

	rid := int64(42)
	active := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}
	done := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestCompleted}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(active, nil).Once()
	mockReqs.On("CompleteByRepairer", mock.Anything, int64(101), int64(42), mock.Anything).Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(done, nil).Once()
	notifs.On("NotifyRequestCompleted", mock.Anything, int64(7), done).Return(nil)
	settlements.On("CreateForRequest", mock.Anything, done).Return(nil)

	req, err := service.UpdateStatusAsRepairer(context.Background(), 101, 42, "completed")

	assert.NoError(t, err)
	assert.Equal(t, domain.RequestCompleted, req.Status)
	settlements.AssertExpectations(t)
}

func TestService_UpdateStatusAsRepairer_CannotCancel(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	rid := int64(42)
	active := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(active, nil)

	_, err := service.UpdateStatusAsRepairer(context.Background(), 101, 42, "cancelled")

	var terr *InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
}

func TestService_GetByID_Visibility(t *testing.T) {
	rid := int64(42)
	req := &domain.ServiceRequest{ID: 101, CustomerID: 7, RepairerID: &rid, Status: domain.RequestInProgress}

	cases := []struct {
		name    string
		caller  int64
		role    domain.Role
		allowed bool
	}{
		{"owning customer", 7, domain.RoleCustomer, true},
		{"other customer", 8, domain.RoleCustomer, false},
		{"assigned repairer", 42, domain.RoleRepairer, true},
		{"other repairer", 43, domain.RoleRepairer, false},
		{"admin", 1, domain.RoleAdmin, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockReqs := new(MockRequestRepository)
			service, _, _, _, _, _ := newTestService(mockReqs)
			mockReqs.On("GetByID", mock.Anything, int64(101)).Return(req, nil)

			got, err := service.GetByID(context.Background(), 101, tc.caller, tc.role)

			if tc.allowed {
				assert.NoError(t, err)
				assert.Equal(t, req, got)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestService_Rate_Success(t *testing.T) {
	mockReqs := new(MockRequestRepository)
	service, _, _, _, _, _ := newTestService(mockReqs)

	done := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestCompleted}
	rated := &domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestCompleted,
		Rating: &domain.Rating{Stars: 5, Comment: "quick and tidy"}}

	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(done, nil).Once()
	mockReqs.On("SetRating", mock.Anything, int64(101), int64(7), 5, "quick and tidy").Return(true, nil)
	mockReqs.On("GetByID", mock.Anything, int64(101)).Return(rated, nil).Once()

	req, err := service.Rate(context.Background(), 101, 7, RatingInput{Stars: 5, Comment: "quick and tidy"})

	assert.NoError(t, err)
	if assert.NotNil(t, req.Rating) {
		assert.Equal(t, 5, req.Rating.Stars)
	}
}

func TestService_Rate_Guards(t *testing.T) {
	t.Run("stars out of range", func(t *testing.T) {
		mockReqs := new(MockRequestRepository)
		service, _, _, _, _, _ := newTestService(mockReqs)

		_, err := service.Rate(context.Background(), 101, 7, RatingInput{Stars: 6})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("not completed", func(t *testing.T) {
		mockReqs := new(MockRequestRepository)
		service, _, _, _, _, _ := newTestService(mockReqs)

		mockReqs.On("GetByID", mock.Anything, int64(101)).
			Return(&domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestInProgress}, nil)

		_, err := service.Rate(context.Background(), 101, 7, RatingInput{Stars: 4})
		assert.ErrorIs(t, err, ErrNotCompleted)
	})

	t.Run("already rated", func(t *testing.T) {
		mockReqs := new(MockRequestRepository)
		service, _, _, _, _, _ := newTestService(mockReqs)

		mockReqs.On("GetByID", mock.Anything, int64(101)).
			Return(&domain.ServiceRequest{ID: 101, CustomerID: 7, Status: domain.RequestCompleted,
				Rating: &domain.Rating{Stars: 3}}, nil)

		_, err := service.Rate(context.Background(), 101, 7, RatingInput{Stars: 4})
		assert.ErrorIs(t, err, ErrAlreadyRated)
	})

	t.Run("not owner", func(t *testing.T) {
		mockReqs := new(MockRequestRepository)
		service, _, _, _, _, _ := newTestService(mockReqs)

		mockReqs.On("GetByID", mock.Anything, int64(101)).
			Return(&domain.ServiceRequest{ID: 101, CustomerID: 8, Status: domain.RequestCompleted}, nil)

		_, err := service.Rate(context.Background(), 101, 7, RatingInput{Stars: 4})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
