package domain

import (
	"regexp"
	"time"
)

// RequestStatus is the canonical lifecycle state of a service request.
type RequestStatus string

const (
	RequestRequested  RequestStatus = "requested"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// ParseRequestStatus normalizes a status literal coming from the API.
// "accepted" is a legacy display alias for in_progress.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch s {
	case "requested":
		return RequestRequested, true
	case "in_progress", "accepted":
		return RequestInProgress, true
	case "completed":
		return RequestCompleted, true
	case "cancelled":
		return RequestCancelled, true
	}
	return "", false
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

type ServiceType string

const (
	ServicePlumbing   ServiceType = "plumbing"
	ServiceElectrical ServiceType = "electrical"
	ServiceCarpentry  ServiceType = "carpentry"
	ServicePainting   ServiceType = "painting"
	ServiceAppliance  ServiceType = "appliance_repair"
	ServiceACRepair   ServiceType = "ac_repair"
	ServiceCleaning   ServiceType = "cleaning"
	ServicePestCtrl   ServiceType = "pest_control"
)

// ServiceTypes is the fixed catalog of trades a repairer can register for.
var ServiceTypes = []ServiceType{
	ServicePlumbing,
	ServiceElectrical,
	ServiceCarpentry,
	ServicePainting,
	ServiceAppliance,
	ServiceACRepair,
	ServiceCleaning,
	ServicePestCtrl,
}

func IsValidServiceType(s string) bool {
	for _, t := range ServiceTypes {
		if string(t) == s {
			return true
		}
	}
	return false
}

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

func IsValidUrgency(s string) bool {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyEmergency:
		return true
	}
	return false
}

var pincodeRegex = regexp.MustCompile(`^\d{6}$`)

// IsValidPincode reports whether s is a 6-digit postal code.
func IsValidPincode(s string) bool {
	return pincodeRegex.MatchString(s)
}

// PincodePrefix returns the 4-digit proximity prefix of a postal code.
// The leading 4 digits of a 6-digit pincode approximate same-district
// proximity without any geocoding.
func PincodePrefix(pincode string) string {
	if len(pincode) < 4 {
		return pincode
	}
	return pincode[:4]
}

// Location is where the work has to happen.
type Location struct {
	FullAddress   string   `json:"full_address"`
	Pincode       string   `json:"pincode"`
	CaptureMethod string   `json:"capture_method"` // manual | gps
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

// TimeSlot is the customer's preferred visit window.
type TimeSlot struct {
	Date string `json:"date"` // 2006-01-02
	Time string `json:"time"` // 15:04
}

// Rating is post-completion feedback left by the customer.
type Rating struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

// ServiceRequest is the central marketplace entity. A request is created by
// exactly one customer, assigned to at most one repairer for its whole
// lifetime, and never physically deleted.
type ServiceRequest struct {
	ID          int64       `json:"id"`
	CustomerID  int64       `json:"customer_id"`
	RepairerID  *int64      `json:"repairer_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	ServiceType ServiceType `json:"service_type"`
	Urgency     Urgency     `json:"urgency"`
	Budget      float64     `json:"budget"`
	ContactInfo string      `json:"contact_info"`

	Location          Location `json:"location"`
	PreferredTimeSlot TimeSlot `json:"preferred_time_slot"`

	Status      RequestStatus `json:"status"`
	AssignedAt  *time.Time    `json:"assigned_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Rating      *Rating       `json:"rating,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Display-only party info, populated by list/detail queries.
	// Never carries more than name and phone of the counterparty.
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	RepairerName  string `json:"repairer_name,omitempty"`
	RepairerPhone string `json:"repairer_phone,omitempty"`
}

// customerTransitions is the legal transition table for the owning customer.
var customerTransitions = map[RequestStatus][]RequestStatus{
	RequestRequested:  {RequestCancelled},
	RequestInProgress: {RequestCancelled, RequestCompleted},
}

// repairerTransitions is the legal transition table for a repairer.
// Assignment identity is checked separately by the service layer.
var repairerTransitions = map[RequestStatus][]RequestStatus{
	RequestRequested:  {RequestInProgress},
	RequestInProgress: {RequestCompleted},
}

func transitionAllowed(table map[RequestStatus][]RequestStatus, from, to RequestStatus) bool {
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CustomerCanTransition reports whether the owning customer may move a
// request from one status to another.
func CustomerCanTransition(from, to RequestStatus) bool {
	return transitionAllowed(customerTransitions, from, to)
}

// RepairerCanTransition reports whether a repairer may move a request from
// one status to another.
func RepairerCanTransition(from, to RequestStatus) bool {
	return transitionAllowed(repairerTransitions, from, to)
}
