package request

type LocationInput struct {
	FullAddress   string   `json:"full_address"`
	Pincode       string   `json:"pincode"`
	CaptureMethod string   `json:"capture_method"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

type TimeSlotInput struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type CreateRequestInput struct {
	Title             string        `json:"title"`
	ServiceType       string        `json:"service_type"`
	Description       string        `json:"description"`
	Urgency           string        `json:"urgency"`
	Budget            float64       `json:"budget"`
	ContactInfo       string        `json:"contact_info"`
	Location          LocationInput `json:"location"`
	PreferredTimeSlot TimeSlotInput `json:"preferred_time_slot"`

	// Direct-booking shortcut: the customer picked a repairer upfront,
	// bypassing the open matching queue.
	RepairerID *int64 `json:"repairer_id"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type RatingInput struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment"`
}

// BrowseQuery is the customer/anonymous open-jobs query. Either a pincode
// or coordinates plus a radius must be supplied.
type BrowseQuery struct {
	Pincode     string
	ServiceType string
	Latitude    *float64
	Longitude   *float64
	RadiusKm    *float64
}
