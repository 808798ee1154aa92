package handler

import (
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

type cabinResponse struct {
	ID                uint64   `json:"id"`
	Number            int      `json:"number"`
	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	Capacity          int      `json:"capacity"`
	WeekdayPriceCents int64    `json:"weekday_price_cents"`
	WeekendPriceCents int64    `json:"weekend_price_cents"`
	AllowsExtraGuests bool     `json:"allows_extra_guests"`
	ImageURL          *string  `json:"image_url,omitempty"`
	FullDescription   *string  `json:"full_description,omitempty"`
	Amenities         []string `json:"amenities"`
	GalleryURLs       []string `json:"gallery_urls"`
	CalendarURL       *string  `json:"calendar_url,omitempty"`
}

// toCabin renders a cabin.  The feed URL is only shown to staff.
func toCabin(c model.Cabin, staff bool) cabinResponse {
	out := cabinResponse{
		ID:                c.ID,
		Number:            c.Number,
		Name:              c.Name,
		Description:       c.Description,
		Capacity:          c.Capacity,
		WeekdayPriceCents: c.WeekdayPriceCents,
		WeekendPriceCents: c.WeekendPriceCents,
		AllowsExtraGuests: c.AllowsExtraGuests,
		ImageURL:          c.ImageURL,
		FullDescription:   c.FullDescription,
		Amenities:         nonNil(c.Amenities),
		GalleryURLs:       nonNil(c.GalleryURLs),
	}
	if staff {
		out.CalendarURL = c.CalendarURL
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type customerResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toCustomer(c model.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, CreatedAt: c.CreatedAt}
}

type reservationResponse struct {
	ID              uint64     `json:"id"`
	CustomerID      uint64     `json:"customer_id"`
	CabinID         uint64     `json:"cabin_id"`
	CheckIn         string     `json:"checkin"`
	CheckOut        string     `json:"checkout"`
	Nights          int        `json:"nights"`
	PaymentMethod   *string    `json:"payment_method,omitempty"`
	TotalCents      *int64     `json:"total_cents"`
	DepositCents    int64      `json:"deposit_cents"`
	DepositPaid     bool       `json:"deposit_paid"`
	FullyPaid       bool       `json:"fully_paid"`
	AmountPaidCents int64      `json:"amount_paid_cents"`
	PaymentStatus   string     `json:"payment_status"`
	Status          string     `json:"status"`
	Origin          string     `json:"origin"`
	ExternalCode    *string    `json:"external_code,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CheckedInAt     *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt    *time.Time `json:"checked_out_at,omitempty"`
	Rating          *int       `json:"rating,omitempty"`
	Feedback        *string    `json:"feedback,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	CustomerName  string  `json:"customer_name,omitempty"`
	CustomerPhone string  `json:"customer_phone,omitempty"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	CabinNumber   int     `json:"cabin_number,omitempty"`
	CabinName     string  `json:"cabin_name,omitempty"`
}

func toReservation(r model.Reservation) reservationResponse {
	return reservationResponse{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		CabinID:         r.CabinID,
		CheckIn:         r.CheckIn.Format(time.DateOnly),
		CheckOut:        r.CheckOut.Format(time.DateOnly),
		Nights:          r.Nights(),
		PaymentMethod:   r.PaymentMethod,
		TotalCents:      r.TotalCents,
		DepositCents:    r.DepositCents,
		DepositPaid:     r.DepositPaid,
		FullyPaid:       r.FullyPaid,
		AmountPaidCents: r.AmountPaidCents,
		PaymentStatus:   r.PaymentStatus,
		Status:          r.Status,
		Origin:          r.Origin,
		ExternalCode:    r.ExternalCode,
		Notes:           r.Notes,
		CheckedInAt:     r.CheckedInAt,
		CheckedOutAt:    r.CheckedOutAt,
		Rating:          r.Rating,
		Feedback:        r.Feedback,
		CreatedAt:       r.CreatedAt,
	}
}

func toReservationView(v repository.ReservationView) reservationResponse {
	out := toReservation(v.Reservation)
	out.CustomerName = v.CustomerName
	out.CustomerPhone = v.CustomerPhone
	out.CustomerEmail = v.CustomerEmail
	out.CabinNumber = v.CabinNumber
	out.CabinName = v.CabinName
	return out
}

type auditResponse struct {
	ID        uint64    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   *string   `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type messageResponse struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	Sender        string    `json:"sender"`
	Body          string    `json:"body"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMessage(m model.Message) messageResponse {
	return messageResponse{ID: m.ID, ReservationID: m.ReservationID, Sender: m.Sender, Body: m.Body, Read: m.Read, CreatedAt: m.CreatedAt}
}
