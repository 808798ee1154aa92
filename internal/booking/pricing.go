package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// ExtraAdultSurchargeCents is charged per night for every adult beyond
// the second on cabins that accept extra guests.
const ExtraAdultSurchargeCents int64 = 35000

// includedAdults is the occupancy covered by the nightly rate.
const includedAdults = 2

const (
	// MaxNights is the longest stay that can be priced or booked.
	MaxNights = 365
	// MaxGuests bounds the adult and children counts of a stay.
	MaxGuests = 20
)

const secondsPerDay = 24 * 60 * 60

// Quote is the price of a stay.  Deposit is always half of the total.
type Quote struct {
	TotalCents   int64 `json:"total_cents"`
	DepositCents int64 `json:"deposit_cents"`
	Nights       int   `json:"nights"`
}

// MarshalJSON adds decimal total and deposit next to the cent amounts.
func (q Quote) MarshalJSON() ([]byte, error) {
	type cents Quote
	return json.Marshal(struct {
		cents
		Total   json.Number `json:"total"`
		Deposit json.Number `json:"deposit"`
	}{cents(q), decimal(q.TotalCents), decimal(q.DepositCents)})
}

// decimal renders an amount of cents as a number with two decimals.
func decimal(cents int64) json.Number {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return json.Number(fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100))
}

// Night is the price of a single night of a stay.
type Night struct {
	Date       time.Time
	Weekend    bool
	RateCents  int64
	ExtraCents int64
}

// IsWeekendNight reports whether the night starting on d is billed at the
// weekend rate.  Friday and Saturday nights are weekend nights.
func IsWeekendNight(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Friday || wd == time.Saturday
}

// NightsBetween counts the calendar nights of [checkIn, checkOut).
// Inverted ranges count as zero.
func NightsBetween(checkIn, checkOut time.Time) int {
	n := (day(checkOut).Unix() - day(checkIn).Unix()) / secondsPerDay
	if n < 0 {
		return 0
	}
	return int(n)
}

// Breakdown lists the nights of [checkIn, checkOut) with their prices.
// An empty or inverted range yields no nights, as do stays longer than
// MaxNights and adult counts outside [0, MaxGuests].
func Breakdown(c model.Cabin, checkIn, checkOut time.Time, adults int) []Night {
	in, out := day(checkIn), day(checkOut)
	count := NightsBetween(in, out)
	if count == 0 || count > MaxNights || adults < 0 || adults > MaxGuests {
		return nil
	}
	extra := int64(0)
	if c.AllowsExtraGuests && adults > includedAdults {
		extra = int64(adults-includedAdults) * ExtraAdultSurchargeCents
	}
	nights := make([]Night, 0, count)
	for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
		n := Night{Date: d, Weekend: IsWeekendNight(d), RateCents: c.WeekdayPriceCents, ExtraCents: extra}
		if n.Weekend {
			n.RateCents = c.WeekendPriceCents
		}
		nights = append(nights, n)
	}
	return nights
}

// Price computes the quote of a stay.  It is a pure function of its
// arguments.  An empty or inverted range prices to the zero Quote, as
// does anything Breakdown refuses.  Children do not change the price.
func Price(c model.Cabin, checkIn, checkOut time.Time, adults, children int) Quote {
	_ = children
	nights := Breakdown(c, checkIn, checkOut, adults)
	if len(nights) == 0 {
		return Quote{}
	}
	var total int64
	for _, n := range nights {
		total += n.RateCents + n.ExtraCents
	}
	return Quote{TotalCents: total, DepositCents: depositFor(total), Nights: len(nights)}
}

// depositFor is half of total, rounding an odd cent up.
func depositFor(total int64) int64 {
	if total < 0 {
		return 0
	}
	return total/2 + total%2
}

// Quote prices a stay for a stored cabin.  Unknown cabins, invalid
// ranges and stays over MaxNights degrade to the zero Quote.  Guest
// counts outside [0, MaxGuests] are a ValidationError.
func (s *Service) Quote(ctx context.Context, cabinID uint64, checkIn, checkOut time.Time, adults, children int) (Quote, error) {
	if err := validateGuests(adults, children); err != nil {
		return Quote{}, err
	}
	if n := NightsBetween(checkIn, checkOut); n == 0 || n > MaxNights {
		return Quote{}, nil
	}
	var q Quote
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Queries) error {
		c, err := tx.Cabin(ctx, cabinID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}
		q = Price(*c, checkIn, checkOut, adults, children)
		return nil
	})
	if err != nil {
		return Quote{}, err
	}
	return q, nil
}

// day truncates t to its calendar date in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
