package booking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cabin-booking/internal/model"
)

var cabinOne = model.Cabin{ID: 1, Number: 1, WeekdayPriceCents: 49000, WeekendPriceCents: 69000}

func TestPrice_FridayToMonday(t *testing.T) {
	q := Price(cabinOne, d("2026-05-01"), d("2026-05-04"), 2, 0)

	assert.Equal(t, Quote{TotalCents: 187000, DepositCents: 93500, Nights: 3}, q)
}

func TestPrice_WeekendBoundary(t *testing.T) {
	friday := Price(cabinOne, d("2026-05-01"), d("2026-05-02"), 2, 0)
	saturday := Price(cabinOne, d("2026-05-02"), d("2026-05-03"), 2, 0)
	sunday := Price(cabinOne, d("2026-05-03"), d("2026-05-04"), 2, 0)

	assert.Equal(t, int64(69000), friday.TotalCents)
	assert.Equal(t, int64(69000), saturday.TotalCents)
	assert.Equal(t, int64(49000), sunday.TotalCents)
	assert.True(t, IsWeekendNight(d("2026-05-01")))
	assert.False(t, IsWeekendNight(d("2026-05-03")))
}

func TestPrice_DegradesToZero(t *testing.T) {
	assert.Equal(t, Quote{}, Price(cabinOne, d("2026-05-01"), d("2026-05-01"), 2, 0))
	assert.Equal(t, Quote{}, Price(cabinOne, d("2026-05-04"), d("2026-05-01"), 2, 0))
}

func TestPrice_Deterministic(t *testing.T) {
	a := Price(cabinOne, d("2026-07-10"), d("2026-07-20"), 3, 1)
	b := Price(cabinOne, d("2026-07-10"), d("2026-07-20"), 3, 1)
	assert.Equal(t, a, b)
}

func TestPrice_ExtraAdults(t *testing.T) {
	flexible := cabinOne
	flexible.AllowsExtraGuests = true

	// Monday and Tuesday nights.
	withSurcharge := Price(flexible, d("2026-05-04"), d("2026-05-06"), 4, 2)
	assert.Equal(t, int64(2*49000+2*2*ExtraAdultSurchargeCents), withSurcharge.TotalCents)
	assert.Equal(t, withSurcharge.TotalCents/2, withSurcharge.DepositCents)

	notAllowed := Price(cabinOne, d("2026-05-04"), d("2026-05-06"), 4, 2)
	assert.Equal(t, int64(2*49000), notAllowed.TotalCents)

	twoAdults := Price(flexible, d("2026-05-04"), d("2026-05-06"), 2, 3)
	assert.Equal(t, int64(2*49000), twoAdults.TotalCents, "children never add a surcharge")
}

func TestBreakdown(t *testing.T) {
	nights := Breakdown(cabinOne, d("2026-05-01"), d("2026-05-04"), 2)
	require.Len(t, nights, 3)
	assert.True(t, nights[0].Weekend)
	assert.True(t, nights[1].Weekend)
	assert.False(t, nights[2].Weekend)
	assert.Equal(t, d("2026-05-03"), nights[2].Date)
}

func TestServiceQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, f.cabin.ID, d("2026-05-01"), d("2026-05-04"), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, Quote{TotalCents: 187000, DepositCents: 93500, Nights: 3}, q)

	q, err = f.svc.Quote(ctx, 999, d("2026-05-01"), d("2026-05-04"), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, Quote{}, q, "unknown cabin degrades to zero")

	q, err = f.svc.Quote(ctx, f.cabin.ID, d("2026-05-04"), d("2026-05-04"), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, Quote{}, q)
}

func TestPrice_GuestCountsOutOfRange(t *testing.T) {
	flexible := cabinOne
	flexible.AllowsExtraGuests = true

	assert.Equal(t, Quote{}, Price(flexible, d("2026-05-04"), d("2026-05-05"), 1<<62, 0))
	assert.Equal(t, Quote{}, Price(flexible, d("2026-05-04"), d("2026-05-05"), -3, 0))

	most := Price(flexible, d("2026-05-04"), d("2026-05-05"), MaxGuests, 0)
	assert.Equal(t, 49000+int64(MaxGuests-2)*ExtraAdultSurchargeCents, most.TotalCents)
}

func TestPrice_StayLength(t *testing.T) {
	in := d("2026-05-04")

	longest := Price(cabinOne, in, in.AddDate(0, 0, MaxNights), 2, 0)
	assert.Equal(t, MaxNights, longest.Nights)

	assert.Equal(t, Quote{}, Price(cabinOne, in, in.AddDate(0, 0, MaxNights+1), 2, 0))
	assert.Equal(t, Quote{}, Price(cabinOne, d("0001-01-01"), d("9999-12-31"), 2, 0))
	assert.Nil(t, Breakdown(cabinOne, d("0001-01-01"), d("9999-12-31"), 2))
}

func TestNightsBetween(t *testing.T) {
	assert.Equal(t, 3, NightsBetween(d("2026-05-01"), d("2026-05-04")))
	assert.Equal(t, 0, NightsBetween(d("2026-05-04"), d("2026-05-01")))
	// Longer than time.Duration can hold.
	assert.Equal(t, 3652058, NightsBetween(d("0001-01-01"), d("9999-12-31")))
	// Wall-clock times inside the day are ignored.
	late := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, NightsBetween(late, d("2026-05-02")))
}

func TestDepositRoundsOddCentUp(t *testing.T) {
	assert.Equal(t, int64(6173), depositFor(12345))
	assert.Equal(t, int64(93500), depositFor(187000))
	assert.Equal(t, int64(1), depositFor(1))
	assert.Equal(t, int64(0), depositFor(0))
}

func TestQuoteJSON(t *testing.T) {
	raw, err := json.Marshal(Quote{TotalCents: 187005, DepositCents: 93503, Nights: 3})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.EqualValues(t, 187005, got["total_cents"])
	assert.EqualValues(t, 93503, got["deposit_cents"])
	assert.EqualValues(t, 3, got["nights"])
	assert.Equal(t, 1870.05, got["total"])
	assert.Equal(t, 935.03, got["deposit"])
	assert.Contains(t, string(raw), `"total":1870.05`)
	assert.Contains(t, string(raw), `"deposit":935.03`)
}

func TestServiceQuote_Bounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Quote(ctx, f.cabin.ID, d("2026-05-04"), d("2026-05-05"), MaxGuests+1, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Quote(ctx, f.cabin.ID, d("2026-05-04"), d("2026-05-05"), 2, -1)
	assert.ErrorIs(t, err, ErrValidation)

	q, err := f.svc.Quote(ctx, f.cabin.ID, d("0001-01-01"), d("9999-12-31"), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, Quote{}, q, "overlong stays degrade to zero")
}
