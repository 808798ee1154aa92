package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cabin-booking/internal/logger/sl"
	"github.com/iliyamo/cabin-booking/internal/model"
	"github.com/iliyamo/cabin-booking/internal/queue"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

// Source identifies the adapter an external batch came from.
type Source string

const (
	// SourceCSV is a reservations export uploaded by staff.  Rows carry
	// guest identity, a unit reference and a confirmation code.
	SourceCSV Source = "csv"
	// SourceCalendar is a cabin's iCal feed.  Events are anonymous and
	// always belong to the cabin the feed is configured on.
	SourceCalendar Source = "calendar"
)

// ActorImport is recorded as the actor of background imports.
const ActorImport = "import"

// confirmedStatuses lists the platform statuses that denote a real
// booking.  Rows with any other non-empty status are skipped.
var confirmedStatuses = map[string]struct{}{
	"confirmada": {},
	"confirmado": {},
	"concluída":  {},
	"concluida":  {},
	"confirmed":  {},
	"completed":  {},
}

// ExternalEvent is one normalized booking from an adapter.
type ExternalEvent struct {
	GuestName    string
	Phone        string
	CheckIn      time.Time
	CheckOut     time.Time
	UnitRef      string
	ExternalCode string
	Earnings     string
	RawStatus    string
	Summary      string
}

// Batch is the unit of ingestion.  CabinID is required for calendar
// batches.  Malformed counts rows the adapter could not turn into events.
// Actor defaults to ActorImport.
type Batch struct {
	Source    Source
	CabinID   uint64
	Actor     string
	Events    []ExternalEvent
	Malformed int
}

// IngestResult aggregates the per-row outcomes of a batch.  Updated
// counts every reservation written, new or existing; Created is the new
// subset.  Ignored rows named no mapped unit, Skipped rows were not
// confirmed bookings and Errors rows failed.
type IngestResult struct {
	BatchID string `json:"batch_id"`
	Updated int    `json:"updated"`
	Created int    `json:"created"`
	Ignored int    `json:"ignored"`
	Skipped int    `json:"skipped"`
	Errors  int    `json:"errors"`
}

type rowOutcome int

const (
	rowUpdated rowOutcome = iota
	rowCreated
	rowIgnored
	rowSkipped
)

// errRow marks a row rejected by the reconciler itself.
var errRow = errors.New("malformed row")

// Ingest merges a batch of external bookings into the reservation set in
// a single unit of work.  Rows are matched against earlier imports so
// that re-running a batch updates instead of duplicating.  A failing row
// is counted and the batch goes on.  No overlap check runs: the platform
// is authoritative for the bookings it reports.
func (s *Service) Ingest(ctx context.Context, batch Batch) (IngestResult, error) {
	const op = "booking.Ingest"

	res := IngestResult{BatchID: uuid.NewString(), Errors: batch.Malformed}
	log := s.log.With(slog.String("op", op), slog.String("batch_id", res.BatchID), slog.String("source", string(batch.Source)))

	if batch.Source == SourceCalendar && batch.CabinID == 0 {
		return res, invalid("calendar batch without cabin")
	}
	if batch.Actor == "" {
		batch.Actor = ActorImport
	}

	var touched []*model.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, q repository.Queries) error {
		touched = touched[:0]
		res.Updated, res.Created, res.Ignored, res.Skipped, res.Errors = 0, 0, 0, 0, batch.Malformed
		var placeholder *model.Customer

		for i, ev := range batch.Events {
			r, outcome, err := s.ingestOne(ctx, q, batch, ev, res.BatchID, &placeholder)
			if err != nil {
				res.Errors++
				log.Warn("row failed", slog.Int("row", i+1), slog.String("code", ev.ExternalCode), sl.Err(err))
				continue
			}
			switch outcome {
			case rowCreated:
				res.Created++
				res.Updated++
				touched = append(touched, r)
			case rowUpdated:
				res.Updated++
				touched = append(touched, r)
			case rowIgnored:
				res.Ignored++
				log.Debug("row ignored, unit not mapped", slog.Int("row", i+1), slog.String("unit", ev.UnitRef))
			case rowSkipped:
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("%s: %w", op, err)
	}

	src := string(batch.Source)
	s.metrics.IngestRows(src, "created", res.Created)
	s.metrics.IngestRows(src, "updated", res.Updated-res.Created)
	s.metrics.IngestRows(src, "ignored", res.Ignored)
	s.metrics.IngestRows(src, "skipped", res.Skipped)
	s.metrics.IngestRows(src, "error", res.Errors)

	log.Info("batch ingested",
		slog.Int("rows", len(batch.Events)),
		slog.Int("updated", res.Updated),
		slog.Int("created", res.Created),
		slog.Int("ignored", res.Ignored),
		slog.Int("skipped", res.Skipped),
		slog.Int("errors", res.Errors))
	for _, r := range touched {
		s.publish(ctx, queue.ActionImported, batch.Actor, r)
	}
	return res, nil
}

func (s *Service) ingestOne(ctx context.Context, q repository.Queries, batch Batch, ev ExternalEvent, batchID string,
	placeholder **model.Customer) (*model.Reservation, rowOutcome, error) {

	status := strings.ToLower(strings.TrimSpace(ev.RawStatus))
	if status != "" {
		if _, ok := confirmedStatuses[status]; !ok {
			return nil, rowSkipped, nil
		}
	}
	if blocked(ev.Summary) || blocked(status) {
		return nil, rowSkipped, nil
	}

	if ev.CheckIn.IsZero() || ev.CheckOut.IsZero() {
		return nil, 0, fmt.Errorf("%w: missing dates", errRow)
	}
	checkIn, checkOut := day(ev.CheckIn), day(ev.CheckOut)
	if !checkOut.After(checkIn) {
		return nil, 0, fmt.Errorf("%w: checkout %s not after checkin %s", errRow,
			checkOut.Format(time.DateOnly), checkIn.Format(time.DateOnly))
	}

	cabinID := batch.CabinID
	if batch.Source != SourceCalendar {
		id, ok := s.units.Resolve(ev.UnitRef)
		if !ok {
			return nil, rowIgnored, nil
		}
		cabinID = id
	}

	var (
		cust *model.Customer
		err  error
	)
	guest := strings.TrimSpace(ev.GuestName)
	if batch.Source == SourceCalendar || guest == "" {
		if *placeholder == nil {
			if *placeholder, err = s.placeholderCustomer(ctx, q); err != nil {
				return nil, 0, err
			}
		}
		cust = *placeholder
	} else {
		if cust, err = resolveGuest(ctx, q, guest, strings.TrimSpace(ev.Phone), strings.TrimSpace(ev.ExternalCode)); err != nil {
			return nil, 0, err
		}
	}

	amount, hasAmount := ParseAmount(ev.Earnings)
	code := strings.TrimSpace(ev.ExternalCode)

	existing, err := q.FindExternalReservation(ctx, repository.ExternalMatch{
		CabinID:  cabinID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Exact:    batch.Source == SourceCalendar,
		Code:     code,
	})
	switch {
	case err == nil:
		r := existing
		if batch.Source != SourceCalendar {
			r.CustomerID = cust.ID
			r.CheckIn, r.CheckOut = checkIn, checkOut
		}
		r.CabinID = cabinID
		if r.Status == model.StatusPending {
			r.Status = model.StatusConfirmed
		}
		if code != "" {
			r.ExternalCode = &code
		}
		if n := importNote(batch.Source, ev); r.Notes == nil && n != "" {
			r.Notes = &n
		}
		if hasAmount {
			applyAmount(r, amount)
		}
		if err := q.UpdateReservation(ctx, r); err != nil {
			return nil, 0, err
		}
		if err := s.audit(ctx, q, batch.Actor, "import_update", r.ID, importDetails(batchID, batch.Source, code)); err != nil {
			return nil, 0, err
		}
		return r, rowUpdated, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, 0, err
	}

	r := &model.Reservation{
		CustomerID:    cust.ID,
		CabinID:       cabinID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentStatus: model.PaymentUnpaid,
		Status:        model.StatusConfirmed,
		Origin:        model.OriginExternal,
	}
	if batch.Source == SourceCalendar {
		zero := int64(0)
		r.TotalCents = &zero
	}
	if code != "" {
		r.ExternalCode = &code
	}
	if n := importNote(batch.Source, ev); n != "" {
		r.Notes = &n
	}
	if hasAmount {
		applyAmount(r, amount)
	}
	if err := q.InsertReservation(ctx, r); err != nil {
		return nil, 0, err
	}
	if err := s.audit(ctx, q, batch.Actor, "import_create", r.ID, importDetails(batchID, batch.Source, code)); err != nil {
		return nil, 0, err
	}
	return r, rowCreated, nil
}

// placeholderCustomer returns the shared customer of calendar imports,
// creating it on first use.
func (s *Service) placeholderCustomer(ctx context.Context, q repository.Queries) (*model.Customer, error) {
	found, err := q.CustomersByName(ctx, s.placeholder)
	if err != nil {
		return nil, err
	}
	if len(found) > 0 {
		return &found[0], nil
	}
	c := &model.Customer{Name: s.placeholder}
	if err := q.InsertCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveGuest finds the customer of a CSV row.  With a phone the match
// is name plus phone; a namesake without a phone is adopted and gets the
// phone.  Without a phone the first namesake wins.  Otherwise a new
// customer is created.
func resolveGuest(ctx context.Context, q repository.Queries, name, phone, code string) (*model.Customer, error) {
	found, err := q.CustomersByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if phone == "" {
		if len(found) > 0 {
			return &found[0], nil
		}
	} else {
		want := digits(phone)
		for i := range found {
			if digits(found[i].Phone) == want && want != "" {
				return &found[i], nil
			}
		}
		for i := range found {
			if digits(found[i].Phone) == "" {
				c := &found[i]
				c.Phone = phone
				if err := q.UpdateCustomer(ctx, c); err != nil {
					return nil, err
				}
				return c, nil
			}
		}
	}

	c := &model.Customer{Name: name, Phone: phone}
	if code != "" {
		email := fmt.Sprintf("external_%s@guest.invalid", strings.ToLower(code))
		c.Email = &email
	}
	if err := q.InsertCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseAmount reads a platform money string such as "R$ 1.234,56".
// Everything but digits and the decimal comma is dropped and the comma
// becomes the decimal point.  ok is false when nothing parseable remains.
func ParseAmount(raw string) (cents int64, ok bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ',':
			b.WriteByte('.')
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

func applyAmount(r *model.Reservation, cents int64) {
	v := cents
	r.TotalCents = &v
	r.AmountPaidCents = cents
	r.FullyPaid = true
	r.PaymentStatus = model.PaymentPaid
}

func blocked(s string) bool {
	return strings.Contains(strings.ToLower(s), "not available")
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func importNote(src Source, ev ExternalEvent) string {
	if src == SourceCalendar {
		if s := strings.TrimSpace(ev.Summary); s != "" {
			return "Imported: " + s
		}
		return "Imported from calendar"
	}
	if code := strings.TrimSpace(ev.ExternalCode); code != "" {
		return "Imported from platform export, code " + code
	}
	return "Imported from platform export"
}

func importDetails(batchID string, src Source, code string) string {
	d := fmt.Sprintf("batch=%s source=%s", batchID, src)
	if code != "" {
		d += " code=" + code
	}
	return d
}
