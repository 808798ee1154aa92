package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/logger/sl"
	"github.com/iliyamo/cabin-booking/internal/metrics"
	"github.com/iliyamo/cabin-booking/internal/model"
)

// DefaultFetchTimeout bounds a single feed download.
const DefaultFetchTimeout = 10 * time.Second

// MaxFeedBytes bounds a downloaded feed.
const MaxFeedBytes = 5 << 20

const icalDate = "20060102"

// ParseFeed reads an iCal feed into calendar events.  Events without a
// readable start or end date are counted as malformed.
func ParseFeed(r io.Reader) (events []booking.ExternalEvent, malformed int, err error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, 0, fmt.Errorf("ingest.ParseFeed: %w", err)
	}
	for _, ev := range cal.Events() {
		in, okIn := eventDate(ev, ics.ComponentPropertyDtStart)
		out, okOut := eventDate(ev, ics.ComponentPropertyDtEnd)
		if !okIn || !okOut {
			malformed++
			continue
		}
		var summary string
		if p := ev.GetProperty(ics.ComponentPropertySummary); p != nil {
			summary = p.Value
		}
		events = append(events, booking.ExternalEvent{CheckIn: in, CheckOut: out, Summary: summary})
	}
	return events, malformed, nil
}

// eventDate reads the calendar day of a DTSTART or DTEND property.  Both
// DATE and DATE-TIME values are accepted; only the day is kept.
func eventDate(ev *ics.VEvent, prop ics.ComponentProperty) (time.Time, bool) {
	p := ev.GetProperty(prop)
	if p == nil {
		return time.Time{}, false
	}
	v := strings.TrimSpace(p.Value)
	if len(v) < len(icalDate) {
		return time.Time{}, false
	}
	t, err := time.Parse(icalDate, v[:len(icalDate)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FeedFetcher downloads calendar feeds with a bounded timeout.
type FeedFetcher struct {
	client *http.Client
}

// NewFeedFetcher returns a fetcher whose requests give up after timeout.
// A non-positive timeout means DefaultFetchTimeout.
func NewFeedFetcher(timeout time.Duration) *FeedFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &FeedFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads and parses the feed at url.
func (f *FeedFetcher) Fetch(ctx context.Context, url string) ([]booking.ExternalEvent, int, error) {
	const op = "ingest.FeedFetcher.Fetch"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}
	return ParseFeed(io.LimitReader(resp.Body, MaxFeedBytes))
}

// CabinSource looks up cabins and their configured feeds.
type CabinSource interface {
	GetByID(ctx context.Context, id uint64) (*model.Cabin, error)
	WithCalendar(ctx context.Context) ([]model.Cabin, error)
}

// Ingester merges a batch into the reservation set.
type Ingester interface {
	Ingest(ctx context.Context, batch booking.Batch) (booking.IngestResult, error)
}

// ErrNoCalendar is logged when a sync is requested for a cabin without a
// feed URL.
var ErrNoCalendar = errors.New("cabin has no calendar url")

// Syncer pulls cabin feeds into the reconciler.
type Syncer struct {
	cabins  CabinSource
	ingest  Ingester
	fetcher *FeedFetcher
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewSyncer wires a Syncer.  m may be nil.
func NewSyncer(cabins CabinSource, ing Ingester, fetcher *FeedFetcher, log *slog.Logger, m *metrics.Metrics) *Syncer {
	return &Syncer{cabins: cabins, ingest: ing, fetcher: fetcher, log: log, metrics: m}
}

// Sync imports the feed of one cabin.  It never fails: any problem is
// logged and reported as (false, 0).  On success it returns true and the
// number of reservations created.
func (s *Syncer) Sync(ctx context.Context, cabinID uint64) (bool, int) {
	const op = "ingest.Syncer.Sync"
	log := s.log.With(slog.String("op", op), slog.Uint64("cabin_id", cabinID))

	created, err := s.sync(ctx, cabinID)
	if err != nil {
		log.Warn("calendar sync failed", sl.Err(err))
		s.metrics.CalendarSync(false)
		return false, 0
	}
	s.metrics.CalendarSync(true)
	log.Info("calendar synced", slog.Int("created", created))
	return true, created
}

func (s *Syncer) sync(ctx context.Context, cabinID uint64) (int, error) {
	cabin, err := s.cabins.GetByID(ctx, cabinID)
	if err != nil {
		return 0, err
	}
	if cabin.CalendarURL == nil || strings.TrimSpace(*cabin.CalendarURL) == "" {
		return 0, ErrNoCalendar
	}
	events, malformed, err := s.fetcher.Fetch(ctx, *cabin.CalendarURL)
	if err != nil {
		return 0, err
	}
	res, err := s.ingest.Ingest(ctx, booking.Batch{
		Source:    booking.SourceCalendar,
		CabinID:   cabin.ID,
		Events:    events,
		Malformed: malformed,
	})
	if err != nil {
		return 0, err
	}
	return res.Created, nil
}

// SyncAll syncs every cabin with a configured feed and returns how many
// feeds succeeded and how many reservations they created.
func (s *Syncer) SyncAll(ctx context.Context) (synced, created int) {
	cabins, err := s.cabins.WithCalendar(ctx)
	if err != nil {
		s.log.Warn("listing calendar cabins failed", slog.String("op", "ingest.Syncer.SyncAll"), sl.Err(err))
		return 0, 0
	}
	for _, c := range cabins {
		if ctx.Err() != nil {
			break
		}
		if ok, n := s.Sync(ctx, c.ID); ok {
			synced++
			created += n
		}
	}
	return synced, created
}

// Run syncs all feeds every interval until ctx is done.  A non-positive
// interval disables the worker.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			synced, created := s.SyncAll(ctx)
			s.log.Debug("periodic calendar sync", slog.Int("synced", synced), slog.Int("created", created))
		}
	}
}

// ExportUID is the stable UID of a reservation in exported feeds.
func ExportUID(reservationID uint64) string {
	return fmt.Sprintf("reservation-%d@cabin-booking", reservationID)
}

// ExportCabin renders the reservations of a cabin as an iCal feed with
// one all-day event per non-cancelled reservation.
func ExportCabin(cabin model.Cabin, rs []model.Reservation, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//cabin-booking//reservations//EN")
	cal.SetName(cabin.Name)

	for i := range rs {
		r := &rs[i]
		if !r.Active() {
			continue
		}
		ev := cal.AddEvent(ExportUID(r.ID))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(r.CheckIn)
		ev.SetAllDayEndAt(r.CheckOut)
		ev.SetSummary(fmt.Sprintf("Reserved - %s", cabin.Name))
	}
	return cal.Serialize()
}
