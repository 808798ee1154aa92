package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cabin-booking/internal/model"
)

// UnitMap resolves the free-text unit reference of an external booking
// (the listing title on the platform) to a cabin.  It is built from the
// listing_mappings table and validated once at start-up.
type UnitMap struct {
	entries []unitEntry
}

type unitEntry struct {
	ref     string
	cabinID uint64
	version int
}

// NewUnitMap validates mappings against the known cabins.  Empty refs,
// refs mapped twice (case-insensitively) and unknown cabins are errors;
// all problems are reported together.
func NewUnitMap(mappings []model.ListingMapping, cabins []model.Cabin) (*UnitMap, error) {
	known := make(map[uint64]struct{}, len(cabins))
	for _, c := range cabins {
		known[c.ID] = struct{}{}
	}

	var errs []error
	seen := make(map[string]struct{}, len(mappings))
	m := &UnitMap{entries: make([]unitEntry, 0, len(mappings))}
	for _, lm := range mappings {
		ref := strings.ToLower(strings.TrimSpace(lm.ListingRef))
		if ref == "" {
			errs = append(errs, fmt.Errorf("listing mapping %d: empty listing reference", lm.ID))
			continue
		}
		if _, dup := seen[ref]; dup {
			errs = append(errs, fmt.Errorf("listing mapping %d: reference %q mapped more than once", lm.ID, lm.ListingRef))
			continue
		}
		if _, ok := known[lm.CabinID]; !ok {
			errs = append(errs, fmt.Errorf("listing mapping %d: unknown cabin %d", lm.ID, lm.CabinID))
			continue
		}
		seen[ref] = struct{}{}
		m.entries = append(m.entries, unitEntry{ref: ref, cabinID: lm.CabinID, version: lm.Version})
	}
	if len(errs) > 0 {
		return nil, invalid("invalid listing mappings: %v", errors.Join(errs...))
	}
	return m, nil
}

// Resolve returns the cabin whose listing reference occurs in unitRef,
// ignoring case.  Mappings are tried in order and the first match wins.
func (m *UnitMap) Resolve(unitRef string) (uint64, bool) {
	if m == nil {
		return 0, false
	}
	needle := strings.ToLower(strings.TrimSpace(unitRef))
	if needle == "" {
		return 0, false
	}
	for _, e := range m.entries {
		if strings.Contains(needle, e.ref) {
			return e.cabinID, true
		}
	}
	return 0, false
}

// Len returns the number of mappings.
func (m *UnitMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
