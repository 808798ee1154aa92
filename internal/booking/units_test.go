package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cabin-booking/internal/model"
)

func TestUnitMap_Resolve(t *testing.T) {
	cabins := []model.Cabin{{ID: 1}, {ID: 2}}
	m, err := NewUnitMap([]model.ListingMapping{
		{ID: 1, ListingRef: "Chalé 1", CabinID: 1},
		{ID: 2, ListingRef: "Chalé", CabinID: 2},
	}, cabins)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())

	id, ok := m.Resolve("Lindo CHALÉ 1 com lareira")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), id, "first mapping in order wins")

	id, ok = m.Resolve("chalé 2")
	assert.True(t, ok)
	assert.Equal(t, uint64(2), id)

	_, ok = m.Resolve("Casa")
	assert.False(t, ok)
	_, ok = m.Resolve("  ")
	assert.False(t, ok)

	var nilMap *UnitMap
	_, ok = nilMap.Resolve("Chalé 1")
	assert.False(t, ok)
}

func TestNewUnitMap_Validation(t *testing.T) {
	cabins := []model.Cabin{{ID: 1}}
	_, err := NewUnitMap([]model.ListingMapping{
		{ID: 1, ListingRef: "Cabana", CabinID: 1},
		{ID: 2, ListingRef: " cabana ", CabinID: 1},
		{ID: 3, ListingRef: "", CabinID: 1},
		{ID: 4, ListingRef: "Refúgio", CabinID: 9},
	}, cabins)

	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "mapped more than once")
	assert.Contains(t, err.Error(), "empty listing reference")
	assert.Contains(t, err.Error(), "unknown cabin 9")
}
