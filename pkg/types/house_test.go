package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceID(t *testing.T) {
	t.Run("Format and parse round trip", func(t *testing.T) {
		for _, kind := range SurfaceKinds {
			id := SurfaceID(3, kind)
			roomIndex, parsedKind, err := ParseSurfaceID(id)
			require.NoError(t, err)
			assert.Equal(t, 3, roomIndex)
			assert.Equal(t, kind, parsedKind)
		}
	})

	t.Run("Malformed ids", func(t *testing.T) {
		for _, id := range []string{"", "floor", "_floor", "x_floor", "0_roof", "0_"} {
			_, _, err := ParseSurfaceID(id)
			assert.Error(t, err, "id %q should not parse", id)
		}
	})
}

func TestHouseSurfaces(t *testing.T) {
	house := NewHouse("h1", 2)

	t.Run("Deterministic order", func(t *testing.T) {
		surfaces := house.Surfaces()
		require.Len(t, surfaces, 2*len(SurfaceKinds))
		assert.Equal(t, "0_floor", surfaces[0].ID())
		assert.Equal(t, "0_wall", surfaces[1].ID())
		assert.Equal(t, "0_ceiling", surfaces[2].ID())
		assert.Equal(t, "1_floor", surfaces[3].ID())
	})

	t.Run("Lookup by id", func(t *testing.T) {
		surface, err := house.Surface("1_wall")
		require.NoError(t, err)
		assert.Equal(t, 1, surface.RoomIndex)
		assert.Equal(t, SurfaceWall, surface.Kind)

		_, err = house.Surface("5_wall")
		assert.Error(t, err)
	})
}

func TestSurfaceKindIndex(t *testing.T) {
	assert.Equal(t, 0, SurfaceFloor.Index())
	assert.Equal(t, 1, SurfaceWall.Index())
	assert.Equal(t, 2, SurfaceCeiling.Index())
	assert.Equal(t, -1, SurfaceKind("roof").Index())
	assert.False(t, SurfaceKind("roof").Valid())
}

func TestSortedHouseKeys(t *testing.T) {
	houses := map[string]*House{
		"b": NewHouse("b", 1),
		"a": NewHouse("a", 1),
		"c": NewHouse("c", 1),
	}
	assert.Equal(t, []string{"a", "b", "c"}, SortedHouseKeys(houses))
}
