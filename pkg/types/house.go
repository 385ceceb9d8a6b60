// Package types defines the core data structures shared across the texprop
// project: houses, rooms, surfaces and their texture state.
package types

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"
)

// SurfaceKind identifies which surface of a room a texture belongs to.
type SurfaceKind string

const (
	SurfaceFloor   SurfaceKind = "floor"
	SurfaceWall    SurfaceKind = "wall"
	SurfaceCeiling SurfaceKind = "ceiling"
)

// SurfaceKinds lists all surface kinds in their canonical order. The order is
// load-bearing: node feature one-hots and deterministic surface iteration both
// rely on it.
var SurfaceKinds = []SurfaceKind{SurfaceFloor, SurfaceWall, SurfaceCeiling}

// Index returns the position of the kind in SurfaceKinds, or -1 if unknown.
func (k SurfaceKind) Index() int {
	for i, kind := range SurfaceKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

// Valid reports whether k is one of the known surface kinds.
func (k SurfaceKind) Valid() bool {
	return k.Index() >= 0
}

// TextureSource records the provenance of a texture crop or embedding.
type TextureSource string

const (
	// SourceObserved marks textures derived from rectified photo crops by the
	// upstream crop-select stage.
	SourceObserved TextureSource = "observed"
	// SourcePropagated marks embeddings predicted by graph propagation.
	SourcePropagated TextureSource = "gnn_prop"
	// SourceSynthesized marks crops rendered from a propagated embedding.
	SourceSynthesized TextureSource = "synth"
)

// Valid reports whether s is one of the known texture sources.
func (s TextureSource) Valid() bool {
	switch s {
	case SourceObserved, SourcePropagated, SourceSynthesized:
		return true
	}
	return false
}

// ObservedTexture holds the texture state produced upstream for a surface that
// was directly photographed. It is input to propagation and never mutated by
// it.
type ObservedTexture struct {
	Crop      image.Image
	Embedding []float32
}

// TexturePrediction holds texture state produced by this pipeline: a
// propagated embedding and, after synthesis, a rendered crop.
type TexturePrediction struct {
	Embedding []float32
	Crop      image.Image
	Source    TextureSource
}

// Surface is one paintable surface of a room. A surface may carry an observed
// texture, a prediction, both, or neither.
type Surface struct {
	RoomIndex int
	Kind      SurfaceKind

	Observed   *ObservedTexture
	Prediction *TexturePrediction
}

// ID returns the surface identifier used in file names and embedding JSON
// keys, e.g. "2_floor".
func (s *Surface) ID() string {
	return SurfaceID(s.RoomIndex, s.Kind)
}

// HasObservation reports whether the surface has an observed crop.
func (s *Surface) HasObservation() bool {
	return s.Observed != nil && s.Observed.Crop != nil
}

// SurfaceID formats a surface identifier from its room index and kind.
func SurfaceID(roomIndex int, kind SurfaceKind) string {
	return fmt.Sprintf("%d_%s", roomIndex, kind)
}

// ParseSurfaceID splits a surface identifier back into room index and kind.
func ParseSurfaceID(id string) (roomIndex int, kind SurfaceKind, err error) {
	idx := strings.IndexByte(id, '_')
	if idx <= 0 {
		return 0, "", fmt.Errorf("malformed surface id %q", id)
	}
	roomIndex, err = strconv.Atoi(id[:idx])
	if err != nil {
		return 0, "", fmt.Errorf("malformed surface id %q: %w", id, err)
	}
	kind = SurfaceKind(id[idx+1:])
	if !kind.Valid() {
		return 0, "", fmt.Errorf("unknown surface kind in id %q", id)
	}
	return roomIndex, kind, nil
}

// Room is a single room of a house with its three paintable surfaces.
type Room struct {
	Index int
	Type  string

	// Photos lists photo identifiers assigned to this room by the photoroom
	// CSV. Not used by propagation directly, kept for bookkeeping.
	Photos []string

	surfaces map[SurfaceKind]*Surface
}

// NewRoom creates a room with empty surfaces of every kind.
func NewRoom(index int, roomType string) *Room {
	r := &Room{
		Index:    index,
		Type:     roomType,
		surfaces: make(map[SurfaceKind]*Surface, len(SurfaceKinds)),
	}
	for _, kind := range SurfaceKinds {
		r.surfaces[kind] = &Surface{RoomIndex: index, Kind: kind}
	}
	return r
}

// Surface returns the room's surface of the given kind, or nil for an unknown
// kind.
func (r *Room) Surface(kind SurfaceKind) *Surface {
	return r.surfaces[kind]
}

// Surfaces returns the room's surfaces in canonical kind order.
func (r *Room) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(SurfaceKinds))
	for _, kind := range SurfaceKinds {
		out = append(out, r.surfaces[kind])
	}
	return out
}

// Door connects two rooms of a house.
type Door struct {
	RoomA, RoomB int
}

// House is one house scene graph: rooms, their surfaces and the doors
// connecting them. Houses are mutated in place by loaders, the embedding
// updater and texture synthesis; there is a single thread of control, so no
// locking.
type House struct {
	Key   string
	Rooms []*Room
	Doors []Door
}

// NewHouse creates a house with numRooms empty rooms and no doors.
func NewHouse(key string, numRooms int) *House {
	h := &House{Key: key, Rooms: make([]*Room, 0, numRooms)}
	for i := 0; i < numRooms; i++ {
		h.Rooms = append(h.Rooms, NewRoom(i, ""))
	}
	return h
}

// Room returns the room with the given index, or nil if out of range.
func (h *House) Room(index int) *Room {
	if index < 0 || index >= len(h.Rooms) {
		return nil
	}
	return h.Rooms[index]
}

// Surfaces returns every surface of the house in deterministic order: by room
// index, then canonical kind order.
func (h *House) Surfaces() []*Surface {
	out := make([]*Surface, 0, len(h.Rooms)*len(SurfaceKinds))
	for _, room := range h.Rooms {
		out = append(out, room.Surfaces()...)
	}
	return out
}

// Surface resolves a surface identifier like "0_wall" within the house.
func (h *House) Surface(id string) (*Surface, error) {
	roomIndex, kind, err := ParseSurfaceID(id)
	if err != nil {
		return nil, err
	}
	room := h.Room(roomIndex)
	if room == nil {
		return nil, fmt.Errorf("house %s has no room %d (surface id %q)", h.Key, roomIndex, id)
	}
	return room.Surface(kind), nil
}

// SortedHouseKeys returns the keys of a houses map in lexicographic order, so
// batch composition is reproducible run to run.
func SortedHouseKeys(houses map[string]*House) []string {
	keys := make([]string, 0, len(houses))
	for key := range houses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
