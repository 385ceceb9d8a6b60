// Package graphgen builds surface graphs from house batches. Nodes are room
// surfaces, edges connect surfaces of the same room and same-kind surfaces of
// door-connected rooms.
package graphgen

import (
	"github.com/soundprediction/texprop/pkg/types"
)

// NodeRef maps a graph node back to the surface it was built from.
type NodeRef struct {
	HouseKey  string
	SurfaceID string
}

// SurfaceGraph is one batch graph over the surfaces of one or more houses.
// Feature rows are [observedMask, kindOneHot x3, observedEmbedding...], so a
// row is 4+EmbeddingDim wide. Edges are directed and stored symmetrically,
// with a self loop on every node.
type SurfaceGraph struct {
	Nodes    []NodeRef
	Features [][]float32

	EdgeSources []int32
	EdgeTargets []int32

	// Targets holds per-node target embeddings and TargetMask marks which
	// nodes carry one. Both are nil for inference graphs.
	Targets    [][]float32
	TargetMask []bool

	EmbeddingDim int
}

// NumNodes returns the node count of the graph.
func (g *SurfaceGraph) NumNodes() int { return len(g.Nodes) }

// NumEdges returns the directed edge count, self loops included.
func (g *SurfaceGraph) NumEdges() int { return len(g.EdgeSources) }

// FeatureDim returns the width of a node feature row.
func (g *SurfaceGraph) FeatureDim() int { return 4 + g.EmbeddingDim }

// buildGraph assembles the batch graph for a set of houses. masked reports
// whether an observed surface should be hidden from the input features and
// used as a target instead; it is nil for inference.
func buildGraph(houses []*types.House, embeddingDim int, masked func(houseIndex, nodeIndex int, s *types.Surface) bool) *SurfaceGraph {
	g := &SurfaceGraph{EmbeddingDim: embeddingDim}
	if masked != nil {
		g.Targets = [][]float32{}
		g.TargetMask = []bool{}
	}

	for houseIndex, house := range houses {
		base := len(g.Nodes)
		nodeOf := make(map[string]int)

		for _, surface := range house.Surfaces() {
			nodeIndex := len(g.Nodes)
			nodeOf[surface.ID()] = nodeIndex
			g.Nodes = append(g.Nodes, NodeRef{HouseKey: house.Key, SurfaceID: surface.ID()})

			observed := surface.Observed != nil && surface.Observed.Embedding != nil
			hidden := observed && masked != nil && masked(houseIndex, nodeIndex-base, surface)

			row := make([]float32, 4+embeddingDim)
			if observed && !hidden {
				row[0] = 1
			}
			row[1+surface.Kind.Index()] = 1
			if observed && !hidden {
				copy(row[4:], surface.Observed.Embedding)
			}
			g.Features = append(g.Features, row)

			if masked != nil {
				g.TargetMask = append(g.TargetMask, hidden)
				target := make([]float32, embeddingDim)
				if hidden {
					copy(target, surface.Observed.Embedding)
				}
				g.Targets = append(g.Targets, target)
			}
		}

		// Surfaces of the same room form a triangle.
		for _, room := range house.Rooms {
			surfaces := room.Surfaces()
			for i := 0; i < len(surfaces); i++ {
				for j := i + 1; j < len(surfaces); j++ {
					g.addEdgePair(nodeOf[surfaces[i].ID()], nodeOf[surfaces[j].ID()])
				}
			}
		}

		// Door-connected rooms link same-kind surfaces.
		for _, door := range house.Doors {
			roomA, roomB := house.Room(door.RoomA), house.Room(door.RoomB)
			if roomA == nil || roomB == nil {
				continue
			}
			for _, kind := range types.SurfaceKinds {
				g.addEdgePair(nodeOf[roomA.Surface(kind).ID()], nodeOf[roomB.Surface(kind).ID()])
			}
		}
	}

	// Self loops keep every node reachable by pooling even in a house with a
	// single isolated room.
	for i := 0; i < len(g.Nodes); i++ {
		g.EdgeSources = append(g.EdgeSources, int32(i))
		g.EdgeTargets = append(g.EdgeTargets, int32(i))
	}
	return g
}

func (g *SurfaceGraph) addEdgePair(a, b int) {
	g.EdgeSources = append(g.EdgeSources, int32(a), int32(b))
	g.EdgeTargets = append(g.EdgeTargets, int32(b), int32(a))
}
