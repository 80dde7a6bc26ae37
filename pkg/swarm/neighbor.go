package swarm

import (
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

// NeighborIndex narrows the avoidance scan to agents that may be in range.
// Candidates must return a superset of the indices within radius of p; the
// exact distance test happens in RepulsionSum. After Rebuild, Candidates is
// read-only and may be called from several goroutines at once.
type NeighborIndex interface {
	Rebuild(positions []geometry.Vector2D)
	Candidates(dst []int, p geometry.Vector2D, radius float64) []int
}

// IndexKind names a NeighborIndex implementation in configuration.
type IndexKind string

const (
	IndexBruteForce IndexKind = "bruteforce"
	IndexGrid       IndexKind = "grid"
	IndexRTree      IndexKind = "rtree"
)

// NewNeighborIndex builds the index named by kind. cellSize is only used by
// the grid and should be at least the largest avoidance radius.
func NewNeighborIndex(kind IndexKind, cellSize float64) (NeighborIndex, error) {
	switch kind {
	case "", IndexBruteForce:
		return NewBruteForceIndex(), nil
	case IndexGrid:
		return NewGridIndex(cellSize), nil
	case IndexRTree:
		return NewRTreeIndex(), nil
	default:
		return nil, fmt.Errorf("unknown neighbor index %q", kind)
	}
}

// BruteForceIndex returns every agent as a candidate: the O(n²) reference.
type BruteForceIndex struct {
	n int
}

func NewBruteForceIndex() *BruteForceIndex {
	return &BruteForceIndex{}
}

func (b *BruteForceIndex) Rebuild(positions []geometry.Vector2D) {
	b.n = len(positions)
}

func (b *BruteForceIndex) Candidates(dst []int, _ geometry.Vector2D, _ float64) []int {
	for i := 0; i < b.n; i++ {
		dst = append(dst, i)
	}
	return dst
}

type gridKey struct {
	x, y int
}

// GridIndex is a uniform spatial hash. Cells are square with side cellSize;
// a query scans every cell overlapping the query square.
type GridIndex struct {
	cellSize float64
	cells    map[gridKey][]int
}

// minCellSize keeps tiny or zero radii from exploding the cell count.
const minCellSize = 1.0

func NewGridIndex(cellSize float64) *GridIndex {
	return &GridIndex{
		cellSize: math.Max(cellSize, minCellSize),
		cells:    make(map[gridKey][]int),
	}
}

// Rebuild keeps the slices of cells that stay occupied and drops cells left
// empty, so the map tracks the population rather than every cell ever visited.
func (g *GridIndex) Rebuild(positions []geometry.Vector2D) {
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}
	for i, p := range positions {
		key := g.keyFor(p.X, p.Y)
		g.cells[key] = append(g.cells[key], i)
	}
	for k, idx := range g.cells {
		if len(idx) == 0 {
			delete(g.cells, k)
		}
	}
}

func (g *GridIndex) Candidates(dst []int, p geometry.Vector2D, radius float64) []int {
	lo := g.keyFor(p.X-radius, p.Y-radius)
	hi := g.keyFor(p.X+radius, p.Y+radius)
	for gx := lo.x; gx <= hi.x; gx++ {
		for gy := lo.y; gy <= hi.y; gy++ {
			dst = append(dst, g.cells[gridKey{x: gx, y: gy}]...)
		}
	}
	return dst
}

func (g *GridIndex) keyFor(x, y float64) gridKey {
	return gridKey{
		x: int(math.Floor(x / g.cellSize)),
		y: int(math.Floor(y / g.cellSize)),
	}
}
