package swarm

import (
	"github.com/dhconnelly/rtreego"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

// rtreeTolerance is the half-size of the box stored for each point.
const rtreeTolerance = 1e-6

type rtreeItem struct {
	idx  int
	rect rtreego.Rect
}

func (it *rtreeItem) Bounds() rtreego.Rect {
	return it.rect
}

// RTreeIndex answers candidate queries with a bulk-loaded R-tree rebuilt every tick.
type RTreeIndex struct {
	tree  *rtreego.Rtree
	items []rtreeItem
}

func NewRTreeIndex() *RTreeIndex {
	return &RTreeIndex{}
}

func (r *RTreeIndex) Rebuild(positions []geometry.Vector2D) {
	if cap(r.items) < len(positions) {
		r.items = make([]rtreeItem, len(positions))
	}
	r.items = r.items[:len(positions)]

	spatials := make([]rtreego.Spatial, len(positions))
	for i, p := range positions {
		r.items[i] = rtreeItem{idx: i, rect: rtreego.Point{p.X, p.Y}.ToRect(rtreeTolerance)}
		spatials[i] = &r.items[i]
	}
	r.tree = rtreego.NewTree(2, 25, 50, spatials...)
}

func (r *RTreeIndex) Candidates(dst []int, p geometry.Vector2D, radius float64) []int {
	if r.tree == nil || radius <= 0 {
		return dst
	}
	bb, err := rtreego.NewRect(rtreego.Point{p.X - radius, p.Y - radius}, []float64{2 * radius, 2 * radius})
	if err != nil {
		return dst
	}
	for _, s := range r.tree.SearchIntersect(bb) {
		dst = append(dst, s.(*rtreeItem).idx)
	}
	return dst
}
