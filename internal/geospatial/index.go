package geospatial

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned by queries against an empty index.
var ErrNotFound = eris.New("geospatial: index is empty")

// Hit is a point returned by a query, identified by its insertion index.
type Hit struct {
	Index     int
	DistanceM float64
}

type kdNode struct {
	idx         int
	axis        int
	left, right int
}

// Index is an immutable 3-d k-d tree over unit-sphere vectors. It is safe for
// concurrent use once built.
type Index struct {
	points []Point
	vecs   [][3]float64
	nodes  []kdNode
	root   int
}

// NewIndex builds an index over points. Insertion order is preserved for
// tie-breaking: among equidistant points the lowest index wins.
func NewIndex(points []Point) *Index {
	ix := &Index{
		points: append([]Point(nil), points...),
		vecs:   make([][3]float64, len(points)),
		nodes:  make([]kdNode, 0, len(points)),
		root:   -1,
	}
	order := make([]int, len(points))
	for i, p := range points {
		ix.vecs[i] = unitVector(p)
		order[i] = i
	}
	ix.root = ix.build(order, 0)
	return ix
}

func (ix *Index) build(order []int, depth int) int {
	if len(order) == 0 {
		return -1
	}
	axis := depth % 3
	sort.Slice(order, func(a, b int) bool {
		va, vb := ix.vecs[order[a]][axis], ix.vecs[order[b]][axis]
		if va != vb {
			return va < vb
		}
		return order[a] < order[b]
	})
	mid := len(order) / 2

	n := len(ix.nodes)
	ix.nodes = append(ix.nodes, kdNode{idx: order[mid], axis: axis})

	left := ix.build(append([]int(nil), order[:mid]...), depth+1)
	right := ix.build(append([]int(nil), order[mid+1:]...), depth+1)
	ix.nodes[n].left = left
	ix.nodes[n].right = right
	return n
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Point returns the indexed point at insertion index i.
func (ix *Index) Point(i int) Point { return ix.points[i] }

// Nearest returns the point closest to (lat, lon) by great-circle distance.
func (ix *Index) Nearest(lat, lon float64) (Hit, error) {
	if ix.root < 0 {
		return Hit{}, ErrNotFound
	}
	q := unitVector(Point{Lat: lat, Lon: lon})
	best, bestD := -1, math.Inf(1)
	ix.nearest(ix.root, q, &best, &bestD)

	p := ix.points[best]
	return Hit{Index: best, DistanceM: Haversine(lat, lon, p.Lat, p.Lon)}, nil
}

func (ix *Index) nearest(n int, q [3]float64, best *int, bestD *float64) {
	if n < 0 {
		return
	}
	node := ix.nodes[n]
	d := sqDist(q, ix.vecs[node.idx])
	if d < *bestD || (d == *bestD && node.idx < *best) {
		*best, *bestD = node.idx, d
	}

	diff := q[node.axis] - ix.vecs[node.idx][node.axis]
	near, far := node.left, node.right
	if diff > 0 {
		near, far = far, near
	}
	ix.nearest(near, q, best, bestD)
	// <= keeps equidistant points with a lower index reachable.
	if diff*diff <= *bestD {
		ix.nearest(far, q, best, bestD)
	}
}

// NearestLinear is the O(n) reference implementation of Nearest. It ranks
// by the same chord distance so both agree on near ties.
func (ix *Index) NearestLinear(lat, lon float64) (Hit, error) {
	if len(ix.points) == 0 {
		return Hit{}, ErrNotFound
	}
	q := unitVector(Point{Lat: lat, Lon: lon})
	best, bestD := -1, math.Inf(1)
	for i, v := range ix.vecs {
		if d := sqDist(q, v); d < bestD {
			best, bestD = i, d
		}
	}
	p := ix.points[best]
	return Hit{Index: best, DistanceM: Haversine(lat, lon, p.Lat, p.Lon)}, nil
}

// Within returns every point within radiusM meters of (lat, lon), ordered by
// distance then insertion index.
func (ix *Index) Within(lat, lon, radiusM float64) []Hit {
	if ix.root < 0 || radiusM < 0 {
		return nil
	}
	q := unitVector(Point{Lat: lat, Lon: lon})
	limit := chordForMeters(radiusM)*(1+1e-9) + 1e-15

	var hits []Hit
	var walk func(n int)
	walk = func(n int) {
		if n < 0 {
			return
		}
		node := ix.nodes[n]
		if sqDist(q, ix.vecs[node.idx]) <= limit {
			p := ix.points[node.idx]
			if d := Haversine(lat, lon, p.Lat, p.Lon); d <= radiusM {
				hits = append(hits, Hit{Index: node.idx, DistanceM: d})
			}
		}
		diff := q[node.axis] - ix.vecs[node.idx][node.axis]
		if diff <= 0 || diff*diff <= limit {
			walk(node.left)
		}
		if diff >= 0 || diff*diff <= limit {
			walk(node.right)
		}
	}
	walk(ix.root)

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].DistanceM != hits[b].DistanceM {
			return hits[a].DistanceM < hits[b].DistanceM
		}
		return hits[a].Index < hits[b].Index
	})
	return hits
}

func sqDist(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}
