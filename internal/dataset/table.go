// Package dataset holds the historical commercial-district table and loads
// it from CSV, PostgreSQL or SQLite.
package dataset

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/sitesales/internal/geospatial"
	"github.com/sells-group/sitesales/internal/model"
)

type basisKey struct {
	district string
	category string
}

// Table is the immutable, indexed district dataset. Safe for concurrent reads.
type Table struct {
	rows []model.DistrictRecord

	// index holds one point per distinct coordinate; pointRow maps each point
	// to the first row at that coordinate.
	index    *geospatial.Index
	pointRow []int
	// pointRows lists every row located at a point, in dataset order.
	pointRows [][]int

	basis map[basisKey][]int
}

// DistrictKey identifies the district a row belongs to: the district code
// when present, otherwise the display name.
func DistrictKey(r *model.DistrictRecord) string {
	if r.DistrictCode != "" {
		return r.DistrictCode
	}
	return r.DistrictName
}

// NewTable indexes rows. The slice is copied.
func NewTable(rows []model.DistrictRecord) *Table {
	t := &Table{
		rows:  append([]model.DistrictRecord(nil), rows...),
		basis: make(map[basisKey][]int),
	}

	seen := make(map[geospatial.Point]int)
	var points []geospatial.Point
	for i := range t.rows {
		r := &t.rows[i]
		p := geospatial.Point{Lat: r.Lat, Lon: r.Lon}
		pi, ok := seen[p]
		if !ok {
			pi = len(points)
			seen[p] = pi
			points = append(points, p)
			t.pointRow = append(t.pointRow, i)
			t.pointRows = append(t.pointRows, nil)
		}
		t.pointRows[pi] = append(t.pointRows[pi], i)

		k := basisKey{district: DistrictKey(r), category: r.Category}
		t.basis[k] = append(t.basis[k], i)
	}
	t.index = geospatial.NewIndex(points)
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Locations returns the number of distinct indexed coordinates.
func (t *Table) Locations() int { return t.index.Len() }

// Row returns row i.
func (t *Table) Row(i int) *model.DistrictRecord { return &t.rows[i] }

// Nearest resolves (lat, lon) to the closest row by great-circle distance.
// Ties resolve to the first row in dataset order.
func (t *Table) Nearest(lat, lon float64) (*model.DistrictRecord, float64, error) {
	hit, err := t.index.Nearest(lat, lon)
	if err != nil {
		return nil, 0, eris.Wrap(err, "dataset: nearest district")
	}
	return &t.rows[t.pointRow[hit.Index]], hit.DistanceM, nil
}

// Basis returns every row for the district+category pair, in dataset order.
func (t *Table) Basis(district, category string) []*model.DistrictRecord {
	idx := t.basis[basisKey{district: district, category: category}]
	out := make([]*model.DistrictRecord, len(idx))
	for i, j := range idx {
		out[i] = &t.rows[j]
	}
	return out
}

// Latest returns the authoritative district+category row: the one with the
// greatest period code, first occurrence on ties.
func (t *Table) Latest(district, category string) (*model.DistrictRecord, bool) {
	var best *model.DistrictRecord
	for _, j := range t.basis[basisKey{district: district, category: category}] {
		r := &t.rows[j]
		if best == nil || r.Period > best.Period {
			best = r
		}
	}
	return best, best != nil
}

// CountWithSales counts district+category rows carrying observed sales.
func (t *Table) CountWithSales(district, category string) int {
	n := 0
	for _, j := range t.basis[basisKey{district: district, category: category}] {
		if t.rows[j].HasSales() {
			n++
		}
	}
	return n
}

// SalesRowsWithin counts rows of category with observed sales located within
// radiusM meters of (lat, lon).
func (t *Table) SalesRowsWithin(lat, lon, radiusM float64, category string) int {
	n := 0
	for _, hit := range t.index.Within(lat, lon, radiusM) {
		for _, j := range t.pointRows[hit.Index] {
			r := &t.rows[j]
			if r.Category == category && r.HasSales() {
				n++
			}
		}
	}
	return n
}
