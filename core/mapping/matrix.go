package mapping

import (
	"sort"

	"github.com/pkg/errors"
)

// Key addresses a single cell: Row is the 0-based outcome position, Col the 1-based axis ordinal.
type Key struct {
	Row int
	Col int
}

// Record is one sparse entry. Only records with Value > 0 are ever persisted.
type Record struct {
	Row   int
	Col   int
	Value Level
}

func (r Record) Key() Key { return Key{Row: r.Row, Col: r.Col} }

// Dense is the editable matrix of one axis: every (row, col) pair of rows × axis is addressable.
type Dense struct {
	axis  Axis
	rows  int
	cells map[Key]Level
}

// NewDense returns an all-zero rows × axis.Size matrix.
func NewDense(axis Axis, rows int) *Dense {
	if rows < 0 {
		rows = 0
	}
	m := &Dense{
		axis:  axis,
		rows:  rows,
		cells: make(map[Key]Level, rows*axis.Size),
	}
	m.Reset()
	return m
}

func (m *Dense) Axis() Axis { return m.axis }
func (m *Dense) Rows() int  { return m.rows }
func (m *Dense) Cols() int  { return m.axis.Size }

func (m *Dense) Contains(row, col int) bool {
	return row >= 0 && row < m.rows && m.axis.Contains(col)
}

// At returns the level stored at (row, col); anything not stored reads as NoCorrelation.
func (m *Dense) At(row, col int) Level {
	return m.cells[Key{Row: row, Col: col}]
}

// Set updates exactly one cell.
func (m *Dense) Set(row, col int, val Level) error {
	if !m.Contains(row, col) {
		return errors.Wrapf(ErrOutOfRange, "%s(%d,%d) of %dx%d", m.axis.Name, row, col, m.rows, m.axis.Size)
	}
	if !val.Valid() {
		return errors.Wrapf(ErrInvalidLevel, "%d", val)
	}
	m.cells[Key{Row: row, Col: col}] = val
	return nil
}

// Reset sets every cell back to NoCorrelation.
func (m *Dense) Reset() {
	for row := 0; row < m.rows; row++ {
		for col := 1; col <= m.axis.Size; col++ {
			m.cells[Key{Row: row, Col: col}] = NoCorrelation
		}
	}
}

func (m *Dense) Clone() *Dense {
	c := &Dense{
		axis:  m.axis,
		rows:  m.rows,
		cells: make(map[Key]Level, len(m.cells)),
	}
	for k, v := range m.cells {
		c.cells[k] = v
	}
	return c
}

// Equal reports whether both matrices have the same shape and the same non-zero cells.
func (m *Dense) Equal(o *Dense) bool {
	if m.axis != o.axis || m.rows != o.rows {
		return false
	}
	for row := 0; row < m.rows; row++ {
		for col := 1; col <= m.axis.Size; col++ {
			if m.At(row, col) != o.At(row, col) {
				return false
			}
		}
	}
	return true
}

// Sparsify walks every row × every column and emits a Record for each cell > 0,
// ordered by (row, col). The result is never nil.
func (m *Dense) Sparsify() []Record {
	recs := make([]Record, 0)
	for row := 0; row < m.rows; row++ {
		for col := 1; col <= m.axis.Size; col++ {
			if val := m.At(row, col); val > NoCorrelation {
				recs = append(recs, Record{Row: row, Col: col, Value: val})
			}
		}
	}
	return recs
}

// Densify builds the rows × axis matrix from sparse records.
// Cells absent from `recs` are zero; records outside the matrix or with an invalid level are dropped.
// When a key repeats, the last record wins.
func Densify(axis Axis, rows int, recs []Record) *Dense {
	m := NewDense(axis, rows)
	for _, rec := range recs {
		_ = m.Set(rec.Row, rec.Col, rec.Value)
	}
	return m
}

// Normalize returns the canonical sparse form of `recs`: zero levels dropped,
// duplicate keys collapsed (last wins), sorted by (row, col).
// Unlike Densify it does not need the matrix shape, so out-of-range records are kept for the caller to reject.
func Normalize(recs []Record) []Record {
	byKey := make(map[Key]Level, len(recs))
	for _, rec := range recs {
		byKey[rec.Key()] = rec.Value
	}
	out := make([]Record, 0, len(byKey))
	for k, v := range byKey {
		if v == NoCorrelation {
			continue
		}
		out = append(out, Record{Row: k.Row, Col: k.Col, Value: v})
	}
	SortRecords(out)
	return out
}

func SortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Row != recs[j].Row {
			return recs[i].Row < recs[j].Row
		}
		return recs[i].Col < recs[j].Col
	})
}
