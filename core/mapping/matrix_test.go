package mapping

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomDense(rnd *rand.Rand, axis Axis, rows int) *Dense {
	m := NewDense(axis, rows)
	for row := 0; row < rows; row++ {
		for col := 1; col <= axis.Size; col++ {
			_ = m.Set(row, col, Levels[rnd.Intn(len(Levels))])
		}
	}
	return m
}

func TestSparsifyDensifyRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		for _, axis := range []Axis{POAxis, PSOAxis} {
			rows := rnd.Intn(8)
			d := randomDense(rnd, axis, rows)

			sparse := d.Sparsify()
			again := Densify(axis, rows, sparse).Sparsify()
			require.Equal(t, sparse, again, "sparsify(densify(sparsify(D))) != sparsify(D)")
			assert.True(t, d.Equal(Densify(axis, rows, sparse)))

			for _, rec := range sparse {
				if rec.Value == NoCorrelation {
					t.Fatalf("Sparsify() emitted a zero record: %+v", rec)
				}
			}
		}
	}
}

func TestDensify_absentCellsAreZero(t *testing.T) {
	d := Densify(POAxis, 2, []Record{{Row: 0, Col: 1, Value: High}})

	var zeros int
	for row := 0; row < 2; row++ {
		for col := 1; col <= POCount; col++ {
			if row == 0 && col == 1 {
				assert.Equal(t, High, d.At(row, col))
				continue
			}
			if d.At(row, col) == NoCorrelation {
				zeros++
			}
		}
	}
	assert.Equal(t, 2*POCount-1, zeros)
}

func TestDensify_dropsInvalidRecords(t *testing.T) {
	recs := []Record{
		{Row: 0, Col: 0, Value: Low},    // col ordinals are 1-based
		{Row: 0, Col: 4, Value: Low},    // PSO has 3 columns
		{Row: 2, Col: 1, Value: Low},    // only 2 rows
		{Row: -1, Col: 1, Value: Low},   // negative row
		{Row: 1, Col: 2, Value: 7},      // invalid level
		{Row: 1, Col: 3, Value: Medium}, // kept
		{Row: 1, Col: 3, Value: High},   // last wins
	}
	d := Densify(PSOAxis, 2, recs)
	assert.Equal(t, []Record{{Row: 1, Col: 3, Value: High}}, d.Sparsify())
}

func TestDense_Set(t *testing.T) {
	d := NewDense(PSOAxis, 2)

	tests := []struct {
		name    string
		row     int
		col     int
		val     Level
		wantErr error
	}{
		{name: "valid", row: 1, col: 2, val: Medium},
		{name: "back to zero", row: 1, col: 2, val: NoCorrelation},
		{name: "row out of range", row: 2, col: 1, val: Low, wantErr: ErrOutOfRange},
		{name: "col zero", row: 0, col: 0, val: Low, wantErr: ErrOutOfRange},
		{name: "col out of range", row: 0, col: PSOCount + 1, val: Low, wantErr: ErrOutOfRange},
		{name: "invalid level", row: 0, col: 1, val: Level(4), wantErr: ErrInvalidLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := d.Clone()
			err := d.Set(tt.row, tt.col, tt.val)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("Set() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				assert.True(t, before.Equal(d), "failed Set() must not change the matrix")
				return
			}
			assert.Equal(t, tt.val, d.At(tt.row, tt.col))

			// no other cell changed
			for row := 0; row < d.Rows(); row++ {
				for col := 1; col <= d.Cols(); col++ {
					if row == tt.row && col == tt.col {
						continue
					}
					assert.Equal(t, before.At(row, col), d.At(row, col), "cell (%d,%d) changed", row, col)
				}
			}
		})
	}
}

func TestDense_emptyMatrix(t *testing.T) {
	d := NewDense(POAxis, 0)
	assert.Equal(t, 0, d.Rows())
	assert.Equal(t, POCount, d.Cols())
	assert.Equal(t, []Record{}, d.Sparsify())
	assert.Equal(t, NoCorrelation, d.At(0, 1))
	assert.True(t, errors.Is(d.Set(0, 1, Low), ErrOutOfRange))
}

func TestNormalize(t *testing.T) {
	recs := []Record{
		{Row: 1, Col: 2, Value: Low},
		{Row: 0, Col: 5, Value: NoCorrelation},
		{Row: 0, Col: 3, Value: High},
		{Row: 1, Col: 2, Value: Medium},
		{Row: 0, Col: 1, Value: High},
		{Row: 0, Col: 1, Value: NoCorrelation}, // last wins, then dropped
	}
	want := []Record{
		{Row: 0, Col: 3, Value: High},
		{Row: 1, Col: 2, Value: Medium},
	}
	assert.Equal(t, want, Normalize(recs))
	assert.Equal(t, []Record{}, Normalize(nil))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "0", want: NoCorrelation},
		{in: "3", want: High},
		{in: " 2 ", want: Medium},
		{in: "low", want: Low},
		{in: "HIGH", want: High},
		{in: "-", want: NoCorrelation},
		{in: "4", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "lol", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel() error = %v; wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidLevel))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAxisByName(t *testing.T) {
	axis, err := AxisByName("po")
	require.NoError(t, err)
	assert.Equal(t, POAxis, axis)

	axis, err = AxisByName(" PSO ")
	require.NoError(t, err)
	assert.Equal(t, PSOAxis, axis)

	_, err = AxisByName("xo")
	assert.True(t, errors.Is(err, ErrUnknownAxis))
}
