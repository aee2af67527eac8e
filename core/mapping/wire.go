package mapping

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type (
	POEntry struct {
		COIndex int   `json:"co_index" validate:"min=0"`
		POIndex int   `json:"po_index" validate:"pocol"`
		Value   Level `json:"mapping_value" validate:"level"`
	}

	PSOEntry struct {
		COIndex  int   `json:"co_index" validate:"min=0"`
		PSOIndex int   `json:"pso_index" validate:"psocol"`
		Value    Level `json:"mapping_value" validate:"level"`
	}

	// POMatrix and PSOMatrix are the sparse wire lists.
	// On decode both the array-of-triples and the object map shapes are accepted.
	POMatrix  []POEntry
	PSOMatrix []PSOEntry

	// Mapping is the body of GET /api/course/:courseId/mapping.
	Mapping struct {
		CourseID string    `json:"course_id,omitempty"`
		Title    string    `json:"title,omitempty"`
		Outcomes []string  `json:"cos"`
		PO       POMatrix  `json:"co_po_matrix"`
		PSO      PSOMatrix `json:"co_pso_matrix"`
	}

	// Payload is the body of POST /api/course/:courseId/mapping; it replaces the whole mapping set.
	Payload struct {
		PO  POMatrix  `json:"co_po_matrix" validate:"dive"`
		PSO PSOMatrix `json:"co_pso_matrix" validate:"dive"`
	}
)

func NewPOMatrix(recs []Record) POMatrix {
	m := make(POMatrix, 0, len(recs))
	for _, rec := range recs {
		m = append(m, POEntry{COIndex: rec.Row, POIndex: rec.Col, Value: rec.Value})
	}
	return m
}

func (m POMatrix) Records() []Record {
	recs := make([]Record, 0, len(m))
	for _, e := range m {
		recs = append(recs, Record{Row: e.COIndex, Col: e.POIndex, Value: e.Value})
	}
	return recs
}

func (m POMatrix) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]POEntry(m))
}

func (m *POMatrix) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		return json.Unmarshal(data, (*[]POEntry)(m))
	}
	recs, err := decodeSparseMap(data)
	if err != nil {
		return errors.Wrap(err, "decoding co_po_matrix")
	}
	*m = NewPOMatrix(recs)
	return nil
}

func NewPSOMatrix(recs []Record) PSOMatrix {
	m := make(PSOMatrix, 0, len(recs))
	for _, rec := range recs {
		m = append(m, PSOEntry{COIndex: rec.Row, PSOIndex: rec.Col, Value: rec.Value})
	}
	return m
}

func (m PSOMatrix) Records() []Record {
	recs := make([]Record, 0, len(m))
	for _, e := range m {
		recs = append(recs, Record{Row: e.COIndex, Col: e.PSOIndex, Value: e.Value})
	}
	return recs
}

func (m PSOMatrix) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]PSOEntry(m))
}

func (m *PSOMatrix) UnmarshalJSON(data []byte) error {
	if isJSONArray(data) {
		return json.Unmarshal(data, (*[]PSOEntry)(m))
	}
	recs, err := decodeSparseMap(data)
	if err != nil {
		return errors.Wrap(err, "decoding co_pso_matrix")
	}
	*m = NewPSOMatrix(recs)
	return nil
}

// NewPayload sparsifies both matrices into a replace-all payload.
func NewPayload(po, pso *Dense) Payload {
	return Payload{
		PO:  NewPOMatrix(po.Sparsify()),
		PSO: NewPSOMatrix(pso.Sparsify()),
	}
}

func isJSONArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}

// decodeSparseMap reads the object shapes some backends answer with:
//
//	{"0-1": 3, "1-2": 2}          flat, keyed by "<co>-<col>"
//	{"0": {"1": 3}, "1": {"2": 2}} nested, keyed by co then col
//
// null decodes to an empty list.
func decodeSparseMap(data []byte) ([]Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	recs := make([]Record, 0, len(raw))
	for key, val := range raw {
		if row, col, ok := splitCellKey(key); ok {
			var lvl Level
			if err := json.Unmarshal(val, &lvl); err != nil {
				return nil, errors.Wrapf(err, "cell %q", key)
			}
			recs = append(recs, Record{Row: row, Col: col, Value: lvl})
			continue
		}

		row, err := strconv.Atoi(key)
		if err != nil {
			return nil, errors.Errorf("invalid cell key %q", key)
		}
		var cols map[string]Level
		if err := json.Unmarshal(val, &cols); err != nil {
			return nil, errors.Wrapf(err, "row %q", key)
		}
		for colKey, lvl := range cols {
			col, err := strconv.Atoi(colKey)
			if err != nil {
				return nil, errors.Errorf("invalid column key %q in row %q", colKey, key)
			}
			recs = append(recs, Record{Row: row, Col: col, Value: lvl})
		}
	}
	SortRecords(recs)
	return recs, nil
}

func splitCellKey(key string) (row, col int, ok bool) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var err error
	if row, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, false
	}
	if col, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, false
	}
	return row, col, true
}
