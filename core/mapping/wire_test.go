package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_UnmarshalJSON(t *testing.T) {
	want := Mapping{
		Outcomes: []string{"Understand X", "Apply Y"},
		PO:       POMatrix{{COIndex: 0, POIndex: 1, Value: High}, {COIndex: 1, POIndex: 12, Value: Low}},
		PSO:      PSOMatrix{{COIndex: 1, PSOIndex: 2, Value: Medium}},
	}

	tests := []struct {
		name string
		body string
	}{
		{
			name: "array of triples",
			body: `{"cos":["Understand X","Apply Y"],
				"co_po_matrix":[{"co_index":0,"po_index":1,"mapping_value":3},{"co_index":1,"po_index":12,"mapping_value":1}],
				"co_pso_matrix":[{"co_index":1,"pso_index":2,"mapping_value":2}]}`,
		},
		{
			name: "flat object map",
			body: `{"cos":["Understand X","Apply Y"],
				"co_po_matrix":{"1-12":1,"0-1":3},
				"co_pso_matrix":{"1-2":2}}`,
		},
		{
			name: "nested object map",
			body: `{"cos":["Understand X","Apply Y"],
				"co_po_matrix":{"1":{"12":1},"0":{"1":3}},
				"co_pso_matrix":{"1":{"2":2}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Mapping
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestMapping_UnmarshalJSON_nullAndInvalid(t *testing.T) {
	var m Mapping
	require.NoError(t, json.Unmarshal([]byte(`{"cos":[],"co_po_matrix":null,"co_pso_matrix":{}}`), &m))
	assert.Empty(t, m.PO)
	assert.Empty(t, m.PSO)

	err := json.Unmarshal([]byte(`{"co_po_matrix":{"x-y":1}}`), &m)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"co_pso_matrix":{"0":{"a":1}}}`), &m)
	assert.Error(t, err)
}

func TestPayload_MarshalJSON(t *testing.T) {
	po := NewDense(POAxis, 2)
	pso := NewDense(PSOAxis, 2)
	require.NoError(t, pso.Set(1, 2, Medium))

	data, err := json.Marshal(NewPayload(po, pso))
	require.NoError(t, err)
	assert.JSONEq(t, `{"co_po_matrix":[],"co_pso_matrix":[{"co_index":1,"pso_index":2,"mapping_value":2}]}`, string(data))

	data, err = json.Marshal(Payload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"co_po_matrix":[],"co_pso_matrix":[]}`, string(data))
}
