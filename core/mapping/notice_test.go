package mapping

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChangeNotice(t *testing.T) {
	course := Course{ID: "CS101", Title: "Intro", Outcomes: []string{"Understand X", "Apply Y"}}
	to := []mail.Address{{Name: "Dean", Address: "dean@curriculum.test"}}

	diff := Diff{
		PrevPO:  []Record{{Row: 0, Col: 1, Value: High}},
		PrevPSO: []Record{},
		PO:      []Record{{Row: 0, Col: 1, Value: Medium}},
		PSO:     []Record{{Row: 1, Col: 2, Value: Low}},
	}
	msg, changed, err := NewChangeNotice("Curriculum", course, diff, to)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, to, msg.To)
	assert.Equal(t, "[Curriculum] CO-PO/PSO mapping updated: Intro (CS101)", msg.Subject)

	lines := strings.Split(msg.BodyStr, "\n")
	assert.Contains(t, lines, "CO-PO links: 1 -> 1")
	assert.Contains(t, lines, "CO-PSO links: 0 -> 1")
	assert.Contains(t, lines, "--- previous")
	assert.Contains(t, lines, "+++ current")
	assert.Contains(t, lines, "-CO1 -> PO1: High (Understand X)")
	assert.Contains(t, lines, "+CO1 -> PO1: Medium (Understand X)")
	assert.Contains(t, lines, "+CO2 -> PSO2: Low (Apply Y)")
}

func TestNewChangeNotice_unchanged(t *testing.T) {
	recs := []Record{{Row: 0, Col: 1, Value: High}}
	msg, changed, err := NewChangeNotice("Curriculum", Course{ID: "CS101"}, Diff{PrevPO: recs, PO: recs}, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, msg)

	msg, changed, err = NewChangeNotice("Curriculum", Course{ID: "CS101"}, Diff{}, nil)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, msg)
}
