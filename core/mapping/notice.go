package mapping

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/curriculum/core"
)

// Diff holds a course mapping before and after a replace.
type Diff struct {
	PrevPO, PrevPSO []Record
	PO, PSO         []Record
}

// NewChangeNotice builds the email sent to the notice recipients after a mapping replace.
// changed is false when the replace did not modify any cell; no email should be sent then.
func NewChangeNotice(appName string, course Course, diff Diff, to []mail.Address) (msg *core.EmailMessage, changed bool, err error) {
	prev := append(describe(POAxis, course.Outcomes, diff.PrevPO), describe(PSOAxis, course.Outcomes, diff.PrevPSO)...)
	curr := append(describe(POAxis, course.Outcomes, diff.PO), describe(PSOAxis, course.Outcomes, diff.PSO)...)

	udiff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        prev,
		B:        curr,
		FromFile: "previous",
		ToFile:   "current",
		Context:  1,
	})
	if err != nil {
		return nil, false, err
	}
	if udiff == "" {
		return nil, false, nil
	}

	name := course.ID
	if course.Title != "" {
		name = fmt.Sprintf("%s (%s)", course.Title, course.ID)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "The outcome mapping of %s has been replaced.\n\n", name)
	fmt.Fprintf(&body, "CO-PO links: %d -> %d\n", len(diff.PrevPO), len(diff.PO))
	fmt.Fprintf(&body, "CO-PSO links: %d -> %d\n\n", len(diff.PrevPSO), len(diff.PSO))
	body.WriteString(udiff)

	msg = &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("[%s] CO-PO/PSO mapping updated: %s", appName, name),
		BodyStr: body.String(),
	}
	return msg, true, nil
}

// describe renders one line per record, e.g. "CO1 -> PO2: High (Understand X)\n".
func describe(axis Axis, outcomes []string, recs []Record) []string {
	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		line := fmt.Sprintf("CO%d -> %s: %s", rec.Row+1, axis.Label(rec.Col), rec.Value)
		if rec.Row >= 0 && rec.Row < len(outcomes) {
			line += " (" + outcomes[rec.Row] + ")"
		}
		lines = append(lines, line+"\n")
	}
	return lines
}
