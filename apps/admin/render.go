package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/curriculum/core/mapping"
)

var (
	isTerminalFunc = term.IsTerminal // mockable
	getSizeFunc    = term.GetSize    // mockable
)

// gridWidth is the narrowest terminal the grid fits in: CO label + 15 columns + separator.
const gridWidth = 6 + (mapping.POCount+mapping.PSOCount)*5 + 2

// useGrid reports whether stdout is a terminal wide enough for the grid.
func useGrid() bool {
	fd := int(os.Stdout.Fd())
	if !isTerminalFunc(fd) {
		return false
	}
	width, _, err := getSizeFunc(fd)
	return err == nil && width >= gridWidth
}

func levelCell(lvl mapping.Level) string {
	if lvl == mapping.NoCorrelation {
		return "-"
	}
	return fmt.Sprint(int(lvl))
}

func render(w io.Writer, outcomes []string, po, pso *mapping.Dense) {
	if useGrid() {
		renderGrid(w, outcomes, po, pso)
	} else {
		renderCompact(w, outcomes, po, pso)
	}
}

func renderGrid(w io.Writer, outcomes []string, po, pso *mapping.Dense) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)

	header := []string{""}
	for col := 1; col <= po.Cols(); col++ {
		header = append(header, mapping.POAxis.Label(col))
	}
	header = append(header, "|")
	for col := 1; col <= pso.Cols(); col++ {
		header = append(header, mapping.PSOAxis.Label(col))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for row := range outcomes {
		cells := []string{fmt.Sprintf("CO%d", row+1)}
		for col := 1; col <= po.Cols(); col++ {
			cells = append(cells, levelCell(po.At(row, col)))
		}
		cells = append(cells, "|")
		for col := 1; col <= pso.Cols(); col++ {
			cells = append(cells, levelCell(pso.At(row, col)))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	_ = tw.Flush()

	fmt.Fprintln(w)
	renderLegend(w, outcomes)
}

func renderCompact(w io.Writer, outcomes []string, po, pso *mapping.Dense) {
	for row, co := range outcomes {
		var links []string
		for _, m := range []*mapping.Dense{po, pso} {
			for col := 1; col <= m.Cols(); col++ {
				if lvl := m.At(row, col); lvl != mapping.NoCorrelation {
					links = append(links, fmt.Sprintf("%s=%d", m.Axis().Label(col), int(lvl)))
				}
			}
		}
		if len(links) == 0 {
			links = []string{"-"}
		}
		fmt.Fprintf(w, "CO%d %s\n    %s\n", row+1, co, strings.Join(links, " "))
	}
}

func renderLegend(w io.Writer, outcomes []string) {
	for row, co := range outcomes {
		fmt.Fprintf(w, "CO%d  %s\n", row+1, co)
	}
	levels := make([]string, 0, len(mapping.Levels))
	for _, lvl := range mapping.Levels {
		levels = append(levels, fmt.Sprintf("%s=%s", levelCell(lvl), lvl))
	}
	fmt.Fprintln(w, strings.Join(levels, "  "))
}

func renderCourses(w io.Writer, courses []mapping.CourseSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOs\tCO-PO\tCO-PSO\tUPDATED")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", c.ID, c.Title, c.OutcomeCount, c.POLinks, c.PSOLinks, c.UpdatedAt.Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
}
