package main

import (
	"context"
	"fmt"

	"github.com/trezcool/curriculum/core/mapping"
)

func (cli *commandLine) newEditor(courseID string) *mapping.Editor {
	return mapping.NewEditor(cli.client, courseID, cli.conf.Editor.NoticeTTL)
}

// load fetches the course mapping. It prints the guard message and returns mapping.ErrNoOutcomes
// when the course has no outcomes.
func (cli *commandLine) load(ctx context.Context, ed *mapping.Editor) error {
	if err := ed.Load(ctx); err != nil {
		fmt.Fprintln(cli.out, ed.Notice().Message)
		return err
	}
	if ed.State() == mapping.StateEmpty {
		cli.printGuard(ed.CourseID())
		return mapping.ErrNoOutcomes
	}
	return nil
}

func (cli *commandLine) printGuard(courseID string) {
	fmt.Fprintln(cli.out, mapping.GuardMessage)
	fmt.Fprintf(cli.out, "  admin outcomes -course %s \"CO 1\" \"CO 2\" ...\n", courseID)
}

func (cli *commandLine) save(ctx context.Context, ed *mapping.Editor) error {
	err := ed.Save(ctx)
	fmt.Fprintln(cli.out, ed.Notice().Message)
	return err
}

func (cli *commandLine) showMapping(ctx context.Context, courseID string) error {
	ed := cli.newEditor(courseID)
	defer ed.Close()

	if err := ed.Load(ctx); err != nil {
		fmt.Fprintln(cli.out, ed.Notice().Message)
		return err
	}
	if ed.State() == mapping.StateEmpty {
		cli.printGuard(courseID)
		return nil
	}

	po, err := ed.Matrix(mapping.POAxis)
	if err != nil {
		return err
	}
	pso, err := ed.Matrix(mapping.PSOAxis)
	if err != nil {
		return err
	}
	render(cli.out, ed.Outcomes(), po, pso)
	return nil
}

func (cli *commandLine) setCell(ctx context.Context, courseID string, axis mapping.Axis, row, col int, lvl mapping.Level) error {
	ed := cli.newEditor(courseID)
	defer ed.Close()

	if err := cli.load(ctx, ed); err != nil {
		return err
	}
	if err := ed.Set(axis, row, col, lvl); err != nil {
		return err
	}
	return cli.save(ctx, ed)
}

func (cli *commandLine) clearMapping(ctx context.Context, courseID string) error {
	ed := cli.newEditor(courseID)
	defer ed.Close()

	if err := cli.load(ctx, ed); err != nil {
		return err
	}
	ed.Reset()
	return cli.save(ctx, ed)
}

func (cli *commandLine) setOutcomes(ctx context.Context, courseID, title string, outcomes []string) error {
	course, err := cli.client.SetOutcomes(ctx, courseID, mapping.SetOutcomes{Title: title, Outcomes: outcomes})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s: %d outcome(s)\n", course.ID, len(course.Outcomes))
	for i, co := range course.Outcomes {
		fmt.Fprintf(cli.out, "  CO%d  %s\n", i+1, co)
	}
	return nil
}

func (cli *commandLine) listCourses(ctx context.Context) error {
	courses, err := cli.client.ListCourses(ctx)
	if err != nil {
		return err
	}
	renderCourses(cli.out, courses)
	return nil
}
