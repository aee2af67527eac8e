package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
)

var errHelp = errors.New("help provided")

// apiClient is the part of mappingapi.Client the CLI needs.
type apiClient interface {
	mapping.Backend
	SetOutcomes(ctx context.Context, courseID string, so mapping.SetOutcomes) (mapping.Course, error)
	ListCourses(ctx context.Context) ([]mapping.CourseSummary, error)
}

type commandLine struct {
	conf   *core.Config
	client apiClient
	out    io.Writer
	openDB func() (*sql.DB, error)
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                  - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  courses                                                 - list courses")
	fmt.Fprintln(cli.out, "  outcomes -course ID [-title TITLE] CO...                - (re)define the outcomes of a course")
	fmt.Fprintln(cli.out, "  mapping show -course ID                                 - print the CO-PO & CO-PSO matrices")
	fmt.Fprintln(cli.out, "  mapping set -course ID -axis po|pso -co N -col M -value V - set one cell (CO N is 1-based)")
	fmt.Fprintln(cli.out, "  mapping clear -course ID                                - reset every cell to 0")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

// parse returns errHelp when -h is asked for.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "courses":
		return cli.listCourses(ctx)

	case "outcomes":
		outcomesCmd := cli.newFlagSet("outcomes")
		courseID := outcomesCmd.String("course", "", "The course identifier.")
		title := outcomesCmd.String("title", "", "The course title (kept as-is when empty).")
		if err := parse(outcomesCmd, args[2:]); err != nil {
			return err
		}
		if *courseID == "" || outcomesCmd.NArg() == 0 {
			outcomesCmd.Usage()
			return errHelp
		}
		return cli.setOutcomes(ctx, *courseID, *title, outcomesCmd.Args())

	case "mapping":
		return cli.runMapping(ctx, args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) runMapping(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}

	cmd := cli.newFlagSet("mapping " + args[0])
	courseID := cmd.String("course", "", "The course identifier.")

	switch args[0] {
	case "show":
		if err := parse(cmd, args[1:]); err != nil {
			return err
		}
		if *courseID == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.showMapping(ctx, *courseID)

	case "set":
		axisName := cmd.String("axis", "po", "The program outcome axis: po or pso.")
		co := cmd.Int("co", 0, "The course outcome number, starting at 1.")
		col := cmd.Int("col", 0, "The PO (1-12) or PSO (1-3) number.")
		value := cmd.String("value", "", "The correlation level: 0-3 or none|low|medium|high.")
		if err := parse(cmd, args[1:]); err != nil {
			return err
		}
		if *courseID == "" || *co < 1 || *col < 1 || *value == "" {
			cmd.Usage()
			return errHelp
		}
		axis, err := mapping.AxisByName(*axisName)
		if err != nil {
			return err
		}
		lvl, err := mapping.ParseLevel(*value)
		if err != nil {
			return err
		}
		return cli.setCell(ctx, *courseID, axis, *co-1, *col, lvl)

	case "clear":
		if err := parse(cmd, args[1:]); err != nil {
			return err
		}
		if *courseID == "" {
			cmd.Usage()
			return errHelp
		}
		return cli.clearMapping(ctx, *courseID)

	default:
		cli.printUsage()
		return errHelp
	}
}
