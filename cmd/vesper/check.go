package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"vesper/internal/diagfmt"
	"vesper/internal/driver"
	"vesper/internal/observ"
	"vesper/internal/project"
	"vesper/internal/ui"
)

var (
	checkFormat   string
	checkJobs     int
	checkProgress bool
	checkTimings  bool
)

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "parallel workers for directory mode (0 = all CPUs)")
	checkCmd.Flags().BoolVar(&checkProgress, "progress", false, "show live progress for directory checks")
	checkCmd.Flags().BoolVar(&checkTimings, "timings", false, "print per-phase wall clock timings")
}

var checkCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Resolve signatures and dispatch tables, report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opts, err := buildOptions(cmd, path)
		if err != nil {
			return err
		}
		opts.Jobs = checkJobs

		format := strings.ToLower(checkFormat)
		if format != "pretty" && format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", checkFormat)
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %q: %w", path, err)
		}

		tm := observ.NewTimer()
		checkPhase := tm.Begin("check")

		var results []*driver.Result
		if info.IsDir() {
			results, err = checkDirectory(cmd, path, opts, format)
			if err != nil {
				return err
			}
			tm.End(checkPhase, fmt.Sprintf("%d manifest(s)", len(results)))
		} else {
			res, err := driver.CheckFile(path, opts)
			if err != nil {
				return err
			}
			results = []*driver.Result{res}
			tm.End(checkPhase, path)
		}

		renderPhase := tm.Begin("render")
		hadErrors, err := renderResults(cmd, results, format)
		if err != nil {
			return err
		}
		tm.End(renderPhase, "")

		if checkTimings {
			fmt.Fprint(cmd.OutOrStdout(), tm.Summary())
		}
		if hadErrors {
			// Exiting directly skips the post-run hook, flush profiles here.
			_ = profSession.Stop()
			os.Exit(1)
		}
		return nil
	},
}

// checkDirectory runs the directory pipeline, with the interactive
// progress view when requested and the output is a terminal.
func checkDirectory(cmd *cobra.Command, path string, opts driver.Options, format string) ([]*driver.Result, error) {
	if !checkProgress || format != "pretty" || !isTerminal(os.Stdout) {
		dirRes, err := driver.CheckDir(cmd.Context(), path, opts)
		if err != nil {
			return nil, err
		}
		return dirRes.Results, nil
	}

	files, err := driver.ListManifests(path)
	if err != nil {
		return nil, err
	}
	events := make(chan driver.Event, len(files)*4)
	opts.Progress = driver.ChannelSink{Ch: events}

	model := ui.NewCheckModel(fmt.Sprintf("checking %s", path), files, events)
	prog := tea.NewProgram(model)

	var dirRes *driver.DirResult
	var checkErr error
	go func() {
		dirRes, checkErr = driver.CheckDir(cmd.Context(), path, opts)
		close(events)
	}()
	if _, err := prog.Run(); err != nil {
		return nil, fmt.Errorf("progress display: %w", err)
	}
	if checkErr != nil {
		return nil, checkErr
	}
	return dirRes.Results, nil
}

// buildOptions merges project configuration with command-line overrides.
func buildOptions(cmd *cobra.Command, path string) (driver.Options, error) {
	cfg, err := project.DiscoverConfig(filepath.Dir(path))
	if err != nil {
		return driver.Options{}, err
	}
	opts := driver.Options{MaxDiagnostics: cfg.MaxDiagnostics, Jobs: cfg.Jobs}
	if limit, err := cmd.Flags().GetInt("max-diagnostics"); err == nil && limit > 0 {
		opts.MaxDiagnostics = limit
	}
	return opts, nil
}

func renderResults(cmd *cobra.Command, results []*driver.Result, format string) (hadErrors bool, err error) {
	colorize, err := useColor(cmd)
	if err != nil {
		return false, err
	}
	out := cmd.OutOrStdout()
	total := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		total += res.Bag.Len()
		if res.HasErrors() {
			hadErrors = true
		}
		switch format {
		case "json":
			jopts := diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}
			if err := diagfmt.JSON(out, res.Bag, res.FileSet, jopts); err != nil {
				return hadErrors, err
			}
		default:
			popts := diagfmt.PrettyOpts{Color: colorize, ShowNotes: true, ShowFixes: true}
			diagfmt.Pretty(out, res.Bag, res.FileSet, popts)
		}
	}
	if format == "pretty" {
		if hadErrors {
			fmt.Fprintf(out, "check failed: %d diagnostic(s)\n", total)
		} else {
			fmt.Fprintf(out, "ok: %d file(s), %d diagnostic(s)\n", len(results), total)
		}
	}
	return hadErrors, nil
}
