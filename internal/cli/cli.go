// Package cli wires scenarios, load dispatch, aggregation, reporting, and run
// history together for command line execution.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mohamed-abdelsamei/loadster/internal/auth"
	"github.com/mohamed-abdelsamei/loadster/internal/config"
	"github.com/mohamed-abdelsamei/loadster/internal/dispatch"
	"github.com/mohamed-abdelsamei/loadster/internal/report"
	"github.com/mohamed-abdelsamei/loadster/internal/scenario"
	"github.com/mohamed-abdelsamei/loadster/internal/stats"
	"github.com/mohamed-abdelsamei/loadster/internal/store"
	"github.com/mohamed-abdelsamei/loadster/internal/types"
)

// RunOptions contains options for running a load test in CLI mode.
// A zero field means "not given": the scenario file value, or failing that the
// package default, applies.
type RunOptions struct {
	URL          string
	Method       string
	Users        int
	Timeout      time.Duration
	Headers      []string // raw "Name: Value" pairs, appended after scenario headers
	Body         string
	Verbose      bool
	Output       string // save per-request results to this file
	ScenarioPath string // scenario file with run settings
	Insecure     bool   // skip TLS certificate verification
	DatabasePath string // run history database (empty disables history)

	Stdout io.Writer // defaults to os.Stdout
	Stderr io.Writer // defaults to os.Stderr
}

// Run executes a load test: resolve the scenario, fire all users at once,
// aggregate the samples, and render the report.
func Run(ctx context.Context, opts RunOptions) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	sc := &scenario.Scenario{}
	if opts.ScenarioPath != "" {
		loaded, err := scenario.Load(opts.ScenarioPath)
		if err != nil {
			return err
		}
		sc = loaded
	}

	// Explicit flags override the scenario. Headers accumulate instead so a
	// flag can layer on top of the scenario's set.
	if opts.URL != "" {
		sc.URL = opts.URL
	}
	if opts.Method != "" {
		sc.Method = opts.Method
	}
	if opts.Users > 0 {
		sc.Users = opts.Users
	}
	if opts.Timeout > 0 {
		sc.Timeout = opts.Timeout.String()
	}
	if len(opts.Headers) > 0 {
		sc.Headers = append(sc.Headers, opts.Headers...)
	}
	if opts.Body != "" {
		sc.Body = opts.Body
	}
	if opts.Output != "" {
		sc.Output = opts.Output
	}
	if opts.Insecure {
		if sc.TLS == nil {
			sc.TLS = &scenario.TLS{}
		}
		sc.TLS.InsecureSkipVerify = true
	}

	spec, err := sc.Spec()
	if err != nil {
		return err
	}

	// Mint the bearer token up front so every worker carries the same
	// Authorization header.
	if sc.OAuth != nil {
		header, err := auth.Config{
			TokenURL:     sc.OAuth.TokenURL,
			ClientID:     sc.OAuth.ClientID,
			ClientSecret: sc.OAuth.ClientSecret,
			Scopes:       sc.OAuth.Scopes,
		}.Header(ctx)
		if err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
		spec.Headers = append([]types.Header{header}, spec.Headers...)
	}

	dispatcher := dispatch.New(dispatch.Options{
		Verbose: opts.Verbose,
		Logger:  log.New(stderr, "", 0),
		TLS:     sc.TLSConfig(),
	})

	started := time.Now().UTC()
	samples, err := dispatcher.Dispatch(ctx, spec)
	if err != nil {
		return err
	}

	rep := stats.Aggregate(samples)

	dropped := spec.Concurrency - len(samples)
	if dropped > 0 {
		fmt.Fprintf(stderr, "Warning: %d of %d requests failed to complete\n", dropped, spec.Concurrency)
	}

	report.Render(stdout, rep, spec.URL)

	if sc.Output != "" {
		if err := writeSamples(sc.Output, samples); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Results saved to %s\n", sc.Output)
	}

	// History is best effort; a storage failure never fails the run.
	if opts.DatabasePath != "" {
		if err := saveHistory(opts.DatabasePath, spec, started, samples, rep, dropped); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to save run history: %v\n", err)
		}
	}

	return nil
}

// HistoryOptions contains options for listing past runs.
type HistoryOptions struct {
	DatabasePath string
	Limit        int // maximum runs to show (0 = all)

	Stdout io.Writer // defaults to os.Stdout
}

// History prints the most recent runs from the history database, newest first.
func History(opts HistoryOptions) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	st, err := store.Open(opts.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(opts.Limit)
	if err != nil {
		return err
	}

	report.RenderRunList(stdout, runs)

	if len(runs) > 0 {
		totals, err := st.Totals()
		if err != nil {
			return err
		}
		report.RenderRunTotals(stdout, totals)
	}
	return nil
}

// writeSamples saves one line per completed request to path.
func writeSamples(path string, samples []types.Sample) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, config.FilePermissions)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	return report.WriteSamples(file, samples)
}

// saveHistory records the finished run and its samples in the history database.
func saveHistory(path string, spec types.RequestSpec, started time.Time, samples []types.Sample, rep stats.Report, dropped int) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	run := &store.Run{
		TargetURL:   spec.URL,
		Method:      spec.Method.String(),
		Concurrency: spec.Concurrency,
		TimeoutMs:   spec.Timeout.Milliseconds(),
		StartedAt:   started,
		Status:      store.StatusRunning,
	}
	if err := st.CreateRun(run); err != nil {
		return err
	}
	if err := st.SaveSamples(run.ID, samples); err != nil {
		return err
	}
	return st.FinishRun(run, rep, dropped)
}
