package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/baldas/tracegen/internal/database"
	"github.com/baldas/tracegen/internal/driver"
	"github.com/baldas/tracegen/internal/util/slogx"
	"github.com/baldas/tracegen/internal/util/style"
	"github.com/baldas/tracegen/internal/version"
)

var (
	stdout = colorable.NewColorableStdout()
	stderr = colorable.NewColorableStderr()
)

var (
	aDoNotAlternate bool
	aOps            int
	aInitial        int
	aThreads        int
	aRange          int
	aSeed           int64
	aUpdate         int
	aTraceOut       string
	aOptsPath       string
	aDBOpts         database.Options
	aQuiet          bool
	aLogLevel       string
)

// Set when the final set size does not match the expected one; turned into a
// distinguishable exit code after cleanup.
var aMismatch bool

var cmd = cobra.Command{
	Use:   "tracegen",
	Short: "Generates operation traces from a concurrently stressed integer set",
	Long: `Tracegen builds a shared ordered integer set, hammers it from several worker
goroutines under a configurable mix of inserts, removes and membership
queries, and emits a trace line for every operation attempt. The set is
intentionally unsynchronized: traces produced by concurrent runs may contain
the artifacts of genuine data races, which is what external checkers consume
them for.

The trace is written to stderr by default; redirect it with --trace-output.
The human-readable run summary goes to stdout.
`,
	Version: version.Version,
	Args:    cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		defer signal.Stop(sig)

		go func() {
			select {
			case <-sig:
				cancel()
			case <-ctx.Done():
			}
			<-sig
			os.Exit(1)
		}()

		if cmd.Flags().Lookup("options").Changed {
			opts, err := loadOptions(aOptsPath)
			if err != nil {
				return fmt.Errorf("options file: %w", err)
			}
			opts.apply(cmd)
		}

		o := driver.Options{
			Ops:       aOps,
			Initial:   aInitial,
			Threads:   aThreads,
			Range:     aRange,
			Seed:      aSeed,
			Update:    aUpdate,
			Alternate: !aDoNotAlternate,
		}
		if err := o.Validate(); err != nil {
			return err
		}

		var level slog.Level
		if err := level.UnmarshalText([]byte(aLogLevel)); err != nil {
			return fmt.Errorf("bad log level %q: %w", aLogLevel, err)
		}

		// The trace occupies stderr unless redirected, so logs are only
		// emitted once stderr is free of trace data.
		var trace io.Writer = os.Stderr
		log := slogx.DiscardLogger()
		if aTraceOut != "" {
			f, err := os.Create(aTraceOut)
			if err != nil {
				return fmt.Errorf("create trace output: %w", err)
			}
			defer f.Close()
			trace = f
			log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}

		var db *database.DB
		if aDBOpts.Path != "" {
			var err error
			db, err = database.New(log, aDBOpts)
			if err != nil {
				return fmt.Errorf("run log: %w", err)
			}
			defer db.Close()
		}

		rep, err := driver.Run(log, o, trace)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}

		var runName string
		if db != nil {
			rec := database.NewRun(o, rep)
			if err := db.SaveRun(ctx, rec); err != nil {
				return fmt.Errorf("save run: %w", err)
			}
			if cnt, err := db.CountRuns(ctx); err == nil {
				log.Info("run recorded", slog.String("name", rec.Name), slog.Int64("total", cnt))
			}
			runName = rec.Name
		}

		if !aQuiet {
			printSummary(o, rep, runName)
		}
		if !rep.SizeMatch() {
			aMismatch = true
		}
		return nil
	},
}

func printSummary(o driver.Options, rep driver.Report, runName string) {
	fmt.Fprintf(stdout, "Operations   : %d\n", o.Ops)
	fmt.Fprintf(stdout, "Initial size : %d\n", o.Initial)
	fmt.Fprintf(stdout, "Nb threads   : %d\n", o.Threads)
	fmt.Fprintf(stdout, "Value range  : %d\n", o.Range)
	fmt.Fprintf(stdout, "Seed         : %d\n", o.Seed)
	fmt.Fprintf(stdout, "Update rate  : %d\n", o.Update)
	fmt.Fprintf(stdout, "Alternate    : %v\n", o.Alternate)
	if runName != "" {
		fmt.Fprintf(stdout, "Run name     : %s\n", runName)
	}
	fmt.Fprintf(stdout, "Set size     : %d\n", rep.InitialSize)
	for i, st := range rep.Threads {
		fmt.Fprintf(stdout, "Thread %d\n", i)
		fmt.Fprintf(stdout, "  #add        : %d\n", st.NbAdd)
		fmt.Fprintf(stdout, "  #remove     : %d\n", st.NbRemove)
		fmt.Fprintf(stdout, "  #contains   : %d\n", st.NbContains)
		fmt.Fprintf(stdout, "  #found      : %d\n", st.NbFound)
	}
	verdict := style.WithS("ok", 32, 1)
	if !rep.SizeMatch() {
		verdict = style.WithS("MISMATCH", 31, 1)
	}
	fmt.Fprintf(stdout, "Set size      : %d (expected: %d) %s\n",
		rep.ActualSize, rep.ExpectedSize, verdict)
}

func main() {
	cmd.SetOutput(stdout)
	cmd.SetErr(stderr)
	cmd.SetErrPrefix(style.WithSE("error:", 31, 1))
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		// Keep the historical behavior of this tool: an unrecognized flag
		// prints a hint and exits successfully.
		fmt.Fprintf(stdout, "%v\nUse -h or --help for help\n", err)
		os.Exit(0)
		return nil
	})
	cmd.Flags().BoolVarP(
		&aDoNotAlternate, "do-not-alternate", "a", false,
		"do not alternate insertions and removals")
	cmd.Flags().IntVarP(
		&aOps, "operations", "o", driver.DefaultOps,
		"number of operations per thread")
	cmd.Flags().IntVarP(
		&aInitial, "initial-size", "i", driver.DefaultInitial,
		"number of elements to insert before the test")
	cmd.Flags().IntVarP(
		&aThreads, "num-threads", "n", driver.DefaultThreads,
		"number of worker threads")
	cmd.Flags().IntVarP(
		&aRange, "range", "r", driver.DefaultRange,
		"range of integer values inserted in the set")
	cmd.Flags().Int64VarP(
		&aSeed, "seed", "s", driver.DefaultSeed,
		"RNG seed (0 = time-based)")
	cmd.Flags().IntVarP(
		&aUpdate, "update-rate", "u", driver.DefaultUpdate,
		"percentage of update operations")
	cmd.Flags().StringVarP(
		&aTraceOut, "trace-output", "t", "",
		"file where to write the trace (default stderr)")
	cmd.Flags().StringVarP(
		&aOptsPath, "options", "c", "",
		"TOML options file; explicit flags take precedence")
	cmd.Flags().StringVarP(
		&aDBOpts.Path, "db", "d", "",
		"sqlite file where to record the run summary")
	cmd.Flags().BoolVarP(
		&aQuiet, "quiet", "q", false,
		"do not print the run summary")
	cmd.Flags().StringVar(
		&aLogLevel, "log-level", "info",
		"log level (logs are emitted only when --trace-output frees stderr)")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
	if aMismatch {
		os.Exit(2)
	}
}
