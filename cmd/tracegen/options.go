package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/baldas/tracegen/internal/database"
)

// Options mirrors the flag surface in an options file. Pointer fields
// distinguish "not set" from a zero value, since zero is meaningful for
// operations, initial-size and seed.
type Options struct {
	Operations     *int              `toml:"operations"`
	InitialSize    *int              `toml:"initial-size"`
	NumThreads     *int              `toml:"num-threads"`
	Range          *int              `toml:"range"`
	Seed           *int64            `toml:"seed"`
	UpdateRate     *int              `toml:"update-rate"`
	DoNotAlternate *bool             `toml:"do-not-alternate"`
	TraceOutput    string            `toml:"trace-output"`
	DB             *database.Options `toml:"db"`
}

func loadOptions(path string) (Options, error) {
	var opts Options
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options file: %w", err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("unmarshal options file: %w", err)
	}
	return opts, nil
}

// apply copies file settings into the flag-backed variables. Flags given
// explicitly on the command line win over the file.
func (o Options) apply(cmd *cobra.Command) {
	flags := cmd.Flags()
	if o.Operations != nil && !flags.Changed("operations") {
		aOps = *o.Operations
	}
	if o.InitialSize != nil && !flags.Changed("initial-size") {
		aInitial = *o.InitialSize
	}
	if o.NumThreads != nil && !flags.Changed("num-threads") {
		aThreads = *o.NumThreads
	}
	if o.Range != nil && !flags.Changed("range") {
		aRange = *o.Range
	}
	if o.Seed != nil && !flags.Changed("seed") {
		aSeed = *o.Seed
	}
	if o.UpdateRate != nil && !flags.Changed("update-rate") {
		aUpdate = *o.UpdateRate
	}
	if o.DoNotAlternate != nil && !flags.Changed("do-not-alternate") {
		aDoNotAlternate = *o.DoNotAlternate
	}
	if o.TraceOutput != "" && !flags.Changed("trace-output") {
		aTraceOut = o.TraceOutput
	}
	if o.DB != nil {
		path := aDBOpts.Path
		aDBOpts = *o.DB
		if flags.Changed("db") {
			aDBOpts.Path = path
		}
	}
}
