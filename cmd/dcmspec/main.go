// Command dcmspec is a thin CLI driver over specfactory/iodbuilder: it owns
// no parsing logic of its own.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cfg := &runConfig{}

	rootCmd := &cobra.Command{
		Use:           "dcmspec",
		Short:         "Build DICOM standard table and IOD specification models",
		Long:          `dcmspec downloads and parses DICOM standard (and related) documents into structured, cacheable specification models, printed as a table or a tree.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringVar(&cfg.configPath, "config", "", "path to the JSON config file (default: platform user-config dir)")
	rootCmd.PersistentFlags().IntVar(&cfg.includeDepth, "include-depth", -1, "maximum Include recursion depth (-1 = unlimited)")
	rootCmd.PersistentFlags().BoolVar(&cfg.forceParse, "force-parse", false, "reparse the cached source document, ignore the cached model")
	rootCmd.PersistentFlags().BoolVar(&cfg.forceDownload, "force-download", false, "refetch the source document, ignore every cache")
	rootCmd.PersistentFlags().BoolVar(&cfg.forceUpdate, "force-update", false, "recompute a merge even if its cache passes validation")
	rootCmd.PersistentFlags().StringVar(&cfg.printMode, "print-mode", "table", "output format: table|tree|none")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.addPart6, "add-part6", nil, "merge PS3.6 data element columns in: VR, VM, Keyword, Status")
	rootCmd.PersistentFlags().BoolVar(&cfg.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&cfg.verbose, "verbose", false, "enable info-level logging")

	rootCmd.AddCommand(newTableCmd(cfg))
	rootCmd.AddCommand(newIodCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runConfig holds the parsed persistent flags shared by every subcommand.
type runConfig struct {
	configPath    string
	includeDepth  int
	forceParse    bool
	forceDownload bool
	forceUpdate   bool
	printMode     string
	addPart6      []string
	debug         bool
	verbose       bool
}

func (c *runConfig) includeDepthPtr() *int {
	if c.includeDepth < 0 {
		return nil
	}
	d := c.includeDepth
	return &d
}

// logger builds the process-wide slog.Logger from --debug/--verbose. Never
// a package-level global — each command constructs its own and threads it
// through explicitly.
func (c *runConfig) logger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case c.debug:
		level = slog.LevelDebug
	case c.verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
