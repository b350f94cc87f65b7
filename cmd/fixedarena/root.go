package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pavanmanishd/fixedarena"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "fixedarena",
	Short: "Exercise a fixed-capacity first-fit allocator",
	Long: `fixedarena builds a single fixed-size arena allocator, drives it with
synthetic allocate/free workloads and reports free bytes, table occupancy,
fragmentation and the history of requested sizes.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log allocator events to stderr")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	addConfigFlags(rootCmd.PersistentFlags())
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// addConfigFlags registers the allocator dimension flags.
func addConfigFlags(fs *pflag.FlagSet) {
	def := fixedarena.DefaultConfig()
	fs.String("config", "", "TOML file with allocator settings")
	fs.Int("capacity", def.Capacity, "Arena size in bytes")
	fs.Int("slots", def.TableSlots, "Maximum number of simultaneous allocations")
	fs.Int("history-slots", def.HistorySlots, "Number of requested sizes kept in the history")
	fs.String("backing", string(def.Backing), "Arena backing: heap or mmap")
}

// resolveConfig loads --config if given, then applies explicitly set flags.
func resolveConfig(fs *pflag.FlagSet) (fixedarena.Config, error) {
	cfg := fixedarena.DefaultConfig()

	path, _ := fs.GetString("config")
	if path != "" {
		loaded, err := fixedarena.LoadConfig(path)
		if err != nil {
			return fixedarena.Config{}, err
		}
		cfg = loaded
		printVerbose("Loaded config: %s\n", path)
	}

	if fs.Changed("capacity") {
		cfg.Capacity, _ = fs.GetInt("capacity")
	}
	if fs.Changed("slots") {
		cfg.TableSlots, _ = fs.GetInt("slots")
	}
	if fs.Changed("history-slots") {
		cfg.HistorySlots, _ = fs.GetInt("history-slots")
	}
	if fs.Changed("backing") {
		b, _ := fs.GetString("backing")
		cfg.Backing = fixedarena.Backing(b)
	}

	if err := cfg.Validate(); err != nil {
		return fixedarena.Config{}, err
	}
	return cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
