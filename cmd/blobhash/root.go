package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tamirms/blobhash"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	cfg Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "blobhash",
		Short: "Build and inspect relocatable hash table blobs",
		Long: `blobhash builds read-only hash maps and multimaps from CSV input,
writes them as blob files that can be memory-mapped or fetched from object
storage, and inspects existing blob files.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "JSONC config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Output results and logs in JSON format")

	root.AddCommand(
		newBuildCmd(a),
		newStatsCmd(a),
		newVerifyCmd(a),
		newGetCmd(a),
		newShellCmd(a),
		newPushCmd(a),
		newPullCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	level, err := blobhash.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	a.cfg = cfg
	if a.jsonOut {
		a.log = blobhash.NewJSONLogger(level)
	} else {
		a.log = blobhash.NewTextLogger(level)
	}
	return nil
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
