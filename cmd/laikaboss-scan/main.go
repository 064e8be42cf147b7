// Command laikaboss-scan is a minimal driver over the core: load a
// framework config, scan one file, print the resulting ScanResult as
// JSON (or YAML with --format yaml). It exists only to give the ambient cobra/pflag stack a home
// (spec.md §1 scopes CLI argument parsing, transport, and deployment
// out of the core itself).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nigelli/laikaboss/internal/config"
	"github.com/Nigelli/laikaboss/internal/logging"
	"github.com/Nigelli/laikaboss/internal/modules"
	"github.com/Nigelli/laikaboss/internal/runtime"
	"github.com/Nigelli/laikaboss/internal/scandriver"
	"github.com/Nigelli/laikaboss/internal/scanobject"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var logLevel string
	var verbosity string
	var source string
	var format string

	cmd := &cobra.Command{
		Use:   "laikaboss-scan <file>",
		Short: "Scan a single file through the core and print its ScanResult",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logLevel, true)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			registry := runtime.NewRegistry()
			modules.RegisterBuiltins(registry)

			sdCfg, err := cfg.Build(registry)
			if err != nil {
				return err
			}

			buf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			ev := scanobject.ExternalVars{Source: source, Filename: args[0]}
			result, err := scandriver.Scan(context.Background(), buf, ev, sdCfg, scanobject.Verbosity(verbosity))
			if err != nil {
				return err
			}

			if format == "yaml" {
				data, err := result.ToYAML()
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "laikaboss.yaml", "path to the framework config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&verbosity, "verbosity", string(scanobject.Full), "result verbosity (MINIMAL, FULL, EVERYTHING, NO_BUFFER)")
	cmd.Flags().StringVar(&source, "source", "cli", "external_vars.source tag for this submission")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")

	return cmd
}
