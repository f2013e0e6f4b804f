package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type globalFlags struct {
	verbose bool
	timeout time.Duration
}

type app struct {
	flags  globalFlags
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "dynui",
		Short: "Drive dynamic page behaviour from a page config",
		Long: `dynui loads a page document (YAML or JSON) and the HTML page it names,
then applies visibility rules, repeatable field groups, remote record
bindings and reveal sequences to it.

Commands render the resulting page, sync endpoints, explore a page
interactively, or serve a sample record collection.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if a.flags.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger.Named("dynui")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&a.flags.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().DurationVar(&a.flags.timeout, "timeout", 30*time.Second, "Timeout for one-shot commands")

	root.AddCommand(
		newRenderCmd(a),
		newSyncCmd(a),
		newInteractiveCmd(a),
		newServeCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
