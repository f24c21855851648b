package main

import (
	"os"

	"github.com/spf13/cobra"

	obs "gridsync-logstream/internal/infrastructure/observability"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootFlags struct {
	configFile string
	nodeURL    string
	nodeDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:           "logstream",
		Short:         "Follow a storage node's streaming event log",
		Version:       obs.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&f.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	root.PersistentFlags().StringVar(&f.nodeURL, "node-url", "", "node base address, e.g. http://127.0.0.1:3456")
	root.PersistentFlags().StringVar(&f.nodeDir, "node-dir", "", "node directory containing node.url")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug|info|warn|error")

	root.AddCommand(newServeCmd(&f), newTailCmd(&f))
	return root
}
