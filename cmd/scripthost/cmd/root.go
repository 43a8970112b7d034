// Package cmd implements scripthost's cobra command tree, generalized from
// the teacher's cmd/root.go (global flags + viper config file + logrus
// logger wired once at the root, afero.Fs swapped out in tests rather than
// hitting the real filesystem).
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// defaultFs is swapped for an afero.NewMemMapFs() in tests, mirroring the
// teacher's cmd/common.go defaultFs.
var defaultFs = afero.NewOsFs()

var (
	logLevel   string
	configFile string
	logger     = logrus.New()
)

// Execute runs the root command, exiting the process with a non-zero status
// on error (cobra already printed it).
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scripthost",
		Short: "Run HTML fixtures through the headless scripted DOM harness",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"logging level (panic, fatal, error, warn, info, debug, trace)")
	root.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./scripthost.yaml if present)")

	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

// initConfig wires viper the way the teacher's root.go does: an optional
// config file plus SCRIPTHOST_-prefixed environment variables, consulted
// only for settings a flag didn't already set explicitly.
func initConfig(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix("SCRIPTHOST")
	v.AutomaticEnv()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}
	}
	if v.IsSet("log-level") && !cmd.Flags().Changed("log-level") {
		logLevel = v.GetString("log-level")
	}
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	return nil
}
