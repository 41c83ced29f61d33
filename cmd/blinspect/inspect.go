package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blinspect/inspector"
	goble "github.com/srg/blinspect/internal/device/go-ble"
	"github.com/srg/blinspect/pkg/config"
)

// progressEnabled decides whether the progress line is drawn on stderr
var progressEnabled = func() bool {
	return isTerminal(os.Stderr)
}

// newRootCmd builds the blinspect command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blinspect [device-address]",
		Short: "Inspect GATT services and characteristics of a BLE device",
		Long: `Connects to a Bluetooth Low Energy device by address, lists its services and
characteristics with their property flags, and reads the value of every readable characteristic.

The device address is taken from the argument, --address, $` + config.EnvAddress + ` or the
config file, in that order.`,
		Example: `  blinspect 58:2d:34:35:f3:d4
  blinspect --address 58:2d:34:35:f3:d4 --json
  ` + config.EnvAddress + `=58:2d:34:35:f3:d4 blinspect --read-limit 0`,
		Args:    cobra.MaximumNArgs(1),
		Version: formatVersion(version),
		RunE:    runInspect,

		// main() prints errors itself
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", commit, date))

	flags := cmd.Flags()
	flags.String("address", "", "Device address (alternative to the positional argument)")
	flags.String("config", "", "YAML config file (default $"+config.EnvConfig+")")
	flags.Duration("connect-timeout", goble.DefaultConnectTimeout, "Connection timeout")
	flags.Duration("read-timeout", goble.DefaultReadTimeout, "Timeout for reading a characteristic value")
	flags.Int("read-limit", inspector.DefaultReadLimit, "Max bytes shown per characteristic value (0 to disable reads)")
	flags.String("format", config.FormatText, "Output format (text, json)")
	flags.Bool("json", false, "Output as JSON (same as --format json)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	cmd.MarkFlagsMutuallyExclusive("format", "json")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"address":         cfg.Address,
		"connect_timeout": cfg.ConnectTimeout,
		"read_timeout":    cfg.ReadTimeout,
		"read_limit":      cfg.ReadLimit,
		"format":          cfg.OutputFormat,
	}).Debug("Starting inspection")

	var sink inspector.Sink
	if cfg.OutputFormat == config.FormatJSON {
		sink = inspector.NewJSONSink(cmd.OutOrStdout())
	} else {
		sink = inspector.NewTextSink(cmd.OutOrStdout())
	}

	opts := &inspector.InspectOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		ReadLimit:      cfg.ReadLimit,
		SkipReads:      cfg.ReadLimit == 0,
	}

	var progressCallback inspector.ProgressCallback
	if progressEnabled() {
		progress := NewProgressPrinter(cmd.ErrOrStderr(), fmt.Sprintf("Inspecting device %s", cfg.Address),
			inspector.PhaseConnecting, inspector.PhaseProcessing, inspector.PhaseFailed)
		progress.Start()
		defer progress.Stop()
		progressCallback = progress.Callback()
	}

	return inspector.Inspect(cmd.Context(), goble.NewTransport(logger), cfg.Address, opts, logger, progressCallback, sink)
}

// loadConfig merges defaults, config file, environment and flags, then validates the result.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	switch {
	case len(args) > 0:
		cfg.Address = args[0]
	case flags.Changed("address"):
		cfg.Address, _ = flags.GetString("address")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("no device address given: pass it as an argument, with --address or via $%s", config.EnvAddress)
	}

	if flags.Changed("connect-timeout") {
		cfg.ConnectTimeout, _ = flags.GetDuration("connect-timeout")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout, _ = flags.GetDuration("read-timeout")
	}
	if flags.Changed("read-limit") {
		cfg.ReadLimit, _ = flags.GetInt("read-limit")
	}
	if flags.Changed("format") {
		cfg.OutputFormat, _ = flags.GetString("format")
	}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		cfg.OutputFormat = config.FormatJSON
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
