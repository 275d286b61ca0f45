// Package cli provides the command-line interface for ecp-runner.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/ecp-runner/pkg/config"
	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Device config file (default: ./config.yaml)",
		EnvVars: []string{"ECP_RUNNER_CONFIG"},
	},
	&cli.StringSliceFlag{
		Name:  "env-file",
		Usage: "Load environment variables from `FILE` (default: .env)",
	},
	&cli.StringFlag{
		Name:  "ip",
		Usage: "Device IP address (overrides " + config.EnvDeviceIP + ")",
	},
	&cli.StringFlag{
		Name:  "username",
		Usage: "Developer web server user",
	},
	&cli.StringFlag{
		Name:  "password",
		Usage: "Developer web server password",
	},
	&cli.IntFlag{
		Name:  "press-delay",
		Usage: "Pause after each key press in milliseconds",
	},
	&cli.IntFlag{
		Name:  "retries",
		Usage: "Transport retries per request",
	},
	&cli.IntFlag{
		Name:  "timeout",
		Usage: "HTTP request timeout in milliseconds",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"ECP_RUNNER_VERBOSE"},
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
		Value: "info",
	},
	&cli.BoolFlag{
		Name:  "json",
		Usage: "Print results as JSON",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Commands are the top-level commands.
var Commands = []*cli.Command{
	launchCommand,
	deepLinkCommand,
	installCommand,
	pressCommand,
	sequenceCommand,
	wordCommand,
	buttonsCommand,
	elementCommand,
	elementsCommand,
	focusedCommand,
	sourceCommand,
	appsCommand,
	activeAppCommand,
	deviceInfoCommand,
	playerCommand,
	verifyCommand,
	sideloadCommand,
	screenshotCommand,
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "ecp-runner",
		Usage:   "Drive and verify channels on a TV device over ECP",
		Version: Version,
		Description: `ecp-runner sends remote-control commands to a device, inspects its
on-screen UI tree and waits for screens, channels and playback to load.

Examples:
  ecp-runner --ip 192.168.1.20 launch dev
  ecp-runner sequence up up select
  ecp-runner element --text "Item 2"
  ecp-runner verify screen --tag HomeScene --attempts 20
  ecp-runner sideload install channel.zip`,
		Flags:    GlobalFlags,
		Commands: Commands,
		Before:   setupLogging,
		// Exit codes are decided by Execute.
		ExitErrHandler: func(*cli.Context, error) {},
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	app := NewApp()
	if err := app.Run(os.Args); err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err and returns the process exit code.
func reportError(err error) int {
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		}
		return exit.ExitCode()
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if cat := core.CategoryOf(err); cat.IsFatal() {
		return 2
	}
	return 1
}

func setupLogging(c *cli.Context) error {
	if err := logger.Init(config.GetLogPath()); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	level, err := logger.ParseLevel(c.String("log-level"))
	if err != nil {
		return err
	}
	if c.Bool("verbose") {
		level = logger.LevelDebug
	}
	logger.SetLevel(level)
	logger.Info("ecp-runner %s: %v", Version, c.Args().Slice())
	return nil
}
