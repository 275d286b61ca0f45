package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/ecp-runner/pkg/config"
	ecpdriver "github.com/devicelab-dev/ecp-runner/pkg/driver/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
	"github.com/devicelab-dev/ecp-runner/pkg/sideload"
)

// session is what a device command needs: the resolved config, a driver and
// an output printer.
type session struct {
	cfg    *config.DeviceConfig
	driver *ecpdriver.Driver
	out    *Printer
	json   bool
}

// newDriver builds the driver for a validated config. Replaced in tests.
var newDriver = func(cfg *config.DeviceConfig) *ecpdriver.Driver {
	client := ecp.NewClient(cfg.IP, cfg.ClientConfig())
	dev := sideload.NewSession(cfg.IP, cfg.SideloadConfig())
	return ecpdriver.New(client, dev, ecpdriver.Config{
		PressDelay: cfg.PressDelay(),
		Verify:     cfg.VerifyOptions(),
	})
}

// loadConfig resolves the device config. Later sources win: config file,
// .env files, environment, flags.
func loadConfig(c *cli.Context) (*config.DeviceConfig, error) {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return nil, err
	}

	var cfg *config.DeviceConfig
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()

	if c.IsSet("ip") {
		cfg.IP = c.String("ip")
	}
	if c.IsSet("username") {
		cfg.Username = c.String("username")
	}
	if c.IsSet("password") {
		cfg.Password = c.String("password")
	}
	if c.IsSet("press-delay") {
		cfg.PressDelayInMillis = c.Int("press-delay")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("timeout") {
		cfg.TimeoutInMillis = c.Int("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDevice wraps a command action with config resolution, driver
// construction and interrupt handling.
func withDevice(fn func(ctx context.Context, s *session, c *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		logger.Info("Device %s (press delay %dms, retries %d)", cfg.IP, cfg.PressDelayInMillis, cfg.Retries)

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()

		s := &session{
			cfg:    cfg,
			driver: newDriver(cfg),
			out:    NewPrinter(c.App.Writer, !c.Bool("no-ansi")),
			json:   c.Bool("json"),
		}
		return fn(ctx, s, c)
	}
}
