package cli

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	ecpdriver "github.com/devicelab-dev/ecp-runner/pkg/driver/ecp"
)

var pollFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "attempts",
		Usage: "Maximum number of checks (default from config)",
	},
	&cli.IntFlag{
		Name:  "delay",
		Usage: "Pause between checks in milliseconds (default from config)",
	},
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "Wait for a condition on the device; exits 1 when it never holds",
	Subcommands: []*cli.Command{
		{
			Name:   "screen",
			Usage:  "Wait for an element matching a locator",
			Flags:  append(append([]cli.Flag{}, locatorFlags...), pollFlags...),
			Action: withDevice(runVerifyScreen),
		},
		{
			Name:      "channel",
			Usage:     "Wait for a channel to be in the foreground",
			ArgsUsage: "<channel-id>",
			Flags:     pollFlags,
			Action:    withDevice(runVerifyChannel),
		},
		{
			Name:   "playback",
			Usage:  "Wait for the media player to play",
			Flags:  pollFlags,
			Action: withDevice(runVerifyPlayback),
		},
		{
			Name:      "focused-tag",
			Usage:     "Wait for the focused element to have a tag",
			ArgsUsage: "<tag>",
			Flags:     pollFlags,
			Action:    withDevice(runVerifyFocusedTag),
		},
		{
			Name:      "channel-exists",
			Usage:     "Check that a channel is installed",
			ArgsUsage: "<channel-id>",
			Action:    withDevice(runVerifyChannelExists),
		},
	},
}

// verifier applies --attempts and --delay over the configured bounds.
func verifier(s *session, c *cli.Context) *ecpdriver.Driver {
	opts := s.cfg.VerifyOptions()
	if c.IsSet("attempts") {
		opts.MaxAttempts = c.Int("attempts")
	}
	if c.IsSet("delay") {
		opts.Delay = time.Duration(c.Int("delay")) * time.Millisecond
	}
	return s.driver.WithVerify(opts)
}

// report prints the outcome and turns false into exit status 1.
func report(s *session, ok bool, what string) error {
	if s.json {
		if err := s.out.JSON(map[string]interface{}{"check": what, "ok": ok}); err != nil {
			return err
		}
	} else if ok {
		s.out.Success("%s", what)
	} else {
		s.out.Failure("%s", what)
	}
	if !ok {
		return cli.Exit("", 1)
	}
	return nil
}

func runVerifyScreen(ctx context.Context, s *session, c *cli.Context) error {
	loc, err := locatorFromFlags(c)
	if err != nil {
		return err
	}
	ok, err := verifier(s, c).VerifyIsScreenLoaded(ctx, loc)
	if err != nil {
		return err
	}
	return report(s, ok, "screen shows "+loc.String())
}

func runVerifyChannel(ctx context.Context, s *session, c *cli.Context) error {
	id, err := requireArg(c, "channel id")
	if err != nil {
		return err
	}
	ok, err := verifier(s, c).VerifyIsChannelLoaded(ctx, id)
	if err != nil {
		return err
	}
	return report(s, ok, "channel "+id+" loaded")
}

func runVerifyPlayback(ctx context.Context, s *session, c *cli.Context) error {
	ok, err := verifier(s, c).VerifyIsPlaybackStarted(ctx)
	if err != nil {
		return err
	}
	return report(s, ok, "playback started")
}

func runVerifyFocusedTag(ctx context.Context, s *session, c *cli.Context) error {
	tag, err := requireArg(c, "tag")
	if err != nil {
		return err
	}
	ok, err := verifier(s, c).VerifyFocusedElementIsOfCertainTag(ctx, tag)
	if err != nil {
		return err
	}
	return report(s, ok, "focused element is "+tag)
}

func runVerifyChannelExists(ctx context.Context, s *session, c *cli.Context) error {
	id, err := requireArg(c, "channel id")
	if err != nil {
		return err
	}
	ok, err := s.driver.VerifyIsChannelExist(ctx, id)
	if err != nil {
		return err
	}
	return report(s, ok, "channel "+id+" installed")
}
