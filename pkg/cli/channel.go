package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/ecp-runner/pkg/config"
	"github.com/devicelab-dev/ecp-runner/pkg/sideload"
)

var deepLinkFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "content-id",
		Usage: "Deep link content id",
	},
	&cli.StringFlag{
		Name:  "media-type",
		Usage: "Deep link media type (movie, episode, season, ...)",
	},
}

var launchCommand = &cli.Command{
	Name:      "launch",
	Usage:     "Launch a channel",
	ArgsUsage: "<channel-code>",
	Description: `Launch a channel, optionally deep linking into content.

Examples:
  ecp-runner launch dev
  ecp-runner launch 12 --content-id 1234 --media-type movie`,
	Flags:  deepLinkFlags,
	Action: withDevice(runLaunch),
}

var deepLinkCommand = &cli.Command{
	Name:      "deeplink",
	Usage:     "Send a deep link to the running channel",
	ArgsUsage: "<channel-code>",
	Flags:     deepLinkFlags,
	Action:    withDevice(runDeepLink),
}

var installCommand = &cli.Command{
	Name:      "install",
	Usage:     "Install a channel from the store",
	ArgsUsage: "<channel-code>",
	Action:    withDevice(runInstall),
}

var sideloadCommand = &cli.Command{
	Name:  "sideload",
	Usage: "Manage the development channel (developer mode required)",
	Subcommands: []*cli.Command{
		{
			Name:      "install",
			Usage:     "Upload a zip archive as the development channel",
			ArgsUsage: "<archive.zip>",
			Action:    withDevice(runSideloadInstall),
		},
		{
			Name:      "replace",
			Usage:     "Replace the development channel",
			ArgsUsage: "<archive.zip>",
			Action:    withDevice(runSideloadReplace),
		},
		{
			Name:   "delete",
			Usage:  "Delete the development channel",
			Action: withDevice(runSideloadDelete),
		},
	},
}

var screenshotCommand = &cli.Command{
	Name:  "screenshot",
	Usage: "Capture the screen of the development channel",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the image to `FILE` (default: <home>/screenshots/screenshot-<id>.jpg)",
		},
	},
	Action: withDevice(runScreenshot),
}

// requireArg returns the first positional argument or a usage error.
func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 || c.Args().First() == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return c.Args().First(), nil
}

func runLaunch(ctx context.Context, s *session, c *cli.Context) error {
	code, err := requireArg(c, "channel code")
	if err != nil {
		return err
	}
	status, err := s.driver.LaunchChannel(ctx, code, c.String("content-id"), c.String("media-type"))
	if err != nil {
		return err
	}
	s.out.Success("Launched %s (%d)", code, status)
	return nil
}

func runDeepLink(ctx context.Context, s *session, c *cli.Context) error {
	code, err := requireArg(c, "channel code")
	if err != nil {
		return err
	}
	status, err := s.driver.InputDeepLink(ctx, code, c.String("content-id"), c.String("media-type"))
	if err != nil {
		return err
	}
	s.out.Success("Deep link sent to %s (%d)", code, status)
	return nil
}

func runInstall(ctx context.Context, s *session, c *cli.Context) error {
	code, err := requireArg(c, "channel code")
	if err != nil {
		return err
	}
	status, err := s.driver.InstallChannel(ctx, code)
	if err != nil {
		return err
	}
	s.out.Success("Install of %s requested (%d)", code, status)
	return nil
}

func runSideloadInstall(ctx context.Context, s *session, c *cli.Context) error {
	archive, err := requireArg(c, "archive")
	if err != nil {
		return err
	}
	if err := s.driver.Sideload(ctx, archive); err != nil {
		return err
	}
	s.out.Success("Installed %s", filepath.Base(archive))
	return nil
}

func runSideloadReplace(ctx context.Context, s *session, c *cli.Context) error {
	archive, err := requireArg(c, "archive")
	if err != nil {
		return err
	}
	if err := s.driver.ReplaceSideload(ctx, archive); err != nil {
		return err
	}
	s.out.Success("Replaced development channel with %s", filepath.Base(archive))
	return nil
}

func runSideloadDelete(ctx context.Context, s *session, c *cli.Context) error {
	if err := s.driver.DeleteSideload(ctx); err != nil {
		return err
	}
	s.out.Success("Deleted development channel")
	return nil
}

func runScreenshot(ctx context.Context, s *session, c *cli.Context) error {
	shot, err := s.driver.Screenshot(ctx)
	if err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		path = filepath.Join(config.GetScreenshotsDir(), sideload.ScreenshotName())
	}
	if err := shot.Save(path); err != nil {
		return err
	}

	if s.json {
		return s.out.JSON(shot)
	}
	s.out.Success("Screenshot saved to %s", shot.Path)
	return nil
}
