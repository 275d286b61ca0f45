package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
)

var appsCommand = &cli.Command{
	Name:   "apps",
	Usage:  "List installed channels",
	Action: withDevice(runApps),
}

var activeAppCommand = &cli.Command{
	Name:   "active-app",
	Usage:  "Show the channel in the foreground",
	Action: withDevice(runActiveApp),
}

var deviceInfoCommand = &cli.Command{
	Name:   "device-info",
	Usage:  "Show device information",
	Action: withDevice(runDeviceInfo),
}

var playerCommand = &cli.Command{
	Name:   "player",
	Usage:  "Show media player state",
	Action: withDevice(runPlayer),
}

func runApps(ctx context.Context, s *session, c *cli.Context) error {
	apps, err := s.driver.GetAllChannels(ctx)
	if err != nil {
		return err
	}
	if s.json {
		return s.out.JSON(apps)
	}

	rows := make([][]string, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, []string{app.ID, app.Type, app.Version, app.Name})
	}
	s.out.Table([]string{"ID", "TYPE", "VERSION", "NAME"}, rows)
	return nil
}

func runActiveApp(ctx context.Context, s *session, c *cli.Context) error {
	active, err := s.driver.GetCurrentChannelInfo(ctx)
	if err != nil {
		return err
	}
	if s.json {
		return s.out.JSON(active)
	}

	if active.IsHome() {
		s.out.Line("Home screen")
	} else {
		s.out.KeyValues(map[string]string{
			"id":      active.App.ID,
			"name":    active.App.Name,
			"version": active.App.Version,
		})
	}
	if active.Screensaver != nil {
		s.out.Line("Screensaver: %s", active.Screensaver.Name)
	}
	return nil
}

func runDeviceInfo(ctx context.Context, s *session, c *cli.Context) error {
	info, err := s.driver.GetDeviceInfo(ctx)
	if err != nil {
		return err
	}
	if s.json {
		return s.out.JSON(info)
	}
	s.out.Header("Device " + s.cfg.IP)
	s.out.KeyValues(info)
	return nil
}

func runPlayer(ctx context.Context, s *session, c *cli.Context) error {
	player, err := s.driver.GetPlayerInfo(ctx)
	if err != nil {
		return err
	}
	if s.json {
		return s.out.JSON(player)
	}

	values := map[string]string{
		"state":    player.State,
		"error":    strconv.FormatBool(player.Error),
		"position": fmt.Sprintf("%dms", player.Position),
		"duration": fmt.Sprintf("%dms", player.Duration),
		"live":     strconv.FormatBool(player.IsLive),
	}
	if player.Plugin != nil {
		values["channel"] = player.Plugin.ID
	}
	s.out.KeyValues(values)
	return nil
}
