package ecp

import (
	"context"
	"errors"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// Verify* calls poll the device within the driver's verify bounds. They
// return false, not an error, when the condition never held. Transport
// failures, error statuses on queries and device query errors count as
// negative attempts.

// missed turns an error status from a query into a recoverable query error
// so the poll loop keeps going. Command endpoints are never polled.
func missed(err error) error {
	if errors.Is(err, core.ErrDeviceCommand) {
		return core.ErrDeviceQuery.WithCause(err)
	}
	return err
}

// VerifyIsScreenLoaded waits for an element matching loc.
func (d *Driver) VerifyIsScreenLoaded(ctx context.Context, loc uitree.Locator) (bool, error) {
	if err := loc.Validate(); err != nil {
		return false, err
	}
	return d.until(ctx, "screen loaded "+loc.String(), func(ctx context.Context) (bool, error) {
		_, err := d.GetElement(ctx, loc)
		if isAbsent(err) {
			return false, nil
		}
		return err == nil, missed(err)
	})
}

// VerifyIsChannelLoaded waits for channel id to be in the foreground.
func (d *Driver) VerifyIsChannelLoaded(ctx context.Context, id string) (bool, error) {
	return d.until(ctx, "channel loaded "+id, func(ctx context.Context) (bool, error) {
		app, err := d.GetCurrentChannelInfo(ctx)
		if err != nil {
			return false, missed(err)
		}
		return app.App.ID == id, nil
	})
}

// VerifyIsPlaybackStarted waits for the media player to report state "play".
func (d *Driver) VerifyIsPlaybackStarted(ctx context.Context) (bool, error) {
	return d.until(ctx, "playback started", func(ctx context.Context) (bool, error) {
		player, err := d.GetPlayerInfo(ctx)
		if err != nil {
			return false, missed(err)
		}
		return player.State == "play", nil
	})
}

// VerifyFocusedElementIsOfCertainTag waits for the focused element to have tag.
func (d *Driver) VerifyFocusedElementIsOfCertainTag(ctx context.Context, tag string) (bool, error) {
	return d.until(ctx, "focused element is "+tag, func(ctx context.Context) (bool, error) {
		scene, err := d.screen(ctx)
		if isAbsent(err) {
			return false, nil
		}
		if err != nil {
			return false, missed(err)
		}
		m, err := uitree.FindFocused(scene)
		if isAbsent(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return m.Node.Tag == tag, nil
	})
}

// VerifyIsChannelExist reports whether channel id is installed. It queries once.
func (d *Driver) VerifyIsChannelExist(ctx context.Context, id string) (bool, error) {
	apps, err := d.GetAllChannels(ctx)
	if err != nil {
		return false, err
	}
	return ecp.ChannelExists(apps, id), nil
}
