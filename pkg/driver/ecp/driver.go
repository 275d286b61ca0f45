// Package ecp is the device-facing library: it combines the ECP transport,
// the UI tree matcher, typed projection and the poll engine into one Driver.
package ecp

import (
	"context"
	"errors"
	"time"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/element"
	"github.com/devicelab-dev/ecp-runner/pkg/logger"
	"github.com/devicelab-dev/ecp-runner/pkg/poll"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// DefaultPressDelay is the pause after every key press.
const DefaultPressDelay = 1000 * time.Millisecond

// ECPClient defines the transport operations the driver needs.
// Implemented by ecp.Client. Allows mocking in tests.
type ECPClient interface {
	Command(ctx context.Context, path string) (int, error)
	Query(ctx context.Context, path string) (*uitree.Node, error)
	QueryRaw(ctx context.Context, path string) (string, error)
}

// Sideloader defines the developer web server operations.
// Implemented by sideload.Session.
type Sideloader interface {
	Install(ctx context.Context, archivePath string) error
	Replace(ctx context.Context, archivePath string) error
	Delete(ctx context.Context) error
	Screenshot(ctx context.Context) (core.Attachment, error)
}

// Config tunes a Driver.
type Config struct {
	PressDelay time.Duration // pause after each key press, used as given
	Verify     poll.Options  // zero MaxAttempts uses poll.DefaultOptions
	Sleeper    poll.Sleeper  // nil uses the wall clock
}

// Driver issues commands and queries against one device. It holds no mutable
// state; With* methods return modified copies.
type Driver struct {
	client     ECPClient
	sideload   Sideloader
	poller     *poll.Poller
	pressDelay time.Duration
	verify     poll.Options
}

// New creates a driver. sideload may be nil when developer mode is not used.
func New(client ECPClient, sideload Sideloader, cfg Config) *Driver {
	if cfg.PressDelay < 0 {
		cfg.PressDelay = 0
	}
	if cfg.Verify.MaxAttempts <= 0 {
		cfg.Verify = poll.DefaultOptions()
	}
	return &Driver{
		client:     client,
		sideload:   sideload,
		poller:     poll.New(cfg.Sleeper),
		pressDelay: cfg.PressDelay,
		verify:     cfg.Verify,
	}
}

// WithPressDelay returns a copy of the driver using another inter-key delay.
func (d *Driver) WithPressDelay(delay time.Duration) *Driver {
	c := *d
	if delay < 0 {
		delay = 0
	}
	c.pressDelay = delay
	return &c
}

// WithVerify returns a copy of the driver using other poll bounds for Verify* calls.
func (d *Driver) WithVerify(opts poll.Options) *Driver {
	c := *d
	c.verify = opts
	return &c
}

// PressDelay returns the inter-key delay.
func (d *Driver) PressDelay() time.Duration {
	return d.pressDelay
}

// ============================================================================
// Channels
// ============================================================================

// LaunchChannel starts a channel, optionally deep linking into content.
func (d *Driver) LaunchChannel(ctx context.Context, code, contentID, mediaType string) (int, error) {
	return d.client.Command(ctx, ecp.LaunchPath(code, contentID, mediaType))
}

// InputDeepLink sends a deep link to the running channel.
func (d *Driver) InputDeepLink(ctx context.Context, code, contentID, mediaType string) (int, error) {
	return d.client.Command(ctx, ecp.InputPath(code, contentID, mediaType))
}

// InstallChannel installs a channel from the store by code.
func (d *Driver) InstallChannel(ctx context.Context, code string) (int, error) {
	return d.client.Command(ctx, ecp.InstallPath(code))
}

// GetAllChannels lists installed channels.
func (d *Driver) GetAllChannels(ctx context.Context) ([]ecp.App, error) {
	root, err := d.client.Query(ctx, ecp.PathApps)
	if err != nil {
		return nil, err
	}
	return ecp.AppsFromTree(root), nil
}

// GetCurrentChannelInfo returns the foreground channel.
func (d *Driver) GetCurrentChannelInfo(ctx context.Context) (ecp.ActiveApp, error) {
	root, err := d.client.Query(ctx, ecp.PathActiveApp)
	if err != nil {
		return ecp.ActiveApp{}, err
	}
	return ecp.ActiveAppFromTree(root), nil
}

// GetDeviceInfo returns the device description.
func (d *Driver) GetDeviceInfo(ctx context.Context) (ecp.DeviceInfo, error) {
	root, err := d.client.Query(ctx, ecp.PathDeviceInfo)
	if err != nil {
		return nil, err
	}
	return ecp.DeviceInfoFromTree(root), nil
}

// GetPlayerInfo returns the media player state.
func (d *Driver) GetPlayerInfo(ctx context.Context) (ecp.PlayerInfo, error) {
	root, err := d.client.Query(ctx, ecp.PathMediaPlayer)
	if err != nil {
		return ecp.PlayerInfo{}, err
	}
	return ecp.PlayerInfoFromTree(root), nil
}

// ============================================================================
// Screen
// ============================================================================

// GetScreenSource returns the raw app-ui document.
func (d *Driver) GetScreenSource(ctx context.Context) (string, error) {
	return d.client.QueryRaw(ctx, ecp.PathAppUI)
}

// screen fetches a fresh snapshot and returns its root Scene.
func (d *Driver) screen(ctx context.Context) (*uitree.Node, error) {
	doc, err := d.client.Query(ctx, ecp.PathAppUI)
	if err != nil {
		return nil, err
	}
	return uitree.FindRootScene(doc)
}

// GetElements returns every element matching loc, in document order. No
// match is an empty slice, not an error.
func (d *Driver) GetElements(ctx context.Context, loc uitree.Locator) ([]element.Element, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	scene, err := d.screen(ctx)
	if err != nil {
		return nil, err
	}
	return element.Project(uitree.Search(scene, "", loc))
}

// GetElement returns the first element matching loc.
func (d *Driver) GetElement(ctx context.Context, loc uitree.Locator) (element.Element, error) {
	if err := loc.Validate(); err != nil {
		return element.Element{}, err
	}
	scene, err := d.screen(ctx)
	if err != nil {
		return element.Element{}, err
	}
	m, err := uitree.FirstMatch(uitree.Search(scene, "", loc), loc)
	if err != nil {
		return element.Element{}, err
	}
	return element.ProjectOne(m)
}

// GetFocusedElement returns the most deeply nested focused element.
func (d *Driver) GetFocusedElement(ctx context.Context) (element.Element, error) {
	scene, err := d.screen(ctx)
	if err != nil {
		return element.Element{}, err
	}
	m, err := uitree.FindFocused(scene)
	if err != nil {
		return element.Element{}, err
	}
	return element.ProjectOne(m)
}

// ============================================================================
// Sideload
// ============================================================================

var errNoSideload = core.ErrInvalidConfig.WithMessage("developer mode session not configured")

// Sideload installs a development channel archive.
func (d *Driver) Sideload(ctx context.Context, archivePath string) error {
	if d.sideload == nil {
		return errNoSideload
	}
	return d.sideload.Install(ctx, archivePath)
}

// ReplaceSideload replaces the development channel.
func (d *Driver) ReplaceSideload(ctx context.Context, archivePath string) error {
	if d.sideload == nil {
		return errNoSideload
	}
	return d.sideload.Replace(ctx, archivePath)
}

// DeleteSideload removes the development channel.
func (d *Driver) DeleteSideload(ctx context.Context) error {
	if d.sideload == nil {
		return errNoSideload
	}
	return d.sideload.Delete(ctx)
}

// Screenshot captures the screen of the development channel.
func (d *Driver) Screenshot(ctx context.Context) (core.Attachment, error) {
	if d.sideload == nil {
		return core.Attachment{}, errNoSideload
	}
	return d.sideload.Screenshot(ctx)
}

// isAbsent reports errors meaning "the screen does not show it yet".
func isAbsent(err error) bool {
	return errors.Is(err, core.ErrElementNotFound) || errors.Is(err, core.ErrNoRootScene)
}

func (d *Driver) until(ctx context.Context, name string, check poll.Check) (bool, error) {
	logger.Debug("verify %s (%d attempts, %v apart)", name, d.verify.MaxAttempts, d.verify.Delay)
	return d.poller.Until(ctx, name, check, d.verify)
}
