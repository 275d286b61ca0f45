package ecp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/driver/mock"
	"github.com/devicelab-dev/ecp-runner/pkg/ecp"
	"github.com/devicelab-dev/ecp-runner/pkg/poll"
	"github.com/devicelab-dev/ecp-runner/pkg/sideload"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// fakeSleeper records delays and the number of device requests seen at each sleep
type fakeSleeper struct {
	device *mock.Device
	delays []time.Duration
	seen   []int
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	if f.device != nil {
		f.seen = append(f.seen, len(f.device.Requests()))
	}
	return ctx.Err()
}

func (f *fakeSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range f.delays {
		sum += d
	}
	return sum
}

// newTestDriver wires a driver to a fresh fake device
func newTestDriver(t *testing.T, cfg mock.Config) (*Driver, *mock.Device, *fakeSleeper) {
	t.Helper()
	device := mock.New(cfg)
	t.Cleanup(device.Close)

	sleeper := &fakeSleeper{device: device}
	client := ecp.NewClientURL(device.URL(), ecp.ClientConfig{Retries: 0})
	session := sideload.NewSessionURL(device.URL(), sideload.Config{Sleeper: sleeper})
	d := New(client, session, Config{
		PressDelay: 500 * time.Millisecond,
		Verify:     poll.Options{MaxAttempts: 3, Delay: 200 * time.Millisecond},
		Sleeper:    sleeper,
	})
	return d, device, sleeper
}

// TestGetElementByText tests locating the focused list item by its text
func TestGetElementByText(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	el, err := d.GetElement(context.Background(), uitree.ByText("Item 2"))
	if err != nil {
		t.Fatalf("GetElement failed: %v", err)
	}
	if el.Tag != "Label" {
		t.Errorf("Expected tag Label, got %s", el.Tag)
	}
	if el.Attributes["text"] != "Item 2" {
		t.Errorf("Expected text 'Item 2', got %v", el.Attributes["text"])
	}
	want := core.Bounds{X: 0, Y: 11, Width: 340, Height: 48}
	if b, ok := el.Bounds(); !ok || b != want {
		t.Errorf("Expected bounds %+v, got %+v", want, el.Attributes["bounds"])
	}
	if el.Attributes["focused"] != true || el.Attributes["visible"] != true {
		t.Errorf("Expected focused and default visible, got %v", el.Attributes)
	}
}

// TestGetElementsByTag tests document order and repeatability
func TestGetElementsByTag(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})
	ctx := context.Background()

	first, err := d.GetElements(ctx, uitree.ByTag("Label"))
	if err != nil {
		t.Fatalf("GetElements failed: %v", err)
	}
	second, err := d.GetElements(ctx, uitree.ByTag("Label"))
	if err != nil {
		t.Fatalf("GetElements failed: %v", err)
	}

	var texts []string
	for _, el := range first {
		texts = append(texts, el.Text())
	}
	if !reflect.DeepEqual(texts, []string{"Item 1", "Item 2", "Item 3"}) {
		t.Errorf("Expected items in document order, got %v", texts)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for repeated searches")
	}
}

// TestGetElementsFetchesFreshSnapshot tests that every call queries the device
func TestGetElementsFetchesFreshSnapshot(t *testing.T) {
	d, device, _ := newTestDriver(t, mock.Config{})
	ctx := context.Background()

	d.GetElements(ctx, uitree.ByTag("Label"))
	d.GetElements(ctx, uitree.ByTag("Label"))

	if n := device.Count(ecp.PathAppUI); n != 2 {
		t.Errorf("Expected 2 app-ui queries, got %d", n)
	}
}

// TestGetElementsNoMatch tests that no match is an empty result
func TestGetElementsNoMatch(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	els, err := d.GetElements(context.Background(), uitree.ByAttr("name", "missing"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(els) != 0 {
		t.Errorf("Expected no elements, got %d", len(els))
	}
}

// TestGetElementNotFound tests the single-element failure
func TestGetElementNotFound(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	_, err := d.GetElement(context.Background(), uitree.ByText("Item 9"))
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Errorf("Expected ErrElementNotFound, got %v", err)
	}
}

// TestGetElementNameOverride tests that a name attribute becomes the tag
func TestGetElementNameOverride(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	el, err := d.GetElement(context.Background(), uitree.ByAttr("focusItem", "1"))
	if err != nil {
		t.Fatalf("GetElement failed: %v", err)
	}
	if el.Tag != "menu" {
		t.Errorf("Expected tag 'menu', got %s", el.Tag)
	}
	if n, ok := el.Int("children"); !ok || n != 3 {
		t.Errorf("Expected children=3, got %v", el.Attributes["children"])
	}
}

// TestGetElementInvalidLocator tests validation before any request
func TestGetElementInvalidLocator(t *testing.T) {
	d, device, _ := newTestDriver(t, mock.Config{})

	_, err := d.GetElement(context.Background(), uitree.Locator{Using: uitree.UsingAttr, Value: "x"})
	if !errors.Is(err, core.ErrInvalidLocator) {
		t.Errorf("Expected ErrInvalidLocator, got %v", err)
	}
	if n := len(device.Requests()); n != 0 {
		t.Errorf("Expected no requests, got %d", n)
	}
}

// TestGetElementNoRootScene tests a snapshot without a Scene
func TestGetElementNoRootScene(t *testing.T) {
	d, device, _ := newTestDriver(t, mock.Config{})
	device.SetResponse(ecp.PathAppUI, http.StatusOK,
		`<app-ui><topscreen><screen><Group/></screen></topscreen></app-ui>`)

	_, err := d.GetElement(context.Background(), uitree.ByTag("Group"))
	if !errors.Is(err, core.ErrNoRootScene) {
		t.Errorf("Expected ErrNoRootScene, got %v", err)
	}
}

// TestGetFocusedElement tests the deepest focused node wins
func TestGetFocusedElement(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	el, err := d.GetFocusedElement(context.Background())
	if err != nil {
		t.Fatalf("GetFocusedElement failed: %v", err)
	}
	if el.Text() != "Item 2" {
		t.Errorf("Expected focused 'Item 2', got %q", el.Text())
	}
}

// TestGetScreenSource tests the raw document passthrough
func TestGetScreenSource(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})

	src, err := d.GetScreenSource(context.Background())
	if err != nil {
		t.Fatalf("GetScreenSource failed: %v", err)
	}
	if src != mock.AppUIFixture {
		t.Error("Expected the app-ui fixture verbatim")
	}
}

// TestQueries tests the typed device queries
func TestQueries(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{})
	ctx := context.Background()

	apps, err := d.GetAllChannels(ctx)
	if err != nil || len(apps) != 3 {
		t.Fatalf("Expected 3 apps, got %d (%v)", len(apps), err)
	}
	active, err := d.GetCurrentChannelInfo(ctx)
	if err != nil || active.App.ID != "dev" {
		t.Errorf("Expected active app dev, got %+v (%v)", active, err)
	}
	player, err := d.GetPlayerInfo(ctx)
	if err != nil || player.State != "play" || player.Position != 4500 {
		t.Errorf("Expected playing at 4500ms, got %+v (%v)", player, err)
	}
	info, err := d.GetDeviceInfo(ctx)
	if err != nil || info["model-name"] != "Roku Ultra" {
		t.Errorf("Expected model name, got %v (%v)", info, err)
	}
}

// TestChannelCommands tests launch, deep link and install paths
func TestChannelCommands(t *testing.T) {
	d, device, _ := newTestDriver(t, mock.Config{})
	ctx := context.Background()

	if _, err := d.LaunchChannel(ctx, "dev", "abc", "movie"); err != nil {
		t.Fatalf("LaunchChannel failed: %v", err)
	}
	if _, err := d.InputDeepLink(ctx, "dev", "xyz", ""); err != nil {
		t.Fatalf("InputDeepLink failed: %v", err)
	}
	if _, err := d.InstallChannel(ctx, "12"); err != nil {
		t.Fatalf("InstallChannel failed: %v", err)
	}

	reqs := device.Requests()
	if len(reqs) != 3 {
		t.Fatalf("Expected 3 requests, got %d", len(reqs))
	}
	if reqs[0].Path != "/launch/dev" || reqs[0].RawQuery != "contentId=abc&mediaType=movie" {
		t.Errorf("Unexpected launch request %s?%s", reqs[0].Path, reqs[0].RawQuery)
	}
	if reqs[1].Path != "/input/dev" || reqs[1].RawQuery != "contentId=xyz" {
		t.Errorf("Unexpected input request %s?%s", reqs[1].Path, reqs[1].RawQuery)
	}
	if reqs[2].Path != "/install/12" {
		t.Errorf("Unexpected install request %s", reqs[2].Path)
	}
}

// TestCommandFailure tests non-2xx command statuses
func TestCommandFailure(t *testing.T) {
	d, _, _ := newTestDriver(t, mock.Config{CommandStatus: http.StatusNotFound})

	status, err := d.LaunchChannel(context.Background(), "nope", "", "")
	if !errors.Is(err, core.ErrDeviceCommand) {
		t.Fatalf("Expected ErrDeviceCommand, got %v", err)
	}
	if status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", status)
	}
}

// TestSideloadPassthrough tests the developer session wiring
func TestSideloadPassthrough(t *testing.T) {
	d, device, _ := newTestDriver(t, mock.Config{})

	if err := d.DeleteSideload(context.Background()); err != nil {
		t.Fatalf("DeleteSideload failed: %v", err)
	}
	shot, err := d.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if len(shot.Body) == 0 {
		t.Error("Expected screenshot data")
	}
	if device.Count(sideload.PathInstall) != 2 {
		t.Errorf("Expected priming and delete requests, got %d", device.Count(sideload.PathInstall))
	}
}

// TestSideloadNotConfigured tests the nil session guard
func TestSideloadNotConfigured(t *testing.T) {
	d := New(ecp.NewClientURL("http://127.0.0.1:1", ecp.ClientConfig{}), nil, Config{})

	if err := d.DeleteSideload(context.Background()); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

// TestKeyStatusJSON tests the {key: status} encoding
func TestKeyStatusJSON(t *testing.T) {
	data, err := json.Marshal([]KeyStatus{{Key: "h", Status: 200}, {Key: "fast forward", Status: 202}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `[{"h":200},{"fast forward":202}]` {
		t.Errorf("Unexpected JSON %s", data)
	}
}
