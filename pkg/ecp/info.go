package ecp

import (
	"strconv"
	"strings"

	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// App is one installed channel.
type App struct {
	ID      string `json:"id"`
	Type    string `json:"type,omitempty"`
	Version string `json:"version,omitempty"`
	Name    string `json:"name"`
}

// ActiveApp is the channel in the foreground, plus the screensaver if one is running.
type ActiveApp struct {
	App         App  `json:"app"`
	Screensaver *App `json:"screensaver,omitempty"`
}

// IsHome reports whether the home screen is showing (no channel id).
func (a ActiveApp) IsHome() bool {
	return a.App.ID == ""
}

// PlayerInfo is the media player state.
type PlayerInfo struct {
	State    string            `json:"state"`
	Error    bool              `json:"error"`
	Plugin   *App              `json:"plugin,omitempty"`
	Format   map[string]string `json:"format,omitempty"`
	Position int               `json:"positionMs"`
	Duration int               `json:"durationMs"`
	IsLive   bool              `json:"isLive"`
}

// DeviceInfo is the flat key/value content of /query/device-info.
type DeviceInfo map[string]string

func appFromNode(n *uitree.Node) App {
	app := App{Name: n.Text}
	app.ID, _ = n.Attr("id")
	app.Type, _ = n.Attr("type")
	app.Version, _ = n.Attr("version")
	if app.Name == "" {
		app.Name, _ = n.Attr("name")
	}
	return app
}

// AppsFromTree reads an <apps> document.
func AppsFromTree(root *uitree.Node) []App {
	nodes := root.ChildrenByTag("app")
	apps := make([]App, 0, len(nodes))
	for _, n := range nodes {
		apps = append(apps, appFromNode(n))
	}
	return apps
}

// ActiveAppFromTree reads an <active-app> document.
func ActiveAppFromTree(root *uitree.Node) ActiveApp {
	var active ActiveApp
	if n := root.Child("app"); n != nil {
		active.App = appFromNode(n)
	}
	if n := root.Child("screensaver"); n != nil {
		s := appFromNode(n)
		active.Screensaver = &s
	}
	return active
}

// PlayerInfoFromTree reads a <player> document.
func PlayerInfoFromTree(root *uitree.Node) PlayerInfo {
	info := PlayerInfo{}
	info.State, _ = root.Attr("state")
	if v, _ := root.Attr("error"); v == "true" {
		info.Error = true
	}
	if n := root.Child("plugin"); n != nil {
		p := appFromNode(n)
		info.Plugin = &p
	}
	if n := root.Child("format"); n != nil && len(n.Attributes) > 0 {
		info.Format = n.Attributes
	}
	info.Position = parseMillis(root.ChildText("position"))
	info.Duration = parseMillis(root.ChildText("duration"))
	info.IsLive = root.ChildText("is_live") == "true"
	return info
}

// parseMillis reads values such as "12345 ms".
func parseMillis(s string) int {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "ms"))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// DeviceInfoFromTree flattens a <device-info> document.
func DeviceInfoFromTree(root *uitree.Node) DeviceInfo {
	info := make(DeviceInfo, len(root.Children))
	for _, c := range root.Children {
		info[c.Tag] = c.Text
	}
	return info
}

// ChannelExists reports whether apps lists a channel with id.
func ChannelExists(apps []App, id string) bool {
	for _, app := range apps {
		if app.ID == id {
			return true
		}
	}
	return false
}
