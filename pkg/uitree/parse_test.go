package uitree

import (
	"errors"
	"strings"
	"testing"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// Sample app-ui snapshot for testing
const sampleAppUI = `<?xml version="1.0" encoding="UTF-8" ?>
<app-ui>
	<topscreen>
		<plugin id="dev" name="Sample Channel"/>
		<screen focused="true" type="RoSGScreen">
			<HomeScene bounds="{0, 0, 1920, 1080}" children="2" extends="Scene" focusable="true" focused="true" index="0" visible="true">
				<Rectangle bounds="{0, 0, 1920, 1080}" children="0" color="0x101010FF" index="0"/>
				<LabelList bounds="{100, 200, 340, 144}" children="3" focusItem="1" focusable="true" focused="true" index="1" name="menu">
					<Label bounds="{0, 0, 340, 48}" index="0" text="Item 1"/>
					<Label bounds="{0, 11, 340, 48}" focused="true" index="1" text="Item 2"/>
					<Label bounds="{0, 96, 340, 48}" index="2" text="Item 3"/>
				</LabelList>
			</HomeScene>
		</screen>
	</topscreen>
</app-ui>`

// TestParse tests parsing an app-ui snapshot
func TestParse(t *testing.T) {
	root, err := Parse(sampleAppUI)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Tag != "app-ui" {
		t.Errorf("Expected root tag 'app-ui', got '%s'", root.Tag)
	}

	screen := First(root, func(n *Node) bool { return n.Tag == "screen" })
	if screen == nil {
		t.Fatal("screen element not found")
	}
	if v, _ := screen.Attr("type"); v != "RoSGScreen" {
		t.Errorf("Expected screen type 'RoSGScreen', got '%s'", v)
	}

	list := First(root, func(n *Node) bool { return n.Tag == "LabelList" })
	if list == nil {
		t.Fatal("LabelList not found")
	}
	if len(list.Children) != 3 {
		t.Fatalf("Expected 3 labels, got %d", len(list.Children))
	}
	for i, want := range []string{"Item 1", "Item 2", "Item 3"} {
		if got, _ := list.Children[i].TextValue(); got != want {
			t.Errorf("Label %d: expected text '%s', got '%s'", i, want, got)
		}
	}
	if !list.Children[0].IsLeaf() {
		t.Error("Expected Label to be a leaf")
	}
}

// TestParseCharData tests that element text is trimmed character data
func TestParseCharData(t *testing.T) {
	root, err := Parse(`<device-info>
		<model-name>  Roku Ultra  </model-name>
		<serial-number>X00000000000</serial-number>
	</device-info>`)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if root.Text != "" {
		t.Errorf("Expected branch text to be empty, got %q", root.Text)
	}
	if got := root.ChildText("model-name"); got != "Roku Ultra" {
		t.Errorf("Expected 'Roku Ultra', got %q", got)
	}
	if got := root.ChildText("missing"); got != "" {
		t.Errorf("Expected empty text for missing child, got %q", got)
	}
}

// TestParseDeviceErrorMarker tests that the device error payload is a query error
func TestParseDeviceErrorMarker(t *testing.T) {
	raw := "Request Failed with an error code of: 500"
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("Expected error for device error marker")
	}
	if !errors.Is(err, core.ErrDeviceQuery) {
		t.Errorf("Expected ErrDeviceQuery, got %v", err)
	}
	if !core.IsRecoverable(err) {
		t.Error("Expected device query error to be recoverable")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected error to carry the raw message, got %q", err.Error())
	}
}

// TestParseInvalidXML tests parsing invalid XML
func TestParseInvalidXML(t *testing.T) {
	tests := map[string]string{
		"unterminated": "<invalid xml",
		"empty":        "",
		"mismatched":   "<a><b></a>",
		"unclosed":     "<a><b/>",
		"two roots":    "<a/><b/>",
		"plain text":   "not xml at all",
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw)
			if err == nil {
				t.Fatal("Expected error for malformed XML")
			}
			if !errors.Is(err, core.ErrMalformedResponse) {
				t.Errorf("Expected ErrMalformedResponse, got %v", err)
			}
			if core.IsRecoverable(err) {
				t.Error("Malformed XML should not be recoverable")
			}
		})
	}
}
