package uitree

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

func TestLocator_Validate(t *testing.T) {
	tests := []struct {
		name    string
		loc     Locator
		wantErr bool
	}{
		{"text", ByText("Item 2"), false},
		{"tag", ByTag("Label"), false},
		{"attr", ByAttr("focused", "true"), false},
		{"attr without attribute", Locator{Using: UsingAttr, Value: "true"}, true},
		{"text with attribute", Locator{Using: UsingText, Value: "x", Attribute: "text"}, true},
		{"tag with attribute", Locator{Using: UsingTag, Value: "x", Attribute: "name"}, true},
		{"unknown strategy", Locator{Using: "xpath", Value: "//a"}, true},
		{"empty", Locator{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.loc.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidLocator) {
				t.Errorf("Expected ErrInvalidLocator, got %v", err)
			}
		})
	}
}

func TestLocator_String(t *testing.T) {
	tests := []struct {
		loc  Locator
		want string
	}{
		{ByText("Item 2"), `text="Item 2"`},
		{ByTag("Label"), `tag="Label"`},
		{ByAttr("focused", "true"), `attr[focused]="true"`},
	}

	for _, tt := range tests {
		if got := tt.loc.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
