// Package element projects matched UI nodes into flat, typed attribute maps.
package element

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
	"github.com/devicelab-dev/ecp-runner/pkg/uitree"
)

// numericKeys are attributes always reported as numbers.
var numericKeys = map[string]bool{
	"children":   true,
	"count":      true,
	"focusItem":  true,
	"index":      true,
	"opacity":    true,
	"loadStatus": true,
}

// stringKeys are attributes never coerced, so a label reading "true" stays text.
var stringKeys = map[string]bool{
	"text": true,
	"name": true,
	"uri":  true,
}

// defaults are merged under every element's explicit attributes.
var defaults = map[string]interface{}{
	"focusable": false,
	"focused":   false,
	"visible":   true,
}

// Element is the externally consumed form of a matched node. Attribute values
// are bool, int, float64, core.Bounds or string.
type Element struct {
	Tag        string                 `json:"tag"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Project converts search matches into elements, preserving order.
func Project(matches []uitree.Match) ([]Element, error) {
	result := make([]Element, 0, len(matches))
	for _, m := range matches {
		el, err := ProjectOne(m)
		if err != nil {
			return nil, err
		}
		result = append(result, el)
	}
	return result, nil
}

// ProjectOne squashes a single match. The tag is the match name, which is
// already the node's "name" attribute when it has one.
func ProjectOne(m uitree.Match) (Element, error) {
	attrs := make(map[string]interface{}, len(m.Node.Attributes)+len(defaults)+1)
	for k, v := range defaults {
		attrs[k] = v
	}

	for key, raw := range m.Node.Attributes {
		v, err := coerce(key, raw)
		if err != nil {
			return Element{}, err
		}
		attrs[key] = v
	}

	if _, ok := attrs["text"]; !ok && m.Node.Text != "" {
		attrs["text"] = m.Node.Text
	}

	tag := m.Name
	if tag == "" {
		tag = m.Node.Tag
	}
	return Element{Tag: tag, Attributes: attrs}, nil
}

func coerce(key, raw string) (interface{}, error) {
	switch {
	case key == "bounds":
		return ParseBounds(raw)
	case numericKeys[key]:
		return parseNumber(key, raw)
	case stringKeys[key]:
		return raw, nil
	case raw == "true":
		return true, nil
	case raw == "false":
		return false, nil
	default:
		return raw, nil
	}
}

func parseNumber(key, raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	return nil, core.ErrTypeCoercion.WithMessage(
		fmt.Sprintf("attribute %s=%q is not a number", key, raw))
}

// ParseBounds parses a bounds string of the form "{x, y, width, height}".
// Fractional coordinates are rounded.
func ParseBounds(raw string) (core.Bounds, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return core.Bounds{}, boundsError(raw)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 4 {
		return core.Bounds{}, boundsError(raw)
	}

	var v [4]int
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return core.Bounds{}, boundsError(raw)
		}
		v[i] = int(math.Round(f))
	}
	return core.Bounds{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func boundsError(raw string) error {
	return core.ErrTypeCoercion.WithMessage(
		fmt.Sprintf("bounds %q is not of the form {x, y, width, height}", raw))
}

// Text returns the element's text attribute.
func (e Element) Text() string {
	s, _ := e.Attributes["text"].(string)
	return s
}

// Bool returns a boolean attribute, false when absent or not boolean.
func (e Element) Bool(name string) bool {
	b, _ := e.Attributes[name].(bool)
	return b
}

// Int returns a numeric attribute truncated to int.
func (e Element) Int(name string) (int, bool) {
	switch v := e.Attributes[name].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Bounds returns the element's bounds, if it has any.
func (e Element) Bounds() (core.Bounds, bool) {
	b, ok := e.Attributes["bounds"].(core.Bounds)
	return b, ok
}
