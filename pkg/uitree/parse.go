package uitree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// DeviceErrorMarker prefixes the body a device returns when a query fails.
const DeviceErrorMarker = "Request Failed with an error code of:"

// Parse normalizes a raw query response into a Node tree.
//
// A body starting with DeviceErrorMarker fails with core.ErrDeviceQuery so
// callers can retry; anything that is not well-formed XML with exactly one
// root element fails with core.ErrMalformedResponse.
func Parse(raw string) (*Node, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, DeviceErrorMarker) {
		return nil, core.ErrDeviceQuery.
			WithMessage(trimmed).
			WithDetails(map[string]interface{}{"response": raw})
	}

	decoder := xml.NewDecoder(strings.NewReader(raw))

	var root *Node
	var stack []*Node
	var text []string

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.ErrMalformedResponse.WithCause(err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if root != nil && len(stack) == 0 {
				return nil, core.ErrMalformedResponse.WithCause(
					fmt.Errorf("second root element <%s>", t.Name.Local))
			}
			node := &Node{
				Tag:        t.Name.Local,
				Attributes: make(map[string]string, len(t.Attr)),
			}
			for _, attr := range t.Attr {
				node.Attributes[attr.Name.Local] = attr.Value
			}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
			text = append(text, "")

		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1] += string(t)
			}

		case xml.EndElement:
			// The decoder already rejects mismatched end tags.
			node := stack[len(stack)-1]
			node.Text = strings.TrimSpace(text[len(text)-1])
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}

	if root == nil {
		return nil, core.ErrMalformedResponse.WithCause(errors.New("no root element"))
	}
	if len(stack) > 0 {
		return nil, core.ErrMalformedResponse.WithCause(
			fmt.Errorf("unclosed element <%s>", stack[len(stack)-1].Tag))
	}

	return root, nil
}
