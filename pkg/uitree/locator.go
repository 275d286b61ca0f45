package uitree

import (
	"fmt"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// Strategy selects what a Locator compares.
type Strategy string

// Locator strategies
const (
	UsingText Strategy = "text" // element text equals Value
	UsingTag  Strategy = "tag"  // element tag equals Value
	UsingAttr Strategy = "attr" // Attributes[Attribute] equals Value
)

// Locator is a query over a UI tree. Attribute is set iff Using is UsingAttr.
type Locator struct {
	Using     Strategy `json:"using" yaml:"using"`
	Value     string   `json:"value" yaml:"value"`
	Attribute string   `json:"attribute,omitempty" yaml:"attribute,omitempty"`
}

// ByText returns a locator matching elements whose text equals value.
func ByText(value string) Locator {
	return Locator{Using: UsingText, Value: value}
}

// ByTag returns a locator matching elements with the given tag.
func ByTag(tag string) Locator {
	return Locator{Using: UsingTag, Value: tag}
}

// ByAttr returns a locator matching elements whose attribute equals value.
func ByAttr(attribute, value string) Locator {
	return Locator{Using: UsingAttr, Attribute: attribute, Value: value}
}

// Validate checks the strategy and the attribute-iff-attr rule.
func (l Locator) Validate() error {
	switch l.Using {
	case UsingText, UsingTag:
		if l.Attribute != "" {
			return core.ErrInvalidLocator.WithMessage(
				fmt.Sprintf("locator using %q must not name an attribute", l.Using))
		}
	case UsingAttr:
		if l.Attribute == "" {
			return core.ErrInvalidLocator.WithMessage("locator using \"attr\" requires an attribute")
		}
	default:
		return core.ErrInvalidLocator.WithMessage(
			fmt.Sprintf("unknown locator strategy %q (want text, tag or attr)", l.Using))
	}
	return nil
}

// Matches reports whether n satisfies the locator. Missing attributes or
// text never match.
func (l Locator) Matches(n *Node) bool {
	switch l.Using {
	case UsingTag:
		return n.Tag == l.Value
	case UsingText:
		text, ok := n.TextValue()
		return ok && text == l.Value
	case UsingAttr:
		v, ok := n.Attr(l.Attribute)
		return ok && v == l.Value
	default:
		return false
	}
}

// String describes the locator, e.g. text="Item 2" or attr[focused]="true".
func (l Locator) String() string {
	if l.Using == UsingAttr {
		return fmt.Sprintf("attr[%s]=%q", l.Attribute, l.Value)
	}
	return fmt.Sprintf("%s=%q", l.Using, l.Value)
}
