// Package uitree turns device XML responses into a queryable element tree and
// searches it with locators.
//
// A Node is either a leaf (no children, optional text) or a branch. Children
// keep document order, which is the order searches report matches in.
package uitree

// Node is one element of a device XML document.
type Node struct {
	Tag        string
	Attributes map[string]string
	Text       string // direct character data, whitespace trimmed
	Children   []*Node
}

// IsLeaf reports whether the node has no child elements.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Attr returns the raw value of an attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	v, ok := n.Attributes[name]
	return v, ok
}

// TextValue returns the element's text. SceneGraph nodes carry their text in
// a "text" attribute; plain XML elements carry it as character data.
func (n *Node) TextValue() (string, bool) {
	if v, ok := n.Attr("text"); ok {
		return v, true
	}
	if n.Text != "" {
		return n.Text, true
	}
	return "", false
}

// Name returns the node's "name" attribute when set, else its tag.
func (n *Node) Name() string {
	if v, ok := n.Attr("name"); ok && v != "" {
		return v
	}
	return n.Tag
}

// IsScene reports whether the node is a Scene, either by tag or because its
// component extends Scene.
func (n *Node) IsScene() bool {
	if n.Tag == "Scene" {
		return true
	}
	ext, _ := n.Attr("extends")
	return ext == "Scene"
}

// ChildText returns the character data of the first direct child with tag.
func (n *Node) ChildText(tag string) string {
	if c := n.Child(tag); c != nil {
		return c.Text
	}
	return ""
}

// Child returns the first direct child with the given tag, or nil.
func (n *Node) Child(tag string) *Node {
	for _, c := range n.Children {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// ChildrenByTag returns direct children with the given tag in document order.
func (n *Node) ChildrenByTag(tag string) []*Node {
	var result []*Node
	for _, c := range n.Children {
		if c.Tag == tag {
			result = append(result, c)
		}
	}
	return result
}

// Visitor is called for every node in pre-order. Returning false skips the
// node's subtree; siblings are still visited.
type Visitor func(n *Node, depth int) bool

// Walk visits root and its descendants depth-first in document order.
func Walk(root *Node, visit Visitor) {
	if root == nil {
		return
	}
	walk(root, 0, visit)
}

func walk(n *Node, depth int, visit Visitor) {
	if !visit(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, visit)
	}
}

// First returns the first node in pre-order for which pred holds, or nil.
func First(root *Node, pred func(*Node) bool) *Node {
	var found *Node
	Walk(root, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if pred(n) {
			found = n
			return false
		}
		return true
	})
	return found
}
