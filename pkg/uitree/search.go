package uitree

import (
	"fmt"

	"github.com/devicelab-dev/ecp-runner/pkg/core"
)

// Match is one search hit. Name is the node's "name" attribute when set,
// otherwise the tag it was found under.
type Match struct {
	Name string
	Node *Node
}

// Matcher searches trees with a fixed locator. It holds no mutable state and
// may be reused across goroutines.
type Matcher struct {
	Locator Locator
}

// Search walks root depth-first in document order and returns every node the
// locator matches. A matched node's subtree is not searched further; its
// siblings are. rootName overrides the name reported for root itself and may
// be empty.
func (m Matcher) Search(root *Node, rootName string) []Match {
	var result []Match
	Walk(root, func(n *Node, depth int) bool {
		if !m.Locator.Matches(n) {
			return true
		}
		name := n.Name()
		if depth == 0 && rootName != "" && name == n.Tag {
			name = rootName
		}
		result = append(result, Match{Name: name, Node: n})
		return false
	})
	return result
}

// Search is shorthand for Matcher{Locator: loc}.Search(root, rootName).
func Search(root *Node, rootName string, loc Locator) []Match {
	return Matcher{Locator: loc}.Search(root, rootName)
}

// FindRootScene returns the Scene a screen snapshot is rooted at.
//
// The Scene is looked up among the children of the first <screen> element of
// an app-ui document (or of doc itself when there is none). A node counts as a
// Scene by tag or by extends="Scene"; the first in document order wins.
func FindRootScene(doc *Node) (*Node, error) {
	if doc == nil {
		return nil, core.ErrNoRootScene
	}
	if doc.IsScene() {
		return doc, nil
	}

	container := First(doc, func(n *Node) bool { return n.Tag == "screen" })
	if container == nil {
		container = doc
	}
	for _, c := range container.Children {
		if c.IsScene() {
			return c, nil
		}
	}
	return nil, core.ErrNoRootScene.WithDetails(map[string]interface{}{"root": doc.Tag})
}

// SearchScreen locates the root Scene of an app-ui document and searches it.
func SearchScreen(doc *Node, loc Locator) ([]Match, error) {
	scene, err := FindRootScene(doc)
	if err != nil {
		return nil, err
	}
	return Search(scene, "", loc), nil
}

// FindFocused returns the deepest node carrying focused="true". On a tie the
// first one in document order wins.
func FindFocused(root *Node) (Match, error) {
	var best *Node
	bestDepth := -1
	Walk(root, func(n *Node, depth int) bool {
		if v, ok := n.Attr("focused"); ok && v == "true" && depth > bestDepth {
			best = n
			bestDepth = depth
		}
		return true
	})
	if best == nil {
		return Match{}, core.ErrElementNotFound.WithMessage("no focused element on screen")
	}
	return Match{Name: best.Name(), Node: best}, nil
}

// FirstMatch returns matches[0] or core.ErrElementNotFound.
func FirstMatch(matches []Match, loc Locator) (Match, error) {
	if len(matches) == 0 {
		return Match{}, core.ErrElementNotFound.WithMessage(
			fmt.Sprintf("no element matches %s", loc))
	}
	return matches[0], nil
}
