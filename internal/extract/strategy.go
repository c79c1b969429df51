package extract

import (
	"errors"
	"strings"
)

// ErrNoMatch is returned by a Node when a selector matches nothing.
var ErrNoMatch = errors.New("no element matches selector")

// Node is one listing element. An empty selector addresses the node itself.
type Node interface {
	Text(selector string) (string, error)
	Attr(selector, name string) (string, error)
}

// Strategy resolves one field from a listing node. Find must not mutate the node.
type Strategy struct {
	Name string
	Find func(Node) (string, bool)
}

// Text reads the text content of the first element matching selector.
func Text(selector string) Strategy {
	return Strategy{
		Name: "text(" + selector + ")",
		Find: func(n Node) (string, bool) {
			v, err := n.Text(selector)
			if err != nil {
				return "", false
			}
			return v, strings.TrimSpace(v) != ""
		},
	}
}

// Attr reads attribute name of the first element matching selector.
func Attr(selector, name string) Strategy {
	return Strategy{
		Name: "attr(" + selector + "@" + name + ")",
		Find: func(n Node) (string, bool) {
			v, err := n.Attr(selector, name)
			if err != nil {
				return "", false
			}
			return v, strings.TrimSpace(v) != ""
		},
	}
}

// Func wraps an arbitrary lookup as a named strategy.
func Func(name string, fn func(Node) (string, bool)) Strategy {
	return Strategy{Name: name, Find: fn}
}
