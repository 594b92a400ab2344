// Package attack - node.go
//
// Template nodes. An attack template is authored as nested coordinate
// lists; each entry of a phase is tagged once when the template is decoded:
//
//   [x, y]                      Point
//   [[x, y], [x, y], ...]       PointList
//   anything deeper or mixed    Nested
//
// After decoding nothing re-inspects list shapes, so a phase holding
// exactly two points is never mistaken for a single point.
package attack

import (
	"errors"
	"fmt"

	"clash-bot/pixel"
)

// ErrBadTemplate is returned for templates that do not decode
var ErrBadTemplate = errors.New("malformed attack template")

// NodeKind tags a template node
type NodeKind int

const (
	KindPoint NodeKind = iota
	KindList
	KindNested
)

func (k NodeKind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindList:
		return "list"
	case KindNested:
		return "nested"
	default:
		return "unknown"
	}
}

// Node is one entry of a phase
type Node struct {
	Kind     NodeKind
	Point    pixel.Point   // KindPoint
	Points   []pixel.Point // KindList
	Children []Node        // KindNested
}

// PointNode wraps a single coordinate
func PointNode(p pixel.Point) Node {
	return Node{Kind: KindPoint, Point: p}
}

// ListNode wraps a flat list of coordinates
func ListNode(points ...pixel.Point) Node {
	return Node{Kind: KindList, Points: append([]pixel.Point(nil), points...)}
}

// NestedNode wraps child nodes
func NestedNode(children ...Node) Node {
	n := Node{Kind: KindNested, Children: make([]Node, len(children))}
	for i, c := range children {
		n.Children[i] = c.Clone()
	}
	return n
}

// Clone returns a deep copy
func (n Node) Clone() Node {
	switch n.Kind {
	case KindList:
		return ListNode(n.Points...)
	case KindNested:
		return NestedNode(n.Children...)
	default:
		return n
	}
}

// Flatten returns every coordinate in authoring order
func (n Node) Flatten() []pixel.Point {
	var out []pixel.Point
	n.walk(func(p pixel.Point) { out = append(out, p) })
	return out
}

func (n Node) walk(f func(pixel.Point)) {
	switch n.Kind {
	case KindPoint:
		f(n.Point)
	case KindList:
		for _, p := range n.Points {
			f(p)
		}
	case KindNested:
		for _, c := range n.Children {
			c.walk(f)
		}
	}
}

// mapPoints returns a copy with f applied to every coordinate, left to right
func (n Node) mapPoints(f func(pixel.Point) pixel.Point) Node {
	switch n.Kind {
	case KindPoint:
		return PointNode(f(n.Point))
	case KindList:
		out := make([]pixel.Point, len(n.Points))
		for i, p := range n.Points {
			out[i] = f(p)
		}
		return Node{Kind: KindList, Points: out}
	case KindNested:
		out := Node{Kind: KindNested, Children: make([]Node, len(n.Children))}
		for i, c := range n.Children {
			out.Children[i] = c.mapPoints(f)
		}
		return out
	default:
		return n
	}
}

// decodeNode tags one authored entry
func decodeNode(v any) (Node, error) {
	list, ok := v.([]any)
	if !ok {
		return Node{}, fmt.Errorf("%w: entry %v is not a list", ErrBadTemplate, v)
	}
	if p, ok := asPoint(list); ok {
		return PointNode(p), nil
	}

	points := make([]pixel.Point, 0, len(list))
	flat := true
	for _, item := range list {
		inner, ok := item.([]any)
		if !ok {
			flat = false
			break
		}
		p, ok := asPoint(inner)
		if !ok {
			flat = false
			break
		}
		points = append(points, p)
	}
	if flat {
		return Node{Kind: KindList, Points: points}, nil
	}

	children := make([]Node, 0, len(list))
	for _, item := range list {
		c, err := decodeNode(item)
		if err != nil {
			return Node{}, err
		}
		children = append(children, c)
	}
	return Node{Kind: KindNested, Children: children}, nil
}

// asPoint accepts a two-number list
func asPoint(list []any) (pixel.Point, bool) {
	if len(list) != 2 {
		return pixel.Point{}, false
	}
	x, okX := toInt(list[0])
	y, okY := toInt(list[1])
	if !okX || !okY {
		return pixel.Point{}, false
	}
	return pixel.NewPoint(x, y), true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
