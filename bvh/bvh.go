// Package bvh is a bounding volume hierarchy over geometry.Geometry items.
package bvh

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"row-major/lumen/aabox"
	"row-major/lumen/contact"
	"row-major/lumen/geometry"
	"row-major/lumen/ray"
)

// Node is an interior node of the hierarchy.  Its children are either other
// Nodes or the input geometry.  A node built over a single item has
// that item as both children.
type Node struct {
	Box   aabox.AABox
	Left  geometry.Geometry
	Right geometry.Geometry
}

type buildOptions struct {
	legacyMidpointDrop bool
}

type Option func(*buildOptions)

// WithLegacyMidpointDrop makes every split of three or more items skip the
// item at the midpoint, so it is absent from the finished tree.  This
// reproduces the layout of older renders and exists only for comparisons.
func WithLegacyMidpointDrop() Option {
	return func(o *buildOptions) {
		o.legacyMidpointDrop = true
	}
}

type element struct {
	item geometry.Geometry
	box  aabox.AABox
}

// Build constructs a hierarchy over items.  Every item must have a bounding
// box over the shutter interval; the first one that does not is reported by
// index, wrapping geometry.ErrNoBoundingBox.
func Build(ctx context.Context, items []geometry.Geometry, shutter ray.Span, rng *rand.Rand, opts ...Option) (*Node, error) {
	tracer := otel.Tracer("row-major/lumen/bvh")
	var span trace.Span
	_, span = tracer.Start(ctx, "bvh.Build")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))

	o := buildOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	if len(items) == 0 {
		err := fmt.Errorf("cannot build a hierarchy over zero items: %w", geometry.ErrNoBoundingBox)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty input")
		return nil, err
	}

	elements := make([]element, len(items))
	for i, item := range items {
		box, err := item.GetAABox(shutter)
		if err != nil {
			err = fmt.Errorf("while bounding item %d: %w", i, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "unboundable item")
			return nil, err
		}
		elements[i] = element{item: item, box: box}
	}

	return build(elements, rng, &o), nil
}

func build(elements []element, rng *rand.Rand, o *buildOptions) *Node {
	axis := rng.Intn(3)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].box.Axis(axis).Lo < elements[j].box.Axis(axis).Lo
	})

	switch len(elements) {
	case 1:
		return &Node{
			Box:   elements[0].box,
			Left:  elements[0].item,
			Right: elements[0].item,
		}
	case 2:
		return &Node{
			Box:   aabox.MinContainingAABox(elements[0].box, elements[1].box),
			Left:  elements[0].item,
			Right: elements[1].item,
		}
	}

	mid := len(elements) / 2
	lo := elements[:mid]
	hi := elements[mid:]
	if o.legacyMidpointDrop {
		hi = elements[mid+1:]
	}

	left := build(lo, rng, o)
	right := build(hi, rng, o)
	return &Node{
		Box:   aabox.MinContainingAABox(left.Box, right.Box),
		Left:  left,
		Right: right,
	}
}

func (n *Node) GetAABox(shutter ray.Span) (aabox.AABox, error) {
	return n.Box, nil
}

func (n *Node) RayInto(query ray.RaySegment) contact.Contact {
	if !n.Box.Hit(query) {
		return contact.ContactNaN()
	}

	leftContact := n.Left.RayInto(query)
	if n.Right == n.Left {
		return leftContact
	}

	// The right child only sees hits strictly nearer than the left one, so an
	// exact tie in t goes to the left child.
	if leftContact.Hit() {
		query.TheSegment.Hi = leftContact.T
	}
	rightContact := n.Right.RayInto(query)
	if rightContact.Hit() {
		return rightContact
	}
	return leftContact
}

// Leaves returns every leaf item reachable from n.  An item that a single-item
// node holds in both slots is reported once.
func (n *Node) Leaves() []geometry.Geometry {
	leaves := []geometry.Geometry{}

	workStack := []*Node{n}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		children := []geometry.Geometry{cur.Left}
		if cur.Right != cur.Left {
			children = append(children, cur.Right)
		}

		for _, child := range children {
			if node, ok := child.(*Node); ok {
				workStack = append(workStack, node)
				continue
			}
			leaves = append(leaves, child)
		}
	}

	return leaves
}

type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
}

func (n *Node) Stats() Stats {
	type entry struct {
		node  *Node
		depth int
	}

	s := Stats{}
	workStack := []entry{{n, 1}}
	for len(workStack) != 0 {
		cur := workStack[len(workStack)-1]
		workStack = workStack[:len(workStack)-1]

		s.Nodes++
		if cur.depth > s.MaxDepth {
			s.MaxDepth = cur.depth
		}

		children := []geometry.Geometry{cur.node.Left}
		if cur.node.Right != cur.node.Left {
			children = append(children, cur.node.Right)
		}
		for _, child := range children {
			if node, ok := child.(*Node); ok {
				workStack = append(workStack, entry{node, cur.depth + 1})
				continue
			}
			s.Leaves++
		}
	}

	return s
}
