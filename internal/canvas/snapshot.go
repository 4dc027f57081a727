package canvas

import (
	"fmt"

	"github.com/piwi3910/framefill/internal/model"
)

// SnapshotVersion is the current serialized document format.
const SnapshotVersion = 1

// Snapshot is the serializable state of a Document.
type Snapshot struct {
	Version   int      `json:"version"`
	Name      string   `json:"name"`
	Axis      string   `json:"axis"`
	Roots     []string `json:"roots"`
	Selection []string `json:"selection,omitempty"`
	Items     []Item   `json:"items"`
}

// Snapshot captures the document state. Items are listed depth-first in paint
// order.
func (d *Document) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Snapshot{
		Version:   SnapshotVersion,
		Name:      d.name,
		Axis:      d.axis.String(),
		Roots:     append([]string(nil), d.roots...),
		Selection: append([]string(nil), d.selection...),
	}
	var walk func(ids []string)
	walk = func(ids []string) {
		for _, id := range ids {
			it, ok := d.items[id]
			if !ok {
				continue
			}
			s.Items = append(s.Items, copyItem(it))
			walk(it.Children)
		}
	}
	walk(d.roots)
	return s
}

// FromSnapshot rebuilds a Document and checks that every reference resolves
// and that the items form a tree: each item is reached exactly once from
// Roots.
func FromSnapshot(s Snapshot, opts ...Option) (*Document, error) {
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("document version %d is newer than supported version %d", s.Version, SnapshotVersion)
	}

	axis := model.AxisDown
	switch s.Axis {
	case "up":
		axis = model.AxisUp
	case "down", "":
	default:
		return nil, fmt.Errorf("unknown axis %q", s.Axis)
	}

	d := New(s.Name, axis, opts...)
	for _, it := range s.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item without id")
		}
		if _, dup := d.items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %s", it.ID)
		}
		c := it
		d.items[it.ID] = &c
	}
	for _, it := range d.items {
		for _, cid := range it.Children {
			child, ok := d.items[cid]
			if !ok {
				return nil, fmt.Errorf("%w: %s (child of %s)", ErrUnknownItem, cid, it.ID)
			}
			if child.Parent != it.ID {
				return nil, fmt.Errorf("item %s lists child %s whose parent is %q", it.ID, cid, child.Parent)
			}
		}
	}
	for _, id := range s.Roots {
		if _, ok := d.items[id]; !ok {
			return nil, fmt.Errorf("%w: root %s", ErrUnknownItem, id)
		}
	}
	if err := checkTree(d.items, s.Roots); err != nil {
		return nil, err
	}
	for _, id := range s.Selection {
		if _, ok := d.items[id]; !ok {
			return nil, fmt.Errorf("%w: selected %s", ErrUnknownItem, id)
		}
	}
	d.roots = append([]string(nil), s.Roots...)
	d.selection = append([]string(nil), s.Selection...)
	return d, nil
}

// checkTree walks items from roots and fails on an item reached twice, which
// covers cycles and shared children, and on items no root reaches.
func checkTree(items map[string]*Item, roots []string) error {
	seen := make(map[string]bool, len(items))
	stack := make([]string, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		if p := items[roots[i]].Parent; p != "" {
			return fmt.Errorf("root %s has parent %s", roots[i], p)
		}
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return fmt.Errorf("item %s is reached more than once", id)
		}
		seen[id] = true
		stack = append(stack, items[id].Children...)
	}
	if len(seen) != len(items) {
		for id := range items {
			if !seen[id] {
				return fmt.Errorf("item %s is not reachable from any root", id)
			}
		}
	}
	return nil
}
