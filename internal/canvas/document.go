// Package canvas implements an in-memory drawing document: plain path
// shapes, placed images, groups and clipping rectangles, addressed by ID and
// kept in paint order. It is the surface the layout engine mutates and the
// exporters render.
package canvas

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/piwi3910/framefill/internal/model"
	"github.com/piwi3910/framefill/internal/source"
)

// Kind identifies what an item is.
type Kind string

const (
	KindPath   Kind = "path"   // Plain shape, e.g. a frame outline
	KindPlaced Kind = "placed" // Linked or embedded image
	KindGroup  Kind = "group"  // Container of other items
	KindClip   Kind = "clip"   // Clipping rectangle inside a group
)

var (
	ErrUnknownItem         = errors.New("unknown item")
	ErrNotPlaced           = errors.New("item is not a placed image")
	ErrNotGroup            = errors.New("item is not a group")
	ErrNoClipPath          = errors.New("group has no clipping path")
	ErrInvalidSize         = errors.New("invalid size")
	ErrUnsupportedRotation = errors.New("only multiples of 90 degrees are supported")
)

// Item is one element of the document. Coords holds the raw
// [left, top, right, bottom] bounds in the document's axis convention.
type Item struct {
	ID       string    `json:"id"`
	Kind     Kind      `json:"kind"`
	Label    string    `json:"label,omitempty"`
	Coords   []float64 `json:"coords,omitempty"`
	Path     string    `json:"path,omitempty"`     // placed: image file
	Rotation float64   `json:"rotation,omitempty"` // placed: degrees counter-clockwise
	Embedded bool      `json:"embedded,omitempty"` // placed: pixels materialized
	Clipped  bool      `json:"clipped,omitempty"`  // group: clipping enabled
	Children []string  `json:"children,omitempty"` // group: paint order, first is bottom
	Parent   string    `json:"parent,omitempty"`
}

// Bounds validates and returns the item's own coordinates.
func (it Item) Bounds() (model.Bounds, error) {
	return model.BoundsFromCoords(it.Coords)
}

// ProbeFunc reports the natural pixel size of an image file from its header.
type ProbeFunc func(path string) (int, int, error)

// MaterializeFunc fully loads an image file and reports its pixel size.
type MaterializeFunc func(path string) (int, int, error)

func decodeSize(path string) (int, int, error) {
	img, err := source.Decode(path)
	if err != nil {
		return 0, 0, err
	}
	return img.Bounds().Dx(), img.Bounds().Dy(), nil
}

// Option configures a Document.
type Option func(*Document)

// WithProbe replaces the header probe used by PlaceImage.
func WithProbe(p ProbeFunc) Option {
	return func(d *Document) { d.probe = p }
}

// WithMaterializer replaces the full decode used by Embed.
func WithMaterializer(m MaterializeFunc) Option {
	return func(d *Document) { d.materialize = m }
}

// Document is a mutable scene. All methods are safe for concurrent use; the
// mutex serializes mutations coming from UI callbacks and the fill loop.
type Document struct {
	mu sync.Mutex

	name      string
	axis      model.AxisDirection
	items     map[string]*Item
	roots     []string
	selection []string

	probe       ProbeFunc
	materialize MaterializeFunc
}

// New creates an empty document using the given vertical axis convention.
func New(name string, axis model.AxisDirection, opts ...Option) *Document {
	d := &Document{
		name:        name,
		axis:        axis,
		items:       make(map[string]*Item),
		probe:       source.Probe,
		materialize: decodeSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the document name.
func (d *Document) Name() string { return d.name }

// Axis returns the document's vertical axis convention.
func (d *Document) Axis() model.AxisDirection { return d.axis }

func (d *Document) newID() string {
	for {
		id := uuid.New().String()[:8]
		if _, exists := d.items[id]; !exists {
			return id
		}
	}
}

func (d *Document) get(id string) (*Item, error) {
	it, ok := d.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	return it, nil
}

func (d *Document) getKind(id string, kind Kind, kindErr error) (*Item, error) {
	it, err := d.get(id)
	if err != nil {
		return nil, err
	}
	if it.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s", kindErr, id, it.Kind)
	}
	return it, nil
}

// AddShape adds a plain path item at the top of the document. The coords are
// stored as given, so callers can model host items with unusable bounds.
func (d *Document) AddShape(label string, coords []float64) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.newID()
	c := make([]float64, len(coords))
	copy(c, coords)
	d.items[id] = &Item{ID: id, Kind: KindPath, Label: label, Coords: c}
	d.roots = append(d.roots, id)
	return id
}

// AddShapes adds each shape as a path item, selects all of them and returns
// their new IDs in order. Shape IDs are kept when present and unused.
func (d *Document) AddShapes(shapes []model.Shape) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(shapes))
	for _, s := range shapes {
		id := s.ID
		if _, taken := d.items[id]; id == "" || taken {
			id = d.newID()
		}
		c := make([]float64, len(s.Coords))
		copy(c, s.Coords)
		d.items[id] = &Item{ID: id, Kind: KindPath, Label: s.Label, Coords: c}
		d.roots = append(d.roots, id)
		ids = append(ids, id)
	}
	d.selection = append(d.selection, ids...)
	return ids
}

// Select replaces the selection with the given items.
func (d *Document) Select(ids ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if _, err := d.get(id); err != nil {
			return err
		}
	}
	d.selection = append([]string(nil), ids...)
	return nil
}

// Selection returns the selected items as shapes, in selection order.
func (d *Document) Selection() []model.Shape {
	d.mu.Lock()
	defer d.mu.Unlock()

	shapes := make([]model.Shape, 0, len(d.selection))
	for _, id := range d.selection {
		it, ok := d.items[id]
		if !ok {
			continue
		}
		c := make([]float64, len(it.Coords))
		copy(c, it.Coords)
		shapes = append(shapes, model.Shape{ID: it.ID, Label: it.Label, Coords: c})
	}
	return shapes
}

// PlaceImage links the image file at path into the document at the top of the
// paint order, positioned at the origin with its natural size. A header that
// cannot be read leaves the item with zero size; Embed can retry with a full
// decode.
func (d *Document) PlaceImage(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("place %s: %w", path, err)
	}

	w, h, err := d.probe(path)
	if err != nil {
		w, h = 0, 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.newID()
	b := d.axis.TopLeftRect(0, 0, float64(w), float64(h))
	d.items[id] = &Item{ID: id, Kind: KindPlaced, Path: path, Coords: b.Coords()}
	d.roots = append(d.roots, id)
	return id, nil
}

// ItemSize returns the current width and height of an item.
func (d *Document) ItemSize(id string) (float64, float64, error) {
	b, err := d.ItemBounds(id)
	if err != nil {
		return 0, 0, err
	}
	return b.Width(), b.Height(), nil
}

// Embed fully decodes a placed image and updates its size from the pixels,
// keeping the top-left corner in place.
func (d *Document) Embed(id string) error {
	d.mu.Lock()
	it, err := d.getKind(id, KindPlaced, ErrNotPlaced)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	path := it.Path
	d.mu.Unlock()

	w, h, err := d.materialize(path)
	if err != nil {
		return fmt.Errorf("embed %s: %w", id, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	it, err = d.getKind(id, KindPlaced, ErrNotPlaced)
	if err != nil {
		return err
	}
	b, err := it.Bounds()
	if err != nil {
		return err
	}
	left, top := d.topLeft(b)
	w0, h0 := float64(w), float64(h)
	if math.Mod(it.Rotation, 180) != 0 {
		w0, h0 = h0, w0
	}
	it.Coords = d.axis.TopLeftRect(left, top, w0, h0).Coords()
	it.Embedded = true
	return nil
}

// Rotate turns a placed image counter-clockwise about its center.
func (d *Document) Rotate(id string, degrees float64) error {
	if math.Mod(degrees, 90) != 0 {
		return fmt.Errorf("rotate %s by %g: %w", id, degrees, ErrUnsupportedRotation)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	it, err := d.getKind(id, KindPlaced, ErrNotPlaced)
	if err != nil {
		return err
	}
	b, err := it.Bounds()
	if err != nil {
		return err
	}

	if math.Mod(degrees, 180) != 0 {
		c := b.Center()
		w, h := b.Width(), b.Height()
		left, top := c.X-h/2, c.Y-w/2
		if d.axis == model.AxisUp {
			top = c.Y + w/2
		}
		it.Coords = d.axis.TopLeftRect(left, top, h, w).Coords()
	}
	it.Rotation = math.Mod(math.Mod(it.Rotation+degrees, 360)+360, 360)
	return nil
}

// Resize sets the width and height of a placed image, keeping its top-left
// corner in place.
func (d *Document) Resize(id string, w, h float64) error {
	if !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return fmt.Errorf("resize %s to %gx%g: %w", id, w, h, ErrInvalidSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	it, err := d.getKind(id, KindPlaced, ErrNotPlaced)
	if err != nil {
		return err
	}
	b, err := it.Bounds()
	if err != nil {
		return err
	}
	left, top := d.topLeft(b)
	it.Coords = d.axis.TopLeftRect(left, top, w, h).Coords()
	return nil
}

// ItemBounds returns an item's bounds in the document's convention. A clipped
// group reports its clipping rectangle; other groups the union of children.
func (d *Document) ItemBounds(id string) (model.Bounds, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.boundsOf(id)
}

func (d *Document) boundsOf(id string) (model.Bounds, error) {
	it, err := d.get(id)
	if err != nil {
		return model.Bounds{}, err
	}
	if it.Kind != KindGroup {
		return it.Bounds()
	}

	if it.Clipped {
		if clip := d.clipOf(it); clip != nil {
			return clip.Bounds()
		}
	}
	var union model.Bounds
	found := false
	for _, cid := range it.Children {
		cb, err := d.boundsOf(cid)
		if err != nil {
			continue
		}
		if !found {
			union = cb.Normalized()
			found = true
		} else {
			union = union.Union(cb)
		}
	}
	if !found {
		return model.Bounds{}, fmt.Errorf("group %s is empty", id)
	}
	return d.orient(union), nil
}

// Translate moves an item, and for groups all of its descendants.
func (d *Document) Translate(id string, dx, dy float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	it, err := d.get(id)
	if err != nil {
		return err
	}
	if it.Kind == KindGroup {
		for _, cid := range it.Children {
			if err := d.translateLocked(cid, dx, dy); err != nil {
				return err
			}
		}
		return nil
	}
	return d.translateLocked(id, dx, dy)
}

func (d *Document) translateLocked(id string, dx, dy float64) error {
	it, err := d.get(id)
	if err != nil {
		return err
	}
	if it.Kind == KindGroup {
		for _, cid := range it.Children {
			if err := d.translateLocked(cid, dx, dy); err != nil {
				return err
			}
		}
		return nil
	}
	b, err := it.Bounds()
	if err != nil {
		return err
	}
	it.Coords = b.Translate(dx, dy).Coords()
	return nil
}

// AddGroup creates an empty group at the top of the document.
func (d *Document) AddGroup() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.newID()
	d.items[id] = &Item{ID: id, Kind: KindGroup}
	d.roots = append(d.roots, id)
	return id, nil
}

// AddClipRect adds a non-visible clipping rectangle with bounds b as the
// bottom-most child of group.
func (d *Document) AddClipRect(group string, b model.Bounds) (string, error) {
	if b.IsDegenerate() {
		return "", fmt.Errorf("clip rect %v: %w", b.Coords(), ErrInvalidSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.getKind(group, KindGroup, ErrNotGroup)
	if err != nil {
		return "", err
	}
	id := d.newID()
	d.items[id] = &Item{ID: id, Kind: KindClip, Coords: b.Coords(), Parent: group}
	g.Children = append([]string{id}, g.Children...)
	return id, nil
}

// MoveInto re-parents an item as the top-most child of group.
func (d *Document) MoveInto(id, group string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id == group {
		return fmt.Errorf("cannot move %s into itself", id)
	}
	it, err := d.get(id)
	if err != nil {
		return err
	}
	g, err := d.getKind(group, KindGroup, ErrNotGroup)
	if err != nil {
		return err
	}
	d.detach(it)
	it.Parent = group
	g.Children = append(g.Children, id)
	return nil
}

// SetClipped enables or disables clipping on a group. Enabling requires a
// clipping rectangle inside the group.
func (d *Document) SetClipped(group string, clipped bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, err := d.getKind(group, KindGroup, ErrNotGroup)
	if err != nil {
		return err
	}
	if clipped && d.clipOf(g) == nil {
		return fmt.Errorf("clip %s: %w", group, ErrNoClipPath)
	}
	g.Clipped = clipped
	return nil
}

// RemoveItem deletes an item and all of its descendants.
func (d *Document) RemoveItem(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	it, err := d.get(id)
	if err != nil {
		return err
	}
	d.detach(it)
	d.deleteTree(it)
	return nil
}

func (d *Document) deleteTree(it *Item) {
	for _, cid := range it.Children {
		if child, ok := d.items[cid]; ok {
			d.deleteTree(child)
		}
	}
	delete(d.items, it.ID)
	d.selection = removeID(d.selection, it.ID)
}

// detach unlinks an item from its parent group or from the root list.
func (d *Document) detach(it *Item) {
	if it.Parent == "" {
		d.roots = removeID(d.roots, it.ID)
		return
	}
	if p, ok := d.items[it.Parent]; ok {
		p.Children = removeID(p.Children, it.ID)
	}
	it.Parent = ""
}

func (d *Document) clipOf(g *Item) *Item {
	for _, cid := range g.Children {
		if c, ok := d.items[cid]; ok && c.Kind == KindClip {
			return c
		}
	}
	return nil
}

// topLeft returns the visual top-left corner of b in this document.
func (d *Document) topLeft(b model.Bounds) (float64, float64) {
	n := b.Normalized()
	if d.axis == model.AxisUp {
		return n.Left, n.Bottom
	}
	return n.Left, n.Top
}

// orient converts a normalized rectangle to this document's convention.
func (d *Document) orient(n model.Bounds) model.Bounds {
	if d.axis == model.AxisUp {
		return model.Bounds{Left: n.Left, Top: n.Bottom, Right: n.Right, Bottom: n.Top}
	}
	return n
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Item returns a copy of the item with the given ID.
func (d *Document) Item(id string) (Item, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	it, ok := d.items[id]
	if !ok {
		return Item{}, false
	}
	return copyItem(it), true
}

// Roots returns copies of the top-level items in paint order.
func (d *Document) Roots() []Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copies(d.roots)
}

// Children returns copies of a group's children in paint order.
func (d *Document) Children(id string) []Item {
	d.mu.Lock()
	defer d.mu.Unlock()

	it, ok := d.items[id]
	if !ok {
		return nil
	}
	return d.copies(it.Children)
}

// Len returns the number of items in the document.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Extent returns the normalized union of every visible item: path shapes
// and the visible area of groups. The second result is false for an empty
// document.
func (d *Document) Extent() (model.Bounds, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ext model.Bounds
	found := false
	for _, id := range d.roots {
		b, err := d.boundsOf(id)
		if err != nil || b.IsDegenerate() {
			continue
		}
		if !found {
			ext = b.Normalized()
			found = true
		} else {
			ext = ext.Union(b)
		}
	}
	return ext, found
}

func (d *Document) copies(ids []string) []Item {
	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := d.items[id]; ok {
			out = append(out, copyItem(it))
		}
	}
	return out
}

func copyItem(it *Item) Item {
	c := *it
	c.Coords = append([]float64(nil), it.Coords...)
	c.Children = append([]string(nil), it.Children...)
	return c
}
