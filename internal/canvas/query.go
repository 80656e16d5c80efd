package canvas

import (
	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
)

func (m *Model) Count() int { return len(m.items) }

// Item returns the item at index. The returned item must not be modified.
func (m *Model) Item(index int) (*document.Item, bool) {
	if index < 0 || index >= len(m.items) {
		return nil, false
	}
	return m.items[index], true
}

// Items returns the item sequence, topmost first. The slice is a copy but
// the items are shared and must not be modified.
func (m *Model) Items() []*document.Item {
	out := make([]*document.Item, len(m.items))
	copy(out, m.items)
	return out
}

// ItemData returns the structured form of the item at index.
func (m *Model) ItemData(index int) (document.Data, error) {
	if err := m.checkIndex(index); err != nil {
		return nil, err
	}
	return m.items[index].Data(), nil
}

// ItemsData returns the structured form of every item, topmost first.
func (m *Model) ItemsData() []document.Data {
	return m.allData()
}

// IndexOf returns the current index of the item with the given id, or -1.
func (m *Model) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Bounds returns the transformed bounds of the shape at index.
func (m *Model) Bounds(index int) (geom.Rect, bool) {
	it, ok := m.Item(index)
	if !ok {
		return geom.Rect{}, false
	}
	return it.Bounds()
}

// UnionBounds returns the union of the transformed bounds of the shapes
// at indices. Organizational and out-of-range items are skipped.
func (m *Model) UnionBounds(indices []int) (geom.Rect, bool) {
	var (
		r     geom.Rect
		found bool
	)
	for _, i := range indices {
		b, ok := m.Bounds(i)
		if !ok {
			continue
		}
		if !found {
			r, found = b, true
			continue
		}
		r = r.Union(b)
	}
	return r, found
}

// EffectiveVisible reports whether the item at index and every ancestor
// are visible. Items with a dangling parent id are treated as roots.
func (m *Model) EffectiveVisible(index int) bool {
	it, ok := m.Item(index)
	if !ok {
		return false
	}
	for steps := 0; steps <= len(m.items); steps++ {
		if !it.Visible {
			return false
		}
		p := m.IndexOf(it.ParentID)
		if p < 0 {
			return true
		}
		it = m.items[p]
	}
	return true
}
