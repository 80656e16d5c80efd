package canvas

import (
	"fmt"
	"slices"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/history"
)

// MoveItem moves the item at from, together with the descendants directly
// following it, so that the item lands at index to. Out-of-range targets
// are clamped.
func (m *Model) MoveItem(from, to int) error {
	if err := m.checkIndex(from); err != nil {
		return m.reject("moveItem", from, err)
	}
	id := m.items[from].ID
	count := m.blockLen(from)
	if !m.moveBlock(from, count, to) {
		return nil
	}
	m.record(history.Move(id, count, from))
	return nil
}

// ReparentItem makes parentID the parent of the item at index and moves it
// with its descendants to directly below the parent. An empty parentID
// unparents the item without moving it.
func (m *Model) ReparentItem(index int, parentID string) error {
	if err := m.checkIndex(index); err != nil {
		return m.reject("reparentItem", index, err)
	}
	it := m.items[index]
	if parentID == "" {
		if it.ParentID == "" {
			return nil
		}
		return m.UpdateItem(index, document.Data{"parentId": ""})
	}
	if err := m.checkParent(it, parentID); err != nil {
		return m.reject("reparentItem", index, err)
	}
	if it.ParentID == parentID {
		return nil
	}

	snapshot := m.allData()
	count := m.blockLen(index)

	updated := it.Clone()
	updated.ParentID = parentID
	m.replaceAt(index, updated, []string{"parentId"})

	block := slices.Clone(m.items[index : index+count])
	rest := slices.Delete(slices.Clone(m.items), index, index+count)
	pidx := slices.IndexFunc(rest, func(x *document.Item) bool { return x.ID == parentID })
	to := pidx + 1
	if to != index {
		m.items = slices.Insert(rest, to, block...)
		m.emit(Event{Kind: EventItemsReordered, Index: to})
	}

	m.record(history.ReplaceAll(snapshot))
	return nil
}

// GroupItems wraps the items at indices in a new group placed at the
// smallest index. The group takes the parent of the topmost selected item,
// the selected items keep their relative order directly below it and
// their descendants travel with them. It returns the group's index.
func (m *Model) GroupItems(indices []int) (int, error) {
	if len(indices) == 0 {
		return -1, m.reject("groupItems", -1, fmt.Errorf("%w: no items", document.ErrInvalidField))
	}
	selected := make(map[string]bool, len(indices))
	for _, i := range indices {
		if err := m.checkIndex(i); err != nil {
			return -1, m.reject("groupItems", i, err)
		}
		if m.items[i].Type == document.TypeLayer {
			return -1, m.reject("groupItems", i, fmt.Errorf("%w: layers cannot be grouped", document.ErrInvalidParent))
		}
		selected[m.items[i].ID] = true
	}
	top := slices.Min(indices)

	snapshot := m.allData()

	var moved, rest []*document.Item
	insertAt := 0
	for i, it := range m.items {
		if selected[it.ID] || m.hasSelectedAncestor(i, selected) {
			moved = append(moved, it)
			continue
		}
		if i < top {
			insertAt++
		}
		rest = append(rest, it)
	}

	parentID := m.items[top].ParentID
	if slices.ContainsFunc(moved, func(x *document.Item) bool { return x.ID == parentID }) {
		parentID = ""
	}
	n := 1
	for _, it := range m.items {
		if it.Type == document.TypeGroup {
			n++
		}
	}
	group := document.NewGroup(fmt.Sprintf("Group %d", n), parentID)

	for i, it := range moved {
		if selected[it.ID] {
			c := it.Clone()
			c.ParentID = group.ID
			moved[i] = c
		}
	}

	result := slices.Insert(rest, insertAt, append([]*document.Item{group}, moved...)...)
	m.setAll(result)
	m.record(history.ReplaceAll(snapshot))
	return insertAt, nil
}

func (m *Model) hasSelectedAncestor(index int, selected map[string]bool) bool {
	for id := range selected {
		if m.isDescendant(index, id) {
			return true
		}
	}
	return false
}
