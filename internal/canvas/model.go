// Package canvas is the document model: the ordered item sequence, the
// edit operations on it, undo/redo history and change notifications.
//
// Index 0 is the topmost item. Every mutation keeps that order exactly.
// A Model is not safe for concurrent use; callers serialize access.
package canvas

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/history"
)

type state int

const (
	stateIdle state = iota
	// stateReplaying is set while undo or redo applies a command.
	stateReplaying
)

type Option func(*Model)

// WithLogger sets the logger rejected edits are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithHistoryLimit caps the number of undo entries. Zero means unlimited.
func WithHistoryLimit(n int) Option {
	return func(m *Model) { m.history = history.NewStack(n) }
}

type Model struct {
	items   []*document.Item
	history *history.Stack
	state   state

	txDepth    int
	txSnapshot []document.Data

	subs    []subscriber
	nextSub int

	canUndo, canRedo bool

	logger *slog.Logger
}

func New(opts ...Option) *Model {
	m := &Model{
		history: history.NewStack(0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// reject logs a refused operation and hands the error back.
func (m *Model) reject(op string, index int, err error) error {
	m.logger.Warn("edit rejected", "op", op, "index", index, "error", err)
	return err
}

// record pushes the inverse of a mutation unless a replay or a
// transaction is in progress.
func (m *Model) record(c history.Command) {
	if m.state == stateReplaying || m.txDepth > 0 {
		return
	}
	m.history.Push(c)
	m.notifyHistory()
}

func (m *Model) checkIndex(index int) error {
	if index < 0 || index >= len(m.items) {
		return fmt.Errorf("%w: %d (count %d)", document.ErrIndexOutOfRange, index, len(m.items))
	}
	return nil
}

// AddItem validates d and appends the new item at the bottom of the stack.
func (m *Model) AddItem(d document.Data) (int, error) {
	it, err := document.Parse(d)
	if err != nil {
		return -1, m.reject("addItem", -1, err)
	}
	if m.IndexOf(it.ID) >= 0 {
		return -1, m.reject("addItem", -1, fmt.Errorf("%w: duplicate id %s", document.ErrInvalidField, it.ID))
	}
	if err := m.checkParent(it, it.ParentID); err != nil {
		return -1, m.reject("addItem", -1, err)
	}

	index := len(m.items)
	m.insertAt(index, it)
	m.record(history.Remove(it.ID))
	return index, nil
}

// AddLayer appends a new layer named "Layer N".
func (m *Model) AddLayer() (int, error) {
	n := 1
	for _, it := range m.items {
		if it.Type == document.TypeLayer {
			n++
		}
	}
	layer := document.NewLayer(fmt.Sprintf("Layer %d", n))
	index := len(m.items)
	m.insertAt(index, layer)
	m.record(history.Remove(layer.ID))
	return index, nil
}

// RemoveItem removes only the addressed item. Children of a removed
// container keep their parent id and render as roots.
func (m *Model) RemoveItem(index int) error {
	if err := m.checkIndex(index); err != nil {
		return m.reject("removeItem", index, err)
	}
	prev := m.removeAt(index)
	m.record(history.Insert(index, prev.Data()))
	return nil
}

// UpdateItem merges partial properties into the item at index. Content
// edits on a locked item fail with document.ErrLocked; name, visibility,
// lock and parent edits are always allowed.
func (m *Model) UpdateItem(index int, partial document.Data) error {
	if err := m.checkIndex(index); err != nil {
		return m.reject("updateItem", index, err)
	}
	cur := m.items[index]
	if cur.Locked && document.IsContentEdit(partial) {
		return m.reject("updateItem", index, fmt.Errorf("%w: %s", document.ErrLocked, cur.ID))
	}

	updated, changed, err := document.Merge(cur, partial)
	if err != nil {
		return m.reject("updateItem", index, err)
	}
	if updated.ParentID != cur.ParentID {
		if err := m.checkParent(cur, updated.ParentID); err != nil {
			return m.reject("updateItem", index, err)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	prev := cur.Data()
	m.replaceAt(index, updated, changed)
	m.record(history.Replace(cur.ID, prev))
	return nil
}

// ToggleVisibility flips the visible flag.
func (m *Model) ToggleVisibility(index int) error {
	if err := m.checkIndex(index); err != nil {
		return m.reject("toggleVisibility", index, err)
	}
	return m.UpdateItem(index, document.Data{"visible": !m.items[index].Visible})
}

// ToggleLocked flips the locked flag.
func (m *Model) ToggleLocked(index int) error {
	if err := m.checkIndex(index); err != nil {
		return m.reject("toggleLocked", index, err)
	}
	return m.UpdateItem(index, document.Data{"locked": !m.items[index].Locked})
}

func (m *Model) RenameItem(index int, name string) error {
	return m.UpdateItem(index, document.Data{"name": name})
}

// Clear removes every item as a single undoable step.
func (m *Model) Clear() {
	if len(m.items) == 0 {
		return
	}
	prev := m.allData()
	m.items = nil
	m.emit(Event{Kind: EventItemsCleared, Index: -1})
	m.record(history.ReplaceAll(prev))
}

// Undo reverts the most recent step and reports whether anything changed.
func (m *Model) Undo() bool {
	return m.replay("undo", m.history.Undo)
}

// Redo re-applies the most recently undone step.
func (m *Model) Redo() bool {
	return m.replay("redo", m.history.Redo)
}

func (m *Model) replay(op string, fn func(history.Target) (bool, error)) bool {
	if m.txDepth > 0 {
		m.logger.Warn("edit rejected", "op", op, "error", "transaction open")
		return false
	}
	m.state = stateReplaying
	ok, err := fn(target{m})
	m.state = stateIdle
	if err != nil {
		m.logger.Warn("replay failed", "op", op, "error", err)
	}
	m.notifyHistory()
	return ok
}

func (m *Model) CanUndo() bool { return m.history.CanUndo() }
func (m *Model) CanRedo() bool { return m.history.CanRedo() }
func (m *Model) UndoDepth() int { return m.history.UndoLen() }

// ClearHistory drops all undo and redo entries.
func (m *Model) ClearHistory() {
	m.history.Clear()
	m.notifyHistory()
}

// checkParent validates parentID as the new parent of it. An empty id
// means no parent.
func (m *Model) checkParent(it *document.Item, parentID string) error {
	if parentID == "" {
		return nil
	}
	if it.Type == document.TypeLayer {
		return fmt.Errorf("%w: layers cannot have a parent", document.ErrInvalidParent)
	}
	pidx := m.IndexOf(parentID)
	if pidx < 0 {
		return fmt.Errorf("%w: %s does not exist", document.ErrInvalidParent, parentID)
	}
	if !m.items[pidx].IsContainer() {
		return fmt.Errorf("%w: %s is a %s", document.ErrInvalidParent, parentID, m.items[pidx].Type)
	}
	if parentID == it.ID || m.isDescendant(pidx, it.ID) {
		return fmt.Errorf("%w: %s under %s", document.ErrCycle, it.ID, parentID)
	}
	return nil
}

// isDescendant reports whether the item at index has ancestorID somewhere
// in its parent chain.
func (m *Model) isDescendant(index int, ancestorID string) bool {
	seen := 0
	for pid := m.items[index].ParentID; pid != "" && seen <= len(m.items); seen++ {
		if pid == ancestorID {
			return true
		}
		p := m.IndexOf(pid)
		if p < 0 {
			return false
		}
		pid = m.items[p].ParentID
	}
	return false
}

// blockLen is the length of the run starting at index made of the item
// and the descendants directly following it.
func (m *Model) blockLen(index int) int {
	id := m.items[index].ID
	n := 1
	for index+n < len(m.items) && m.isDescendant(index+n, id) {
		n++
	}
	return n
}

func (m *Model) allData() []document.Data {
	out := make([]document.Data, len(m.items))
	for i, it := range m.items {
		out[i] = it.Data()
	}
	return out
}

func (m *Model) ids() []string {
	out := make([]string, len(m.items))
	for i, it := range m.items {
		out[i] = it.ID
	}
	return out
}

// Raw mutations. These change the sequence and emit events; they never
// touch history.

func (m *Model) insertAt(index int, it *document.Item) {
	m.items = slices.Insert(m.items, index, it)
	m.emit(Event{Kind: EventItemAdded, Index: index})
}

func (m *Model) removeAt(index int) *document.Item {
	it := m.items[index]
	m.items = slices.Delete(m.items, index, index+1)
	m.emit(Event{Kind: EventItemRemoved, Index: index})
	return it
}

func (m *Model) replaceAt(index int, it *document.Item, changed []string) {
	m.items[index] = it
	m.emit(Event{Kind: EventItemModified, Index: index, Fields: changed})
}

// moveBlock moves count items starting at from so the first lands at to,
// clamped to the valid range. It reports whether anything moved.
func (m *Model) moveBlock(from, count, to int) bool {
	to = min(max(to, 0), len(m.items)-count)
	if to == from {
		return false
	}
	block := slices.Clone(m.items[from : from+count])
	rest := slices.Delete(slices.Clone(m.items), from, from+count)
	m.items = slices.Insert(rest, to, block...)
	m.emit(Event{Kind: EventItemsReordered, Index: to})
	return true
}

// setAll swaps the whole sequence.
func (m *Model) setAll(items []*document.Item) {
	wasEmpty := len(m.items) == 0
	m.items = items
	switch {
	case len(items) == 0:
		m.emit(Event{Kind: EventItemsCleared, Index: -1})
	case wasEmpty:
		for i := range items {
			m.emit(Event{Kind: EventItemAdded, Index: i})
		}
	default:
		m.emit(Event{Kind: EventItemsReordered, Index: -1})
	}
}
