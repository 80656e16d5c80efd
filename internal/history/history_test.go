package history

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucent/lucent/core-go/internal/document"
)

// listTarget is a plain slice of item data.
type listTarget struct {
	items []document.Data
}

func (l *listTarget) IndexOf(id string) int {
	for i, d := range l.items {
		if d["id"] == id {
			return i
		}
	}
	return -1
}

func (l *listTarget) InsertData(index int, d document.Data) error {
	if index < 0 || index > len(l.items) {
		return document.ErrIndexOutOfRange
	}
	l.items = append(l.items[:index], append([]document.Data{d}, l.items[index:]...)...)
	return nil
}

func (l *listTarget) RemoveIndex(index int) (document.Data, error) {
	if index < 0 || index >= len(l.items) {
		return nil, document.ErrIndexOutOfRange
	}
	d := l.items[index]
	l.items = append(l.items[:index], l.items[index+1:]...)
	return d, nil
}

func (l *listTarget) ReplaceData(index int, d document.Data) (document.Data, error) {
	if index < 0 || index >= len(l.items) {
		return nil, document.ErrIndexOutOfRange
	}
	if d["fail"] == true {
		return nil, errors.New("rejected")
	}
	prev := l.items[index]
	l.items[index] = d
	return prev, nil
}

func (l *listTarget) ReplaceAllData(items []document.Data) ([]document.Data, error) {
	prev := l.items
	l.items = append([]document.Data(nil), items...)
	return prev, nil
}

func (l *listTarget) MoveBlock(from, count, to int) error {
	block := append([]document.Data(nil), l.items[from:from+count]...)
	rest := append(append([]document.Data(nil), l.items[:from]...), l.items[from+count:]...)
	to = min(max(to, 0), len(rest))
	l.items = append(rest[:to], append(block, rest[to:]...)...)
	return nil
}

func (l *listTarget) ids() []string {
	out := make([]string, len(l.items))
	for i, d := range l.items {
		out[i] = d["id"].(string)
	}
	return out
}

func item(id string, v float64) document.Data {
	return document.Data{"id": id, "v": v}
}

func TestInsertRemoveInverse(t *testing.T) {
	tgt := &listTarget{items: []document.Data{item("a", 1), item("b", 2)}}

	inv, err := Insert(1, item("c", 3)).Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, tgt.ids())
	assert.Equal(t, Remove("c"), inv)

	back, err := inv.Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tgt.ids())
	assert.Equal(t, Insert(1, item("c", 3)), back)
}

func TestReplaceResolvesByID(t *testing.T) {
	tgt := &listTarget{items: []document.Data{item("a", 1), item("b", 2)}}
	cmd := Replace("b", item("b", 20))

	// An unrelated insert shifts b; the command still finds it.
	_, err := Insert(0, item("z", 0)).Apply(tgt)
	require.NoError(t, err)

	inv, err := cmd.Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, 20.0, tgt.items[2]["v"])
	assert.Equal(t, Replace("b", item("b", 2)), inv)
}

func TestMissingIDFails(t *testing.T) {
	tgt := &listTarget{}
	_, err := Remove("ghost").Apply(tgt)
	assert.ErrorIs(t, err, document.ErrNotFound)
	_, err = Move("ghost", 1, 0).Apply(tgt)
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestBatchRollsBackOnFailure(t *testing.T) {
	tgt := &listTarget{items: []document.Data{item("a", 1), item("b", 2)}}
	bad := document.Data{"id": "b", "fail": true}

	_, err := BatchReplace([]Command{Replace("a", item("a", 10)), Replace("b", bad)}).Apply(tgt)
	require.Error(t, err)
	assert.Equal(t, 1.0, tgt.items[0]["v"])
	assert.Equal(t, 2.0, tgt.items[1]["v"])
}

func TestBatchInverse(t *testing.T) {
	tgt := &listTarget{items: []document.Data{item("a", 1), item("b", 2)}}
	inv, err := BatchReplace([]Command{Replace("a", item("a", 10)), Replace("b", item("b", 20))}).Apply(tgt)
	require.NoError(t, err)
	require.Equal(t, KindBatchReplace, inv.Kind)
	assert.Equal(t, []Command{Replace("b", item("b", 2)), Replace("a", item("a", 1))}, inv.Batch)

	_, err = inv.Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, []document.Data{item("a", 1), item("b", 2)}, tgt.items)
}

func TestMoveInverse(t *testing.T) {
	tgt := &listTarget{items: []document.Data{item("a", 0), item("b", 0), item("c", 0), item("d", 0)}}
	inv, err := Move("a", 2, 2).Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "a", "b"}, tgt.ids())

	_, err = inv.Apply(tgt)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, tgt.ids())
}

func TestStackUndoRedo(t *testing.T) {
	tgt := &listTarget{}
	s := NewStack(0)

	// Record three inserts the way the model does: mutate, push inverse.
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("i%d", i)
		inv, err := Insert(len(tgt.items), item(id, float64(i))).Apply(tgt)
		require.NoError(t, err)
		s.Push(inv)
	}
	assert.Equal(t, 3, s.UndoLen())
	assert.False(t, s.CanRedo())

	for s.CanUndo() {
		ok, err := s.Undo(tgt)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Empty(t, tgt.items)
	assert.Equal(t, 3, s.RedoLen())

	ok, err := s.Undo(tgt)
	require.NoError(t, err)
	assert.False(t, ok)

	for s.CanRedo() {
		_, err := s.Redo(tgt)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"i0", "i1", "i2"}, tgt.ids())
}

func TestPushClearsRedo(t *testing.T) {
	tgt := &listTarget{}
	s := NewStack(0)
	inv, err := Insert(0, item("a", 0)).Apply(tgt)
	require.NoError(t, err)
	s.Push(inv)
	_, err = s.Undo(tgt)
	require.NoError(t, err)
	require.True(t, s.CanRedo())

	s.Push(Remove("x"))
	assert.False(t, s.CanRedo())
}

func TestStackLimit(t *testing.T) {
	s := NewStack(2)
	s.Push(Remove("a"))
	s.Push(Remove("b"))
	s.Push(Remove("c"))
	assert.Equal(t, 2, s.UndoLen())
	assert.Equal(t, Remove("c"), s.undo[1])
	assert.Equal(t, Remove("b"), s.undo[0])

	s.Clear()
	assert.False(t, s.CanUndo())
}

func TestStackLimitReleasesTrimmed(t *testing.T) {
	s := NewStack(3)
	push := func(from, to int) {
		for i := from; i < to; i++ {
			s.Push(Replace(fmt.Sprint(i), item(fmt.Sprint(i), float64(i))))
		}
	}
	push(0, 10)
	grown := cap(s.undo)
	push(10, 50)
	require.Equal(t, 3, s.UndoLen())
	assert.Equal(t, "47", s.undo[0].ID)
	assert.Equal(t, "49", s.undo[2].ID)
	assert.Equal(t, grown, cap(s.undo), "backing array does not grow")
	for _, c := range s.undo[len(s.undo):cap(s.undo)] {
		assert.Equal(t, Command{}, c)
	}
}

func TestFailedUndoIsDropped(t *testing.T) {
	s := NewStack(0)
	s.Push(Remove("ghost"))
	ok, err := s.Undo(&listTarget{})
	assert.False(t, ok)
	assert.Error(t, err)
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
}
