package canvas

import (
	"fmt"

	"github.com/lucent/lucent/core-go/internal/document"
)

// target applies history commands to the model. Items are rebuilt from
// their recorded data with ids preserved, and lock state is not checked.
type target struct{ m *Model }

func (t target) IndexOf(id string) int { return t.m.IndexOf(id) }

func (t target) InsertData(index int, d document.Data) error {
	if index < 0 || index > len(t.m.items) {
		return fmt.Errorf("%w: %d", document.ErrIndexOutOfRange, index)
	}
	it, err := document.Parse(d)
	if err != nil {
		return err
	}
	t.m.insertAt(index, it)
	return nil
}

func (t target) RemoveIndex(index int) (document.Data, error) {
	if err := t.m.checkIndex(index); err != nil {
		return nil, err
	}
	return t.m.removeAt(index).Data(), nil
}

func (t target) ReplaceData(index int, d document.Data) (document.Data, error) {
	if err := t.m.checkIndex(index); err != nil {
		return nil, err
	}
	it, err := document.Parse(d)
	if err != nil {
		return nil, err
	}
	prev := t.m.items[index].Data()
	t.m.replaceAt(index, it, changedKeys(prev, it.Data()))
	return prev, nil
}

func (t target) ReplaceAllData(items []document.Data) ([]document.Data, error) {
	parsed := make([]*document.Item, len(items))
	for i, d := range items {
		it, err := document.Parse(d)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		parsed[i] = it
	}
	prev := t.m.allData()
	t.m.setAll(parsed)
	return prev, nil
}

func (t target) MoveBlock(from, count, to int) error {
	if count < 1 || from < 0 || from+count > len(t.m.items) {
		return fmt.Errorf("%w: block %d+%d", document.ErrIndexOutOfRange, from, count)
	}
	t.m.moveBlock(from, count, to)
	return nil
}

func changedKeys(before, after document.Data) []string {
	var out []string
	for k, v := range after {
		if !document.Equal(document.Data{"v": v}, document.Data{"v": before[k]}) {
			out = append(out, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}
