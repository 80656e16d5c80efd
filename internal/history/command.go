// Package history records reversible edits of the item sequence and
// replays them for undo and redo.
//
// Commands address items by their durable id and resolve it to the
// current index only when applied, so a recorded command stays valid
// when unrelated items move in between. Insert is the exception: the
// item does not exist yet, so it carries the index to insert at.
package history

import (
	"fmt"

	"github.com/lucent/lucent/core-go/internal/document"
)

type Kind string

const (
	KindInsert       Kind = "insert"
	KindRemove       Kind = "remove"
	KindReplace      Kind = "replace"
	KindBatchReplace Kind = "batchReplace"
	KindReplaceAll   Kind = "replaceAll"
	KindMove         Kind = "move"
)

// Command is a tagged variant. Which fields are set depends on Kind:
//
//	Insert:       Index, Data
//	Remove:       ID
//	Replace:      ID, Data
//	BatchReplace: Batch (Replace commands)
//	ReplaceAll:   Items
//	Move:         ID, To, Count
type Command struct {
	Kind  Kind            `json:"kind"`
	ID    string          `json:"id,omitempty"`
	Index int             `json:"index,omitempty"`
	To    int             `json:"to,omitempty"`
	Count int             `json:"count,omitempty"`
	Data  document.Data   `json:"data,omitempty"`
	Batch []Command       `json:"batch,omitempty"`
	Items []document.Data `json:"items,omitempty"`
}

// Target is the item sequence commands operate on. Implementations apply
// the change without recording history of their own.
type Target interface {
	IndexOf(id string) int
	InsertData(index int, d document.Data) error
	RemoveIndex(index int) (document.Data, error)
	// ReplaceData swaps the item at index and returns its previous data.
	ReplaceData(index int, d document.Data) (document.Data, error)
	// ReplaceAllData swaps the whole sequence and returns the previous one.
	ReplaceAllData(items []document.Data) ([]document.Data, error)
	// MoveBlock moves count items starting at from so the first lands at to.
	MoveBlock(from, count, to int) error
}

func Insert(index int, d document.Data) Command {
	return Command{Kind: KindInsert, Index: index, Data: d}
}

func Remove(id string) Command {
	return Command{Kind: KindRemove, ID: id}
}

func Replace(id string, d document.Data) Command {
	return Command{Kind: KindReplace, ID: id, Data: d}
}

func BatchReplace(batch []Command) Command {
	return Command{Kind: KindBatchReplace, Batch: batch}
}

func ReplaceAll(items []document.Data) Command {
	return Command{Kind: KindReplaceAll, Items: items}
}

func Move(id string, count, to int) Command {
	return Command{Kind: KindMove, ID: id, Count: count, To: to}
}

// Apply executes the command against t and returns the command that
// reverses it.
func (c Command) Apply(t Target) (Command, error) {
	switch c.Kind {
	case KindInsert:
		if err := t.InsertData(c.Index, c.Data); err != nil {
			return Command{}, fmt.Errorf("insert at %d: %w", c.Index, err)
		}
		id, _ := c.Data["id"].(string)
		return Remove(id), nil

	case KindRemove:
		idx, err := resolve(t, c.ID)
		if err != nil {
			return Command{}, err
		}
		prev, err := t.RemoveIndex(idx)
		if err != nil {
			return Command{}, fmt.Errorf("remove %s: %w", c.ID, err)
		}
		return Insert(idx, prev), nil

	case KindReplace:
		idx, err := resolve(t, c.ID)
		if err != nil {
			return Command{}, err
		}
		prev, err := t.ReplaceData(idx, c.Data)
		if err != nil {
			return Command{}, fmt.Errorf("replace %s: %w", c.ID, err)
		}
		return Replace(c.ID, prev), nil

	case KindBatchReplace:
		inverse := make([]Command, 0, len(c.Batch))
		for _, sub := range c.Batch {
			inv, err := sub.Apply(t)
			if err != nil {
				rollback(t, inverse)
				return Command{}, fmt.Errorf("batch: %w", err)
			}
			inverse = append(inverse, inv)
		}
		return BatchReplace(reversed(inverse)), nil

	case KindReplaceAll:
		prev, err := t.ReplaceAllData(c.Items)
		if err != nil {
			return Command{}, fmt.Errorf("replace all: %w", err)
		}
		return ReplaceAll(prev), nil

	case KindMove:
		idx, err := resolve(t, c.ID)
		if err != nil {
			return Command{}, err
		}
		if err := t.MoveBlock(idx, c.Count, c.To); err != nil {
			return Command{}, fmt.Errorf("move %s: %w", c.ID, err)
		}
		return Move(c.ID, c.Count, idx), nil

	default:
		return Command{}, fmt.Errorf("unknown command kind %q", c.Kind)
	}
}

func resolve(t Target, id string) (int, error) {
	idx := t.IndexOf(id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", document.ErrNotFound, id)
	}
	return idx, nil
}

// rollback undoes the already applied part of a failed batch, newest first.
func rollback(t Target, applied []Command) {
	for i := len(applied) - 1; i >= 0; i-- {
		_, _ = applied[i].Apply(t)
	}
}

func reversed(cmds []Command) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[len(cmds)-1-i] = c
	}
	return out
}
