package canvas

type EventKind string

const (
	EventItemAdded      EventKind = "itemAdded"
	EventItemRemoved    EventKind = "itemRemoved"
	EventItemsCleared   EventKind = "itemsCleared"
	EventItemModified   EventKind = "itemModified"
	EventItemsReordered EventKind = "itemsReordered"
	EventHistoryChanged EventKind = "historyChanged"
)

// Event is a change notification. Consumers should treat it as a hint to
// re-query the model, not as a replayable delta.
type Event struct {
	Kind    EventKind `json:"kind"`
	Index   int       `json:"index"`
	Fields  []string  `json:"fields,omitempty"`
	CanUndo bool      `json:"canUndo"`
	CanRedo bool      `json:"canRedo"`
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every event, delivered synchronously in
// mutation order. The returned function unregisters it.
func (m *Model) Subscribe(fn func(Event)) func() {
	m.nextSub++
	id := m.nextSub
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

func (m *Model) emit(e Event) {
	for _, s := range m.subs {
		s.fn(e)
	}
}

// notifyHistory emits EventHistoryChanged when undo or redo availability
// differs from what was last announced.
func (m *Model) notifyHistory() {
	canUndo, canRedo := m.history.CanUndo(), m.history.CanRedo()
	if canUndo == m.canUndo && canRedo == m.canRedo {
		return
	}
	m.canUndo, m.canRedo = canUndo, canRedo
	m.emit(Event{Kind: EventHistoryChanged, Index: -1, CanUndo: canUndo, CanRedo: canRedo})
}
