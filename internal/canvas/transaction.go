package canvas

import (
	"slices"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/history"
)

// BeginTransaction starts collapsing edits into one undo step. The state
// of every item is captured now; edits made until the matching
// EndTransaction record no history of their own. Transactions nest and
// only the outermost pair records.
func (m *Model) BeginTransaction() {
	if m.txDepth == 0 {
		m.txSnapshot = m.allData()
	}
	m.txDepth++
}

// InTransaction reports whether a transaction is open.
func (m *Model) InTransaction() bool { return m.txDepth > 0 }

// EndTransaction closes the current transaction. When the outermost one
// closes, the captured state is compared with the current one and a
// single undo entry is pushed if anything differs. It reports whether an
// entry was pushed.
//
// Only property changes are recorded per item. If the set or order of
// items changed while the transaction was open, the whole captured
// sequence is recorded instead.
func (m *Model) EndTransaction() bool {
	if m.txDepth == 0 {
		m.logger.Warn("edit rejected", "op", "endTransaction", "error", "no open transaction")
		return false
	}
	m.txDepth--
	if m.txDepth > 0 {
		return false
	}
	snapshot := m.txSnapshot
	m.txSnapshot = nil

	var before []string
	for _, d := range snapshot {
		id, _ := d["id"].(string)
		before = append(before, id)
	}
	if !slices.Equal(before, m.ids()) {
		m.record(history.ReplaceAll(snapshot))
		return true
	}

	var batch []history.Command
	for i, d := range snapshot {
		if !document.Equal(d, m.items[i].Data()) {
			batch = append(batch, history.Replace(m.items[i].ID, d))
		}
	}
	if len(batch) == 0 {
		return false
	}
	m.record(history.BatchReplace(batch))
	return true
}
