package session

import (
	"encoding/json"

	"github.com/lucent/lucent/core-go/internal/document"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypeError = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync  = "doc.sync"
	TypeDocEvent = "doc.event"

	// Operation message types
	TypeOpSubmit = "op.submit"
	TypeOpAck    = "op.ack"
	TypeOpNack   = "op.nack"
)

// Operation type tags.
const (
	OpItemAdd              = "item.add"
	OpItemRemove           = "item.remove"
	OpItemUpdate           = "item.update"
	OpItemsClear           = "items.clear"
	OpItemMove             = "item.move"
	OpItemReparent         = "item.reparent"
	OpItemsGroup           = "items.group"
	OpLayerAdd             = "layer.add"
	OpItemToggleVisibility = "item.toggleVisibility"
	OpItemToggleLocked     = "item.toggleLocked"
	OpItemRename           = "item.rename"
	OpHistoryUndo          = "history.undo"
	OpHistoryRedo          = "history.redo"
	OpTransactionBegin     = "transaction.begin"
	OpTransactionEnd       = "transaction.end"
	OpViewZoom             = "view.zoom"
	OpViewOffset           = "view.offset"
	OpViewToDocument       = "view.toDocument"

	// Queries
	OpItemsList   = "items.list"
	OpItemGet     = "item.get"
	OpSceneRender = "scene.render"
	OpSceneBounds = "scene.bounds"
)

// Operation is one edit or query against a session. Items are addressed
// by ItemID when set, otherwise by Index.
type Operation struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`

	ItemID  string   `json:"itemId,omitempty"`
	ItemIDs []string `json:"itemIds,omitempty"`
	Index   *int     `json:"index,omitempty"`
	Indices []int    `json:"indices,omitempty"`

	// For item.add
	Item document.Data `json:"item,omitempty"`
	// For item.update
	Props document.Data `json:"props,omitempty"`

	// For item.move
	To *int `json:"to,omitempty"`
	// For item.reparent
	ParentID *string `json:"parentId,omitempty"`
	// For item.rename
	Name *string `json:"name,omitempty"`

	// For view.zoom and view.offset
	Zoom *float64 `json:"zoom,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

// Result answers one Operation.
type Result struct {
	OperationID string `json:"operationId,omitempty"`
	OK          bool   `json:"ok"`
	Index       *int   `json:"index,omitempty"`
	// Changed reports whether undo, redo or transaction.end did anything.
	Changed bool   `json:"changed,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type SyncPayload struct {
	Items   []document.Data `json:"items"`
	CanUndo bool            `json:"canUndo"`
	CanRedo bool            `json:"canRedo"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
