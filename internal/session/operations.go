package session

import (
	"errors"
	"fmt"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/geom"
	"github.com/lucent/lucent/core-go/internal/scene"
)

var errUnknownOp = errors.New("unknown operation type")

// Apply runs one operation. Failures are reported in the result; the
// document is left unchanged.
func (s *Session) Apply(op Operation) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res Result
		err error
	)
	if s.closed {
		err = ErrClosed
	} else {
		res, err = s.applyLocked(op)
	}
	res.OperationID = op.ID
	if err != nil {
		res.OK = false
		res.Data = nil
		res.Error = err.Error()
		res.Code = ErrorCode(err)
		return res
	}
	res.OK = true
	return res
}

func (s *Session) applyLocked(op Operation) (Result, error) {
	switch op.Type {
	case OpItemAdd:
		if op.Item == nil {
			return Result{}, fmt.Errorf("%w: item is required", document.ErrInvalidField)
		}
		return indexResult(s.model.AddItem(op.Item))
	case OpLayerAdd:
		return indexResult(s.model.AddLayer())
	case OpItemsGroup:
		indices, err := s.resolveMany(op)
		if err != nil {
			return Result{}, err
		}
		return indexResult(s.model.GroupItems(indices))
	case OpItemsClear:
		s.model.Clear()
		return Result{}, nil
	case OpHistoryUndo:
		return Result{Changed: s.model.Undo()}, nil
	case OpHistoryRedo:
		return Result{Changed: s.model.Redo()}, nil
	case OpTransactionBegin:
		s.model.BeginTransaction()
		return Result{}, nil
	case OpTransactionEnd:
		return Result{Changed: s.model.EndTransaction()}, nil
	case OpViewZoom:
		if op.Zoom == nil {
			return Result{}, fmt.Errorf("%w: zoom is required", document.ErrInvalidField)
		}
		s.builder.SetZoom(*op.Zoom)
		return Result{Data: s.builder.Zoom()}, nil
	case OpViewOffset:
		if op.X == nil || op.Y == nil {
			return Result{}, fmt.Errorf("%w: x and y are required", document.ErrInvalidField)
		}
		s.builder.SetOffset(geom.Pt(*op.X, *op.Y))
		return Result{}, nil
	case OpItemsList:
		return Result{Data: s.model.ItemsData()}, nil
	case OpSceneRender:
		return Result{Data: s.sceneLocked()}, nil
	case OpSceneBounds:
		return s.sceneBounds(op)
	case OpViewToDocument:
		if op.X == nil || op.Y == nil {
			return Result{}, fmt.Errorf("%w: x and y are required", document.ErrInvalidField)
		}
		return Result{Data: s.builder.ToDocument(*op.X, *op.Y)}, nil
	}

	if !isItemOp(op.Type) {
		s.logger.Warn("unknown operation", "type", op.Type)
		return Result{}, fmt.Errorf("%w: %s", errUnknownOp, op.Type)
	}
	index, err := s.resolve(op)
	if err != nil {
		return Result{}, err
	}
	switch op.Type {
	case OpItemRemove:
		return Result{}, s.model.RemoveItem(index)
	case OpItemUpdate:
		if op.Props == nil {
			return Result{}, fmt.Errorf("%w: props is required", document.ErrInvalidField)
		}
		return Result{}, s.model.UpdateItem(index, op.Props)
	case OpItemMove:
		if op.To == nil {
			return Result{}, fmt.Errorf("%w: to is required", document.ErrInvalidField)
		}
		return s.track(index, func() error { return s.model.MoveItem(index, *op.To) })
	case OpItemReparent:
		parent := ""
		if op.ParentID != nil {
			parent = *op.ParentID
		}
		return s.track(index, func() error { return s.model.ReparentItem(index, parent) })
	case OpItemToggleVisibility:
		return Result{}, s.model.ToggleVisibility(index)
	case OpItemToggleLocked:
		return Result{}, s.model.ToggleLocked(index)
	case OpItemRename:
		if op.Name == nil {
			return Result{}, fmt.Errorf("%w: name is required", document.ErrInvalidField)
		}
		return Result{}, s.model.RenameItem(index, *op.Name)
	default: // OpItemGet
		d, err := s.model.ItemData(index)
		return Result{Data: d}, err
	}
}

// resolve maps the operation's item address to a current index.
func (s *Session) resolve(op Operation) (int, error) {
	if op.ItemID != "" {
		i := s.model.IndexOf(op.ItemID)
		if i < 0 {
			return 0, fmt.Errorf("%w: %s", document.ErrNotFound, op.ItemID)
		}
		return i, nil
	}
	if op.Index == nil {
		return 0, fmt.Errorf("%w: itemId or index is required", document.ErrInvalidField)
	}
	return *op.Index, nil
}

func (s *Session) resolveMany(op Operation) ([]int, error) {
	out := append([]int(nil), op.Indices...)
	for _, id := range op.ItemIDs {
		i := s.model.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, id)
		}
		out = append(out, i)
	}
	return out, nil
}

// track runs a structural edit on the item at index and reports where
// the item landed.
func (s *Session) track(index int, edit func() error) (Result, error) {
	it, ok := s.model.Item(index)
	if err := edit(); err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, nil
	}
	i := s.model.IndexOf(it.ID)
	return Result{Index: &i}, nil
}

func (s *Session) sceneBounds(op Operation) (Result, error) {
	g := s.builder.Graph()
	if len(op.ItemIDs) > 0 {
		return Result{Data: boundsData(scene.NodeBounds(g, op.ItemIDs))}, nil
	}
	if len(op.Indices) > 0 {
		r, ok := s.model.UnionBounds(op.Indices)
		if !ok {
			return Result{}, document.ErrEmptyBounds
		}
		return Result{Data: boundsData(r)}, nil
	}
	r, ok := scene.ExportBounds(g)
	if !ok {
		return Result{}, document.ErrEmptyBounds
	}
	return Result{Data: boundsData(r)}, nil
}

func boundsData(r geom.Rect) scene.Bounds {
	return scene.Bounds{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func indexResult(i int, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Index: &i}, nil
}

func isItemOp(t string) bool {
	switch t {
	case OpItemRemove, OpItemUpdate, OpItemMove, OpItemReparent,
		OpItemToggleVisibility, OpItemToggleLocked, OpItemRename, OpItemGet:
		return true
	}
	return false
}

// ErrorCode maps an error to a stable code for clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, document.ErrUnknownType):
		return "unknownType"
	case errors.Is(err, document.ErrInvalidField):
		return "invalidField"
	case errors.Is(err, document.ErrIndexOutOfRange):
		return "indexOutOfRange"
	case errors.Is(err, document.ErrNotFound):
		return "notFound"
	case errors.Is(err, document.ErrLocked):
		return "locked"
	case errors.Is(err, document.ErrCycle):
		return "cycle"
	case errors.Is(err, document.ErrInvalidParent):
		return "invalidParent"
	case errors.Is(err, document.ErrEmptyBounds):
		return "emptyBounds"
	case errors.Is(err, document.ErrTextureTooLarge):
		return "textureTooLarge"
	case errors.Is(err, errUnknownOp):
		return "unknownOperation"
	case errors.Is(err, ErrClosed):
		return "sessionClosed"
	default:
		return "internal"
	}
}
