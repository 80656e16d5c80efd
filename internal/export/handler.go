package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/lucent/lucent/core-go/internal/document"
	"github.com/lucent/lucent/core-go/internal/session"
)

const (
	defaultScale = 1.0
	maxScale     = 8.0
)

type Handler struct {
	registry *session.Registry
	logger   *slog.Logger
}

func NewHandler(registry *session.Registry, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// ExportPNG handles GET /api/sessions/{sessionId}/export.png?scale=N.
// The whole visible scene is composited; nothing is written to the
// response until encoding succeeds.
func (h *Handler) ExportPNG(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sessionId"]
	sess, ok := h.registry.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	scale := defaultScale
	if s := r.URL.Query().Get("scale"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 || v > maxScale {
			http.Error(w, fmt.Sprintf("invalid scale: must be in (0, %g]", maxScale), http.StatusBadRequest)
			return
		}
		scale = v
	}

	var buf bytes.Buffer
	if err := sess.WritePNG(&buf, scale); err != nil {
		if errors.Is(err, session.ErrClosed) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, document.ErrEmptyBounds) {
			http.Error(w, "nothing to export", http.StatusUnprocessableEntity)
			return
		}
		if errors.Is(err, document.ErrTextureTooLarge) {
			http.Error(w, "scene too large to export at this scale", http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("export failed", "session", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="scene.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	h.logger.Info("export complete", "session", id, "size", buf.Len())
}
