//go:build js && wasm

package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/lucent/lucent/core-go/internal/canvas"
	"github.com/lucent/lucent/core-go/internal/session"
)

var sess *session.Session

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})))
	sess = session.New()

	// Create the core API object
	core := js.Global().Get("Object").New()

	// --- Commands (frontend → core) ---
	core.Set("apply", js.FuncOf(apply))
	core.Set("loadSample", js.FuncOf(loadSample))
	core.Set("subscribe", js.FuncOf(subscribe))

	// --- Queries (frontend ← core) ---
	core.Set("items", js.FuncOf(items))
	core.Set("render", js.FuncOf(render))
	core.Set("toDocument", js.FuncOf(toDocument))
	core.Set("renderPNG", js.FuncOf(renderPNG))

	// Register on global scope
	js.Global().Set("lucentCore", core)

	// Signal that WASM is ready
	js.Global().Set("lucentWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func errorValue(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func toJSON(v any) js.Value {
	data, err := json.Marshal(v)
	if err != nil {
		return errorValue(err.Error())
	}
	return js.ValueOf(string(data))
}

// apply takes an operation as a JSON string and returns the result JSON.
func apply(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing operation JSON")
	}
	var op session.Operation
	if err := json.Unmarshal([]byte(args[0].String()), &op); err != nil {
		return errorValue("invalid operation: " + err.Error())
	}
	return toJSON(sess.Apply(op))
}

func loadSample(this js.Value, args []js.Value) interface{} {
	if err := sess.LoadSample(); err != nil {
		return errorValue(err.Error())
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// subscribe registers a callback receiving each change event as JSON. It
// returns a function that unregisters it.
func subscribe(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorValue("missing callback")
	}
	cb := args[0]
	unsub := sess.Subscribe(func(e canvas.Event) {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		cb.Invoke(string(data))
	})
	var release js.Func
	release = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		unsub()
		release.Release()
		return nil
	})
	return release
}

func items(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.Snapshot())
}

func render(this js.Value, args []js.Value) interface{} {
	return toJSON(sess.Scene())
}

// toDocument maps a viewport point to document coordinates.
func toDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.Null()
	}
	x, y := args[0].Float(), args[1].Float()
	return toJSON(sess.Apply(session.Operation{Type: session.OpViewToDocument, X: &x, Y: &y}))
}

// renderPNG returns the composited scene as a Uint8Array of PNG bytes.
func renderPNG(this js.Value, args []js.Value) interface{} {
	scale := 1.0
	if len(args) > 0 && args[0].Type() == js.TypeNumber {
		scale = args[0].Float()
	}
	var buf bytes.Buffer
	if err := sess.WritePNG(&buf, scale); err != nil {
		return errorValue(err.Error())
	}
	out := js.Global().Get("Uint8Array").New(buf.Len())
	js.CopyBytesToJS(out, buf.Bytes())
	return out
}
