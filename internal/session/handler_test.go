//go:build !js

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, sample bool) (*Registry, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reg := NewRegistry(quiet())
	hub := NewHub(quiet())
	go hub.Run(ctx)

	r := mux.NewRouter()
	NewHandler(reg, hub, nil, sample, quiet()).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return reg, srv
}

func createSession(t *testing.T, srv *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/sessions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out createResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func TestHandlerCreateAndItems(t *testing.T) {
	reg, srv := newTestServer(t, false)

	empty := createSession(t, srv, "")
	sample := createSession(t, srv, `{"sample":true}`)
	assert.Equal(t, 2, reg.Len())

	for id, want := range map[string]int{empty: 0, sample: 5} {
		resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/items")
		require.NoError(t, err)
		var sp SyncPayload
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&sp))
		resp.Body.Close()
		assert.Len(t, sp.Items, want)
	}

	resp, err := http.Get(srv.URL + "/api/sessions/sess_missing/items")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerOps(t *testing.T) {
	_, srv := newTestServer(t, false)
	id := createSession(t, srv, "{}")
	url := srv.URL + "/api/sessions/" + id + "/ops"

	batch := `[
		{"id":"a","type":"item.add","item":{"type":"rectangle","name":"R","geometry":{"x":0,"y":0,"width":10,"height":10}}},
		{"id":"b","type":"item.update","index":0,"props":{"width":40}},
		{"id":"c","type":"item.remove","index":7}
	]`
	resp, err := http.Post(url, "application/json", strings.NewReader(batch))
	require.NoError(t, err)
	var results []Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&results))
	resp.Body.Close()
	require.Len(t, results, 3)
	assert.True(t, results[0].OK)
	assert.True(t, results[1].OK)
	assert.False(t, results[2].OK)
	assert.Equal(t, "indexOutOfRange", results[2].Code)

	resp, err = http.Post(url, "application/json", bytes.NewReader([]byte(`{"type":"history.undo"}`)))
	require.NoError(t, err)
	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, res.Changed)

	resp, err = http.Post(url, "application/json", strings.NewReader(`{"type":"nope"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Post(url, "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerSceneAndDelete(t *testing.T) {
	_, srv := newTestServer(t, true)
	id := createSession(t, srv, "")

	resp, err := http.Get(srv.URL + "/api/sessions/" + id + "/scene")
	require.NoError(t, err)
	var cmds []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cmds))
	resp.Body.Close()
	assert.Len(t, cmds, 4, "the sample layer contributes no node")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerWebSocket(t *testing.T) {
	_, srv := newTestServer(t, false)
	id := createSession(t, srv, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/session/"+id, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	p := &wsPeer{t: t, conn: conn}
	assert.Equal(t, TypeWelcome, p.read().Type)
	assert.Equal(t, TypeDocSync, p.read().Type)
}
