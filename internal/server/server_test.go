package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emdrive/emdrive/internal/config"
	"github.com/emdrive/emdrive/internal/executor"
)

// newTestServer wires a server to a live executor over a scratch data
// directory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDirectory = t.TempDir()

	exec := executor.New(&cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go exec.Run(ctx)

	srv := New(&cfg, exec.Requests())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, statement string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/", "text/plain", strings.NewReader(statement))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := post(t, ts,
		"CREATE TABLE messages (id UINT64 PRIMARY KEY, content STRING, read BOOL)")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, "[]", body)

	resp, _ = post(t, ts,
		"INSERT INTO messages (id, content, read) VALUES (1, 'hello', 0), (2, 'world', 1)")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = post(t, ts, "SELECT * FROM messages")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
        {"id": 1, "content": "hello", "read": false},
        {"id": 2, "content": "world", "read": true}
    ]`, body)

	// Column order in each object follows the selection order.
	resp, body = post(t, ts, "SELECT content, id FROM messages WHERE id = 1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Index(body, "content") < strings.Index(body, "id"))
	assert.JSONEq(t, `[{"content": "hello", "id": 1}]`, body)
}

func TestPostSyntaxError(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "CREATE nonsense")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "syntax", payload["type"])
	assert.Contains(t, payload["message"], "Expected keyword `TABLE`")
}

func TestPostValidationError(t *testing.T) {
	ts := newTestServer(t)
	resp, body := post(t, ts, "CREATE TABLE t (a UINT8, b UINT8)")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, "validation", payload["type"])
	assert.Contains(t, payload["message"], "PRIMARY KEY")
}

func TestGetIsReadOnly(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := post(t, ts, "CREATE TABLE t (id UINT64 PRIMARY KEY)")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = post(t, ts, "INSERT INTO t (id) VALUES (42)")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get, err := http.Get(ts.URL + "/?query=" + url.QueryEscape("SELECT * FROM t"))
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)
	var rows []map[string]any
	require.NoError(t, json.NewDecoder(get.Body).Decode(&rows))
	require.Len(t, rows, 1)
	assert.Equal(t, float64(42), rows[0]["id"])

	// Writes over GET are rejected.
	get, err = http.Get(ts.URL + "/?query=" + url.QueryEscape("INSERT INTO t (id) VALUES (1)"))
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusBadRequest, get.StatusCode)

	// GET without a query parameter is a bad request.
	get, err = http.Get(ts.URL + "/")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, http.StatusBadRequest, get.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)
	request, err := http.NewRequest(http.MethodDelete, ts.URL+"/", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/elsewhere")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGRPCQueryHandler(t *testing.T) {
	cfg := config.Default()
	cfg.DataDirectory = t.TempDir()
	exec := executor.New(&cfg)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go exec.Run(ctx)
	srv := New(&cfg, exec.Requests())

	response, err := srv.Query(context.Background(),
		&QueryRequest{Query: "CREATE TABLE t (id UINT64 PRIMARY KEY, name STRING)"})
	require.NoError(t, err)
	assert.Nil(t, response.Error)

	response, err = srv.Query(context.Background(),
		&QueryRequest{Query: "INSERT INTO t (id, name) VALUES (7, 'seven')"})
	require.NoError(t, err)
	assert.Nil(t, response.Error)

	response, err = srv.Query(context.Background(), &QueryRequest{Query: "SELECT * FROM t"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, response.Columns)
	require.Len(t, response.Rows, 1)
	assert.JSONEq(t, `{"id": 7, "name": "seven"}`, string(response.Rows[0]))

	response, err = srv.Query(context.Background(), &QueryRequest{Query: "SELECT * FROM missing"})
	require.NoError(t, err)
	assert.Contains(t, string(response.Error), "validation")
}
