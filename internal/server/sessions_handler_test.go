package server_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/server"
	"github.com/allyourbase/dialplan/internal/testutil"
	"github.com/google/uuid"
)

type sessionBody struct {
	ID       string `json:"id"`
	Region   string `json:"region"`
	Output   string `json:"output"`
	Position int    `json:"position"`
}

func doJSON(t *testing.T, srv *server.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		testutil.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv *server.Server, region string) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{"region": region})
	testutil.StatusCode(t, http.StatusCreated, w.Code)
	body := decode[sessionBody](t, w)
	_, err := uuid.Parse(body.ID)
	testutil.NoError(t, err)
	return body.ID
}

func typeDigits(t *testing.T, srv *server.Server, id, digits string, remember bool) sessionBody {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/input",
		map[string]any{"digits": digits, "remember": remember})
	testutil.StatusCode(t, http.StatusOK, w.Code)
	return decode[sessionBody](t, w)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv, "us")

	got := typeDigits(t, srv, id, "650", false)
	testutil.Equal(t, "650", got.Output)
	testutil.Equal(t, "US", got.Region)

	got = typeDigits(t, srv, id, "2", true)
	testutil.Equal(t, "650 2", got.Output)
	testutil.Equal(t, 5, got.Position)

	got = typeDigits(t, srv, id, "530000", false)
	testutil.Equal(t, "650 253 0000", got.Output)
	testutil.Equal(t, 5, got.Position)

	w := get(t, srv, "/api/v1/sessions/"+id)
	testutil.StatusCode(t, http.StatusOK, w.Code)
	testutil.Equal(t, "650 253 0000", decode[sessionBody](t, w).Output)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/clear", nil)
	testutil.StatusCode(t, http.StatusOK, w.Code)
	got = typeDigits(t, srv, id, "+41446681800", false)
	testutil.Equal(t, "+41 44 668 18 00", got.Output)

	w = doJSON(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	testutil.Equal(t, http.StatusNoContent, w.Code)

	w = get(t, srv, "/api/v1/sessions/"+id)
	testutil.Equal(t, http.StatusNotFound, w.Code)
	w = doJSON(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	testutil.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionDefaultRegion(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Engine.DefaultRegion = "DE" })

	w := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", nil)
	testutil.StatusCode(t, http.StatusCreated, w.Code)
	testutil.Equal(t, "DE", decode[sessionBody](t, w).Region)

	srv = newTestServer(t, nil)
	w = doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{})
	testutil.StatusCode(t, http.StatusCreated, w.Code)
	testutil.Equal(t, "ZZ", decode[sessionBody](t, w).Region)
}

func TestSessionNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(t, srv, "/api/v1/sessions/not-a-uuid")
	testutil.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+uuid.NewString()+"/input", map[string]string{"digits": "1"})
	testutil.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionInputValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv, "US")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/input", map[string]string{"digits": ""})
	testutil.Equal(t, http.StatusBadRequest, w.Code)

	long := make([]byte, 65)
	for i := range long {
		long[i] = '1'
	}
	w = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/input", map[string]string{"digits": string(long)})
	testutil.Equal(t, http.StatusBadRequest, w.Code)
	testutil.Contains(t, w.Body.String(), "too_long")

	w = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+id+"/input", map[string]string{"keys": "1"})
	testutil.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionCapacity(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.MaxSessions = 2 })
	createSession(t, srv, "US")
	createSession(t, srv, "GB")

	w := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]string{"region": "CH"})
	testutil.Equal(t, http.StatusServiceUnavailable, w.Code)
	testutil.Contains(t, w.Body.String(), "too many active sessions")
}

func TestSessionEventStream(t *testing.T) {
	srv := newTestServer(t, nil)
	id := createSession(t, srv, "US")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/sessions/" + id + "/events")
	testutil.NoError(t, err)
	defer resp.Body.Close()
	testutil.StatusCode(t, http.StatusOK, resp.StatusCode)
	testutil.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func(prefix string) string {
		t.Helper()
		for lines.Scan() {
			if line := lines.Text(); strings.HasPrefix(line, prefix) {
				return strings.TrimPrefix(line, prefix)
			}
		}
		t.Fatalf("stream ended before %q", prefix)
		return ""
	}
	testutil.Equal(t, "connected", next("event: "))
	next("data: ")

	// The subscription is registered before the connected frame is
	// flushed, so input typed now is seen by the stream.
	typeDigits(t, srv, id, "650", false)
	testutil.Equal(t, "input", next("event: "))
	var ev struct {
		Action string `json:"action"`
		Output string `json:"output"`
	}
	testutil.NoError(t, json.Unmarshal([]byte(next("data: ")), &ev))
	testutil.Equal(t, "650", ev.Output)

	w := doJSON(t, srv, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	testutil.Equal(t, http.StatusNoContent, w.Code)
	testutil.Equal(t, "delete", next("event: "))
	next("data: ")
	// The stream closes once the session is gone.
	for lines.Scan() {
	}
	testutil.NoError(t, lines.Err())
}

func TestSessionEventStreamUnknownSession(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/api/v1/sessions/"+uuid.NewString()+"/events")
	testutil.Equal(t, http.StatusNotFound, w.Code)
}
