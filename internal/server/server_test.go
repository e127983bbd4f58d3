package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/allyourbase/dialplan/internal/config"
	"github.com/allyourbase/dialplan/internal/numberinfo"
	"github.com/allyourbase/dialplan/internal/server"
	"github.com/allyourbase/dialplan/internal/testutil"
	"github.com/allyourbase/dialplan/metadata"
	"github.com/allyourbase/dialplan/phonenumber"
)

var (
	storeOnce sync.Once
	store     *metadata.Store
	storeErr  error
)

func newEngine(t *testing.T) *phonenumber.Engine {
	t.Helper()
	storeOnce.Do(func() {
		store, storeErr = metadata.NewBundledStore(testutil.DiscardLogger())
	})
	testutil.NoError(t, storeErr)
	e, err := phonenumber.New(store, phonenumber.WithLogger(testutil.DiscardLogger()))
	testutil.NoError(t, err)
	return e
}

// newTestServer builds a server over the bundled plans. modify, if set,
// adjusts the default config first.
func newTestServer(t *testing.T, modify func(*config.Config)) *server.Server {
	t.Helper()
	cfg := config.Default()
	if modify != nil {
		modify(cfg)
	}
	srv := server.New(cfg, testutil.DiscardLogger(), newEngine(t))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func get(t *testing.T, srv *server.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	testutil.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func numbersPath(params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return "/api/v1/numbers?" + q.Encode()
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/health")

	testutil.Equal(t, http.StatusOK, w.Code)
	testutil.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode[map[string]string](t, w)
	testutil.Equal(t, "ok", body["status"])
}

func TestNumberInternational(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, numbersPath(map[string]string{"number": "+41 44 668 18 00"}))

	testutil.StatusCode(t, http.StatusOK, w.Code)
	info := decode[numberinfo.Number](t, w)
	testutil.Equal(t, 41, info.CountryCode)
	testutil.Equal(t, "CH", info.Region)
	testutil.True(t, info.Valid)
	testutil.Equal(t, "+41446681800", info.Formats.E164)
	testutil.Equal(t, "044 668 18 00", info.Formats.National)
	testutil.Equal(t, "+41 44 668 18 00", info.Formats.International)
	testutil.Equal(t, "+41 44 668 18 00", info.Input)
	// No calling region: unknown default region and no ?from=.
	testutil.Equal(t, "", info.Formats.OutOfCountry)
}

func TestNumberNationalWithRegion(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, numbersPath(map[string]string{"number": "0121 234 5678", "region": "gb"}))

	testutil.StatusCode(t, http.StatusOK, w.Code)
	info := decode[numberinfo.Number](t, w)
	testutil.Equal(t, "GB", info.Region)
	testutil.Equal(t, "FIXED_LINE", info.Type)
	testutil.Equal(t, "0121 234 5678", info.Formats.National)
	testutil.Equal(t, "FROM_DEFAULT_COUNTRY", info.CountryCodeSource)
	testutil.Equal(t, "0121 234 5678", info.Formats.Original)
}

func TestNumberFromRegion(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, numbersPath(map[string]string{"number": "0121 234 5678", "region": "GB", "from": "US"}))

	testutil.StatusCode(t, http.StatusOK, w.Code)
	info := decode[numberinfo.Number](t, w)
	testutil.Equal(t, "011 44 121 234 5678", info.Formats.OutOfCountry)
}

func TestNumberUsesConfiguredDefaultRegion(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Engine.DefaultRegion = "US" })
	w := get(t, srv, numbersPath(map[string]string{"number": "650 253 0000"}))

	testutil.StatusCode(t, http.StatusOK, w.Code)
	info := decode[numberinfo.Number](t, w)
	testutil.Equal(t, "US", info.Region)
	testutil.Equal(t, "+16502530000", info.Formats.E164)
}

func TestNumberMissingParameter(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/api/v1/numbers")

	testutil.StatusCode(t, http.StatusBadRequest, w.Code)
	body := decode[errorBody](t, w)
	testutil.Equal(t, 400, body.Code)
	testutil.NotNil(t, body.Data["number"])
}

func TestNumberParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		number string
		region string
		kind   string
	}{
		{"unknown calling code", "+999 12345", "", "INVALID_COUNTRY_CODE"},
		{"no region for national number", "650 253 0000", "", "INVALID_COUNTRY_CODE"},
		{"not a number", "hello", "US", "NOT_A_NUMBER"},
		{"too short after idd", "0044------", "GB", "TOO_SHORT_AFTER_IDD"},
		{"too long", "+1 650 253 0000 1234 5678", "", "TOO_LONG"},
	}
	srv := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]string{"number": tt.number}
			if tt.region != "" {
				params["region"] = tt.region
			}
			w := get(t, srv, numbersPath(params))

			testutil.StatusCode(t, http.StatusUnprocessableEntity, w.Code)
			body := decode[errorBody](t, w)
			testutil.Equal[any](t, tt.kind, body.Data["kind"])
			testutil.Contains(t, body.Message, tt.kind)
		})
	}
}

func TestNumberMatch(t *testing.T) {
	srv := newTestServer(t, nil)

	q := url.Values{"a": {"+1 650 253 0000"}, "b": {"650 253 0000"}}
	w := get(t, srv, "/api/v1/numbers/match?"+q.Encode())
	testutil.StatusCode(t, http.StatusOK, w.Code)
	testutil.Equal(t, "NSN_MATCH", decode[map[string]string](t, w)["match"])

	w = get(t, srv, "/api/v1/numbers/match?a=123")
	testutil.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRegions(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/api/v1/regions")

	testutil.StatusCode(t, http.StatusOK, w.Code)
	body := decode[struct {
		Regions      []numberinfo.Region `json:"regions"`
		CallingCodes []int               `json:"calling_codes"`
	}](t, w)
	testutil.SliceLen(t, body.Regions, 12)
	testutil.Equal(t, "AR", body.Regions[0].Region)
	testutil.True(t, len(body.CallingCodes) > 0, "calling codes listed")
}

func TestGetRegion(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(t, srv, "/api/v1/regions/ch")
	testutil.StatusCode(t, http.StatusOK, w.Code)
	r := decode[numberinfo.Region](t, w)
	testutil.Equal(t, "CH", r.Region)
	testutil.Equal(t, 41, r.CountryCode)
	testutil.Equal(t, "0", r.NationalPrefix)

	w = get(t, srv, "/api/v1/regions/XX")
	testutil.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegionExample(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(t, srv, "/api/v1/regions/GB/example?type=mobile")
	testutil.StatusCode(t, http.StatusOK, w.Code)
	ex := decode[numberinfo.Example](t, w)
	testutil.Equal(t, "GB", ex.Region)
	testutil.Equal(t, "MOBILE", ex.Type)
	testutil.Equal(t, uint64(7400123456), ex.Number.NationalNumber)
	testutil.Equal(t, "MOBILE", ex.Number.Type)

	w = get(t, srv, "/api/v1/regions/CH/example")
	testutil.StatusCode(t, http.StatusOK, w.Code)
	testutil.Equal(t, "FIXED_LINE", decode[numberinfo.Example](t, w).Type)
}

func TestRegionExampleErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(t, srv, "/api/v1/regions/GB/example?type=landline")
	testutil.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, srv, "/api/v1/regions/IT/example?type=PAGER")
	testutil.Equal(t, http.StatusNotFound, w.Code)
	testutil.Contains(t, w.Body.String(), "no PAGER example for IT")

	w = get(t, srv, "/api/v1/regions/XX/example")
	testutil.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitApplied(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.RateLimit = 2 })

	for range 2 {
		w := get(t, srv, "/api/v1/regions")
		testutil.Equal(t, http.StatusOK, w.Code)
		testutil.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := get(t, srv, "/api/v1/regions")
	testutil.Equal(t, http.StatusTooManyRequests, w.Code)
	testutil.NotEqual(t, "", w.Header().Get("Retry-After"))

	// Health checks are not rate limited.
	testutil.Equal(t, http.StatusOK, get(t, srv, "/health").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) { c.Server.RateLimit = 0 })
	for range 5 {
		w := get(t, srv, "/api/v1/regions")
		testutil.Equal(t, http.StatusOK, w.Code)
		testutil.Equal(t, "", w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)
	w := get(t, srv, "/api/v1/nothing")
	testutil.Equal(t, http.StatusNotFound, w.Code)
}

func TestServeAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	srv := server.New(cfg, testutil.DiscardLogger(), newEngine(t))

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.StartWithReady(ready) }()
	<-ready

	testutil.NoError(t, srv.Shutdown(context.Background()))
	testutil.NoError(t, <-errCh)
}

func TestSessionRoutesRequireJSON(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("region=US"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	testutil.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
