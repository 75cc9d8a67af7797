package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-quotes-api/internal/config"
	"github.com/tbourn/go-quotes-api/internal/domain"
	"github.com/tbourn/go-quotes-api/internal/http/middleware"
	"github.com/tbourn/go-quotes-api/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T, seed bool) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "quotes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(db) })

	require.NoError(t, repo.AutoMigrate(db))
	if seed {
		_, err := repo.SeedQuotes(context.Background(), db)
		require.NoError(t, err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/",
		MaxBodyBytes:   1 << 20,
		RateRPS:        1000,
		RateBurst:      1000,
		Pagination:     config.PaginationConfig{DefaultLimit: 10, MinLimit: 2, MaxLimit: 100},
		IdempotencyTTL: time.Hour,
		CORS:           config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newServer(t *testing.T, db *gorm.DB, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r
}

func send(r http.Handler, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newServer(t, newTestDB(t, false), testConfig())

	// /health works
	w := send(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, w.Body.String())
	// CORS (AllowAllOrigins) → header "*"
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// /metrics is wired
	w = send(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quotes_api_http_requests_total")

	// NoRoute → 400 unknown_api
	w = send(r, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_api", jsonBody(t, w)["code"])

	// NoMethod → 400 unknown_api (PUT /quotes)
	w = send(r, http.MethodPut, "/quotes", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_api", jsonBody(t, w)["code"])
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newServer(t, newTestDB(t, false), cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := send(r, http.MethodGet, "/health", "", "Origin", "http://example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestReadyz(t *testing.T) {
	db := newTestDB(t, false)
	r := newServer(t, db, testConfig())

	w := send(r, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, jsonBody(t, w)["success"])

	require.NoError(t, repo.Close(db))
	w = send(r, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", jsonBody(t, w)["code"])
}

func TestQuotes_ListSeededPage(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	w := send(r, http.MethodGet, "/quotes?limit=2&page=4", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := jsonBody(t, w)
	data := body["data"].([]any)
	require.Len(t, data, 2)
	assert.EqualValues(t, 7, data[0].(map[string]any)["id"])
	assert.EqualValues(t, 8, data[1].(map[string]any)["id"])
	assert.Equal(t, map[string]any{
		"totalRecords": float64(10),
		"totalPages":   float64(5),
		"currentPage":  float64(4),
		"nextPage":     float64(5),
		"prevPage":     float64(3),
	}, body["pagination"])

	// Defaults: limit 10, page 1 → all ten, no neighbours.
	w = send(r, http.MethodGet, "/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = jsonBody(t, w)
	assert.Len(t, body["data"], 10)
	pg := body["pagination"].(map[string]any)
	assert.Nil(t, pg["nextPage"])
	assert.Nil(t, pg["prevPage"])

	// The seeded quote without an author serializes as null.
	third := body["data"].([]any)[2].(map[string]any)
	assert.Contains(t, third, "author")
	assert.Nil(t, third["author"])
}

func TestQuotes_ListBounds(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	for _, q := range []string{"limit=1", "limit=101", "limit=1&page=1", "limit=2&page=6", "page=0", "limit=99999999999999999999"} {
		w := send(r, http.MethodGet, "/quotes?"+q, "")
		require.Equalf(t, http.StatusBadRequest, w.Code, "query %s", q)
		assert.Equalf(t, "bad_request", jsonBody(t, w)["code"], "query %s", q)
		assert.Emptyf(t, w.Header().Get("ETag"), "query %s", q)
	}
}

func TestQuotes_ListMalformedQuery(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	cases := []struct {
		query string
		field string
		rule  string
	}{
		{"limit=abc", "query.limit", "pattern"},
		{"limit=%2B4", "query.limit", "pattern"},
		{"page=-1", "query.page", "pattern"},
		{"page=1.5", "query.page", "pattern"},
		{"limit=", "query.limit", "minLength"},
		{"limit=2&limit=3", "query.limit", "type"},
	}
	for _, tc := range cases {
		w := send(r, http.MethodGet, "/quotes?"+tc.query, "")
		require.Equalf(t, http.StatusBadRequest, w.Code, "query %s", tc.query)
		body := jsonBody(t, w)
		assert.Equalf(t, "invalid", body["code"], "query %s", tc.query)
		violations, ok := body["errors"].([]any)
		require.Truef(t, ok, "query %s", tc.query)
		require.NotEmptyf(t, violations, "query %s", tc.query)
		first := violations[0].(map[string]any)
		assert.Equalf(t, tc.field, first["field"], "query %s", tc.query)
		assert.Equalf(t, tc.rule, first["rule"], "query %s", tc.query)
	}
}

func TestQuotes_ListOutOfBoundsIgnoresIfNoneMatch(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	// Same count/max id as the seeded table, so a pre-check would match.
	w := send(r, http.MethodGet, "/quotes?limit=500&page=1", "", "If-None-Match", `W/"quotes:10:10:500:1"`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", jsonBody(t, w)["code"])
	assert.Empty(t, w.Header().Get("ETag"))
}

func TestQuotes_ListEmptyTable(t *testing.T) {
	r := newServer(t, newTestDB(t, false), testConfig())

	w := send(r, http.MethodGet, "/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, jsonBody(t, w)["data"])
}

func TestQuotes_ListConditional(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	w := send(r, http.MethodGet, "/quotes?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	etag := w.Header().Get("ETag")
	assert.Equal(t, `W/"quotes:10:10:5:1"`, etag)
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	w = send(r, http.MethodGet, "/quotes?limit=5", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = send(r, http.MethodDelete, "/quotes/10", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = send(r, http.MethodGet, "/quotes?limit=5", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuotes_CreateThenFetch(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	w := send(r, http.MethodPost, "/quotes", `{"author":"A","text":"T"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := jsonBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Quote added with ID 11", body["message"])
	assert.EqualValues(t, 11, body["data"].(map[string]any)["id"])

	w = send(r, http.MethodGet, "/quotes/11", "")
	require.Equal(t, http.StatusOK, w.Code)
	q := jsonBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "A", q["author"])
	assert.Equal(t, "T", q["text"])
}

func TestQuotes_CreateValidation(t *testing.T) {
	db := newTestDB(t, false)
	r := newServer(t, db, testConfig())

	cases := []struct {
		name   string
		body   string
		ctype  string
		status int
		code   string
	}{
		{"empty text", `{"text":""}`, "application/json", http.StatusBadRequest, "invalid"},
		{"missing text", `{"author":"A"}`, "application/json", http.StatusBadRequest, "required"},
		{"blank text", `{"text":"   "}`, "application/json", http.StatusBadRequest, "invalid"},
		{"text too long", `{"text":"` + strings.Repeat("x", 513) + `"}`, "application/json", http.StatusBadRequest, "invalid"},
		{"author too long", `{"author":"` + strings.Repeat("a", 129) + `","text":"T"}`, "application/json", http.StatusBadRequest, "invalid"},
		{"malformed", `{"text":`, "application/json", http.StatusBadRequest, "parse_error"},
		{"wrong media type", `{"text":"T"}`, "text/plain", http.StatusUnsupportedMediaType, "unsupported_media_type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", tc.ctype)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			assert.Equal(t, tc.code, jsonBody(t, w)["code"])
		})
	}

	n, err := repo.CountQuotes(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, n, "rejected requests must not touch the table")
}

func TestQuotes_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 32
	r := newServer(t, newTestDB(t, false), cfg)

	w := send(r, http.MethodPost, "/quotes", `{"text":"`+strings.Repeat("x", 100)+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request body too large", jsonBody(t, w)["message"])
}

func TestQuotes_GetByIDChecks(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	for _, id := range []string{"0", "-5", "abc", "99999999999999999999"} {
		w := send(r, http.MethodGet, "/quotes/"+id, "")
		require.Equalf(t, http.StatusBadRequest, w.Code, "id %s", id)
	}

	w := send(r, http.MethodGet, "/quotes/999999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", jsonBody(t, w)["code"])
}

func TestQuotes_DeleteTwice(t *testing.T) {
	r := newServer(t, newTestDB(t, true), testConfig())

	w := send(r, http.MethodDelete, "/quotes/3", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = send(r, http.MethodDelete, "/quotes/3", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", jsonBody(t, w)["code"])
}

func TestQuotes_IdempotentCreate(t *testing.T) {
	db := newTestDB(t, false)
	r := newServer(t, db, testConfig())
	key := []string{middleware.HeaderIdempotencyKey, "create-1"}

	w := send(r, http.MethodPost, "/quotes", `{"author":"A","text":"T"}`, key...)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(middleware.HeaderIdempotentReplayed))
	first := jsonBody(t, w)["data"].(map[string]any)["id"]

	// Same key, equivalent payload → replay of the original id.
	w = send(r, http.MethodPost, "/quotes", `{"author":" A ","text":"T"}`, key...)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.HeaderIdempotentReplayed))
	assert.Equal(t, first, jsonBody(t, w)["data"].(map[string]any)["id"])

	// Same key, different payload → duplicate.
	w = send(r, http.MethodPost, "/quotes", `{"text":"other"}`, key...)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "duplicate", jsonBody(t, w)["code"])

	// Invalid key.
	w = send(r, http.MethodPost, "/quotes", `{"text":"T"}`, middleware.HeaderIdempotencyKey, "bad key!")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid", jsonBody(t, w)["code"])

	n, err := repo.CountQuotes(context.Background(), db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestQuotes_ReplayBypassesRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 1
	db := newTestDB(t, false)
	r := newServer(t, db, cfg)
	key := []string{middleware.HeaderIdempotencyKey, "rl-1"}

	w := send(r, http.MethodPost, "/quotes", `{"text":"T"}`, key...)
	require.Equal(t, http.StatusCreated, w.Code)

	// Bucket is empty: a fresh request is limited.
	w = send(r, http.MethodGet, "/quotes", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", jsonBody(t, w)["code"])

	// A replay of a stored key is still served.
	w = send(r, http.MethodPost, "/quotes", `{"text":"T"}`, key...)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(middleware.HeaderIdempotentReplayed))
}

func TestQuotes_APIBasePath(t *testing.T) {
	cfg := testConfig()
	cfg.APIBasePath = "/api/v1"
	r := newServer(t, newTestDB(t, true), cfg)

	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/api/v1/quotes/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/quotes/1", "").Code)
	// Probes stay at the root.
	assert.Equal(t, http.StatusOK, send(r, http.MethodGet, "/health", "").Code)
}

func TestQuotes_Swagger(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newServer(t, newTestDB(t, false), cfg)

	w := send(r, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/quotes/{id}"`)

	cfg.SwaggerEnabled = false
	r = newServer(t, newTestDB(t, false), cfg)
	assert.Equal(t, http.StatusBadRequest, send(r, http.MethodGet, "/swagger/doc.json", "").Code)
}

func TestQuotes_StorageFaultHidesDriverText(t *testing.T) {
	db := newTestDB(t, true)
	r := newServer(t, db, testConfig())
	require.NoError(t, db.Migrator().DropTable(&domain.Quote{}))

	w := send(r, http.MethodGet, "/quotes/1", "")
	require.GreaterOrEqual(t, w.Code, 500)
	assert.NotContains(t, w.Body.String(), "no such table")
	assert.Equal(t, false, jsonBody(t, w)["success"])
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func Test_quoteRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t, false)
	shim := quoteRepoShim{}
	ctx := context.Background()

	author := "A"
	q, err := shim.CreateQuote(ctx, db, &author, "T")
	require.NoError(t, err)
	require.NotZero(t, q.ID)

	n, err := shim.CountQuotes(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	page, err := shim.ListQuotesPage(ctx, db, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)

	got, err := shim.GetQuote(ctx, db, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Text)

	count, maxID, err := shim.QuotesStats(ctx, db)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, q.ID, maxID)

	created, replayed, err := shim.CreateQuoteIdempotent(ctx, db, repo.IdempotentCreate{
		Key: "k", Fingerprint: "f", Text: "U", Status: http.StatusCreated, Now: time.Now().UTC(), TTL: time.Hour,
	})
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, q.ID, created.ID)

	ok, err := shim.DeleteQuote(ctx, db, q.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, shim.Ping(ctx, db))
}
