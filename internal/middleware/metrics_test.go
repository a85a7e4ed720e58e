package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_PassesThroughResponse(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		body       string
	}{
		{"get_ok", http.MethodGet, "/api/v1/villages", http.StatusOK, "village list"},
		{"post_created", http.MethodPost, "/api/v1/messages", http.StatusCreated, "message created"},
		{"delete_no_content", http.MethodDelete, "/api/v1/villages/123", http.StatusNoContent, ""},
		{"not_found", http.MethodGet, "/api/v1/participants/missing", http.StatusNotFound, "not found"},
		{"server_error", http.MethodGet, "/api/v1/messages", http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			})

			handler := Metrics()(next)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.statusCode, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestMetrics_DefaultStatusCodeIsOK(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("response"))
	})

	handler := Metrics()(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/villages", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics_DoesNotSwallowPanics(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler panic")
	})

	handler := Metrics()(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
	w := httptest.NewRecorder()

	assert.Panics(t, func() {
		handler.ServeHTTP(w, req)
	})
}

func TestResponseWriter_RecordsWrittenStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rw.statusCode)
}

// WebSocket upgrades hijack the connection, so the wrapped writer must
// keep exposing http.Hijacker when the underlying writer supports it.
func TestResponseWriter_HijackSupport(t *testing.T) {
	t.Run("hijack_through_real_server", func(t *testing.T) {
		handler := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hijacker, ok := w.(http.Hijacker)
			require.True(t, ok, "wrapped writer should implement http.Hijacker")

			conn, _, err := hijacker.Hijack()
			require.NoError(t, err)
			conn.Close()
		}))

		server := httptest.NewServer(handler)
		defer server.Close()

		resp, err := http.Get(server.URL)
		if err == nil {
			resp.Body.Close()
		}
	})

	t.Run("hijack_unsupported_writer", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: plainWriter{}, statusCode: http.StatusOK}

		conn, buf, err := rw.Hijack()

		require.Error(t, err)
		assert.Nil(t, conn)
		assert.Nil(t, buf)
		assert.Contains(t, err.Error(), "http.Hijacker")
	})
}

// plainWriter deliberately does not implement http.Hijacker.
type plainWriter struct{}

func (plainWriter) Header() http.Header { return make(http.Header) }

func (plainWriter) Write(b []byte) (int, error) { return len(b), nil }

func (plainWriter) WriteHeader(int) {}

func TestMetrics_MethodVariations(t *testing.T) {
	methods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}

	for _, method := range methods {
		t.Run(fmt.Sprintf("method_%s", method), func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, method, r.Method)
				w.WriteHeader(http.StatusOK)
			})

			handler := Metrics()(next)

			req := httptest.NewRequest(method, "/api/v1/villages", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}
