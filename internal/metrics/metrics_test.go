package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestReasonClass(t *testing.T) {
	assert.Equal(t, "none", ReasonClass(""))
	assert.Equal(t, "no_content", ReasonClass("no_content"))
	assert.Equal(t, "extraction_failed", ReasonClass("extraction_failed"))
	assert.Equal(t, "error", ReasonClass("store firm: connection refused"))
}

func TestObserveTarget(t *testing.T) {
	Init()
	before := testutil.ToFloat64(targetsTotal.WithLabelValues("failed", "no_content"))
	ObserveTarget("failed", "no_content", 2*time.Second)
	after := testutil.ToFloat64(targetsTotal.WithLabelValues("failed", "no_content"))
	assert.InDelta(t, 1, after-before, 1e-9)
}

func TestObserveCandidatesIgnoresZero(t *testing.T) {
	Init()
	before := testutil.ToFloat64(candidatesTotal.WithLabelValues("static"))
	ObserveCandidates("static", 0)
	ObserveCandidates("static", 8)
	after := testutil.ToFloat64(candidatesTotal.WithLabelValues("static"))
	assert.InDelta(t, 8, after-before, 1e-9)
}

func TestSetRemaining(t *testing.T) {
	SetRemaining(12)
	assert.InDelta(t, 12, testutil.ToFloat64(remainingTargets), 1e-9)
}

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/probe", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418"))
	resp, err := http.Get(ts.URL + "/probe")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "418"))
	assert.InDelta(t, 1, after-before, 1e-9)
	assert.Positive(t, testutil.CollectAndCount(httpRequestDurationSeconds))
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	for _, tc := range []string{"http://example.com", "https://www.mishcon.com", "ftp://example.com"} {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		if SanitizeSite(orig) == "" {
			t.Errorf("SanitizeSite(%q) returned an empty string", orig)
		}
	})
}
