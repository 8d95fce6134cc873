package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAllowAllWhenNotRespecting(t *testing.T) {
	t.Parallel()

	policy := New(false, "firm-agent", zap.NewNop())
	assert.True(t, policy.Allowed(context.Background(), "https://example.com/anything"))
}

func TestEnforcerHonorsDisallowAndCaches(t *testing.T) {
	t.Parallel()

	var robotsHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsHits.Add(1)
			fmt.Fprintln(w, "User-agent: *\nDisallow: /private")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	policy := New(true, "firm-agent", zap.NewNop())
	ctx := context.Background()

	assert.True(t, policy.Allowed(ctx, srv.URL+"/careers"))
	assert.False(t, policy.Allowed(ctx, srv.URL+"/private/partners"))
	assert.True(t, policy.Allowed(ctx, srv.URL))
	assert.Equal(t, int32(1), robotsHits.Load())
}

func TestEnforcerFailsOpenOnFetchError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	policy := New(true, "firm-agent", nil)
	assert.True(t, policy.Allowed(context.Background(), addr+"/careers"))
}

func TestEnforcerRejectsUnparsableURL(t *testing.T) {
	t.Parallel()

	policy := New(true, "firm-agent", nil)
	assert.False(t, policy.Allowed(context.Background(), "http://%zz"))
}
