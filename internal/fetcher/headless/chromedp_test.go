package headless

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNegativeTimeout(t *testing.T) {
	t.Parallel()

	_, err := New(Config{NavigationTimeout: -time.Second})
	require.Error(t, err)
}

func TestAllocatorOptionsGrowWithConfig(t *testing.T) {
	t.Parallel()

	base := len(allocatorOptions(Config{}))
	full := len(allocatorOptions(Config{UserAgent: "ua", ExecPath: "/opt/chrome", NoSandbox: true}))
	assert.Equal(t, base+3, full)
}

func TestSessionNavTimeout(t *testing.T) {
	t.Parallel()

	s := &Session{}
	assert.Equal(t, defaultNavTimeout, s.navTimeout(0))
	assert.Equal(t, 10*time.Second, s.navTimeout(10*time.Second))

	s.cfg.NavigationTimeout = 45 * time.Second
	assert.Equal(t, 45*time.Second, s.navTimeout(0))
	assert.Equal(t, 8*time.Second, s.navTimeout(8*time.Second))
}

func TestOpenFailsWithoutBrowserBinary(t *testing.T) {
	t.Parallel()

	b, err := New(Config{ExecPath: "/nonexistent/chrome-for-tests"})
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = b.Open(ctx)
	require.Error(t, err)
}

func TestOpenHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	b, err := New(Config{})
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Open(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
