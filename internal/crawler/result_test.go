package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultVariants(t *testing.T) {
	t.Parallel()

	ok := Ok(FirmRecord{FirmName: "Acme"})
	v, present := ok.Value()
	assert.True(t, present)
	assert.Equal(t, "Acme", v.FirmName)
	assert.Equal(t, ResultOK, ok.Kind())

	empty := Empty[FirmRecord]()
	_, present = empty.Value()
	assert.False(t, present)
	assert.Equal(t, "empty", empty.Kind().String())

	failed := Failed[FirmRecord]("llm timeout")
	assert.Equal(t, ResultFailed, failed.Kind())
	assert.Equal(t, "llm timeout", failed.Reason())

	var zero Result[InsightRecord]
	assert.Equal(t, ResultEmpty, zero.Kind())
}
