package metrics

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var collectorNamespaceSeq uint64

// Collectors register on the default prometheus registry, so each test
// needs its own namespace.
func nextTestNamespace() string {
	seq := atomic.AddUint64(&collectorNamespaceSeq, 1)
	return fmt.Sprintf("test_%d", seq)
}

func TestNewCollector(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	assert.NotNil(t, c)
	assert.NotNil(t, c.dispatchesTotal)
	assert.NotNil(t, c.dispatchDuration)
	assert.NotNil(t, c.responsesTotal)
	assert.NotNil(t, c.chunksTotal)
	assert.NotNil(t, c.tokensStreamed)
}

func TestCollector_RecordDispatch(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordDispatch("unary", false, 50*time.Millisecond)
	c.RecordDispatch("unary", true, 10*time.Millisecond)
	c.RecordDispatch("stream", true, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatchesTotal.WithLabelValues("unary", "sequential")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatchesTotal.WithLabelValues("unary", "concurrent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.dispatchesTotal.WithLabelValues("stream", "concurrent")))
}

func TestCollector_RecordResponse(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	for i := 0; i < 3; i++ {
		c.RecordResponse(200)
	}
	c.RecordResponse(408)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.responsesTotal.WithLabelValues("200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.responsesTotal.WithLabelValues("408")))
}

func TestCollector_RecordChunk(t *testing.T) {
	c := NewCollector(nextTestNamespace(), zap.NewNop())

	c.RecordChunk(12)
	c.RecordChunk(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.chunksTotal))
	assert.Equal(t, 17.0, testutil.ToFloat64(c.tokensStreamed))
}
