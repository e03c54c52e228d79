package testutil

import (
	"context"
	"testing"
	"time"
)

// TestContext returns a context cancelled automatically at test cleanup,
// bounded at 30 seconds.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
