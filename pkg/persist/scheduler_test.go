package persist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnslogd/dnslogd/pkg/config"
	"github.com/dnslogd/dnslogd/pkg/model"
)

func TestRunFlushesOnInterval(t *testing.T) {
	svc, db, l := newTestEnv(t, func(c *config.Config) {
		c.FlushInterval = 1
	})
	now := time.Now().Unix()

	l.Push(now-30, model.TypeA, model.StatusCache, "example.com", "10.0.0.1", "", model.PrivacyShowAll, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	// Wait for at least one interval boundary to pass.
	require.Eventually(t, func() bool {
		return countStored(db) == 1
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestRunServicesPruneRequest(t *testing.T) {
	svc, db, _ := newTestEnv(t, func(c *config.Config) {
		c.FlushInterval = 1
		c.RetentionDays = 1
	})
	now := time.Now().Unix()
	insertRaw(t, db, now-2*86400, int(model.TypeA), int(model.StatusCache), "old.example.com", "10.0.0.1", nil)

	svc.RequestPrune()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	require.Eventually(t, func() bool {
		return countStored(db) == 0
	}, 5*time.Second, 100*time.Millisecond)

	assert.True(t, db.Enabled())
}
