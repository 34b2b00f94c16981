package qlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnslogd/dnslogd/pkg/model"
)

func TestInterningIsStable(t *testing.T) {
	l := New()
	l.Lock()
	defer l.Unlock()

	d1 := l.InternDomain("example.com")
	d2 := l.InternDomain("example.org")
	assert.NotEqual(t, d1, d2)
	assert.Equal(t, d1, l.InternDomain("example.com"))
	assert.Equal(t, "example.com", l.DomainName(d1))

	c1 := l.InternClient("10.0.0.1")
	assert.Equal(t, c1, l.InternClient("10.0.0.1"))
	assert.Equal(t, "10.0.0.1", l.ClientAddr(c1))
}

func TestInternForwardWithoutCreate(t *testing.T) {
	l := New()
	l.Lock()
	defer l.Unlock()

	assert.Equal(t, -1, l.InternForward("8.8.8.8", false))
	id := l.InternForward("8.8.8.8", true)
	assert.GreaterOrEqual(t, id, 0)
	assert.Equal(t, id, l.InternForward("8.8.8.8", false))
	assert.Equal(t, "8.8.8.8", l.ForwardDest(id))
}

func TestResolveUnknownIDs(t *testing.T) {
	l := New()
	l.Lock()
	defer l.Unlock()

	assert.Empty(t, l.DomainName(5))
	assert.Empty(t, l.ClientAddr(-1))
	assert.Empty(t, l.ForwardDest(0))
}

func TestPushAppendsAndTallies(t *testing.T) {
	l := New()
	now := time.Now().Unix()

	l.Push(now, model.TypeA, model.StatusForwarded, "example.com", "10.0.0.1", "8.8.8.8", model.PrivacyShowAll, true)
	l.Push(now, model.TypeAAAA, model.StatusGravity, "ads.example.com", "10.0.0.1", "", model.PrivacyShowAll, true)
	l.Push(now, model.TypeA, model.StatusCache, "example.com", "10.0.0.2", "", model.PrivacyShowAll, true)
	l.Push(now, model.TypeA, model.StatusUnknown, "odd.example.com", "10.0.0.2", "", model.PrivacyShowAll, false)

	l.Lock()
	defer l.Unlock()

	require.Equal(t, 4, l.Len())

	c := l.Counters()
	assert.Equal(t, 4, c.Queries)
	assert.Equal(t, 1, c.Blocked)
	assert.Equal(t, 1, c.Forwarded)
	assert.Equal(t, 1, c.Cached)
	assert.Equal(t, 1, c.Unknown)
	assert.Equal(t, 3, c.QueryType[model.TypeA-1])
	assert.Equal(t, 1, c.QueryType[model.TypeAAAA-1])

	b := l.OverTime(now)
	require.NotNil(t, b)
	assert.Equal(t, 4, b.Total)
	assert.Equal(t, 1, b.Blocked)
	assert.Equal(t, 1, b.Forwarded)
	assert.Equal(t, 1, b.Cached)

	// Forwarded record carries its upstream reference.
	rec := l.Record(0)
	require.GreaterOrEqual(t, rec.ForwardID, 0)
	assert.Equal(t, "8.8.8.8", l.ForwardDest(rec.ForwardID))
	// Non-forwarded records do not.
	assert.Equal(t, -1, l.Record(1).ForwardID)
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, int64(1200), BucketFor(1200))
	assert.Equal(t, int64(1200), BucketFor(1799))
	assert.Equal(t, int64(1800), BucketFor(1800))
}
