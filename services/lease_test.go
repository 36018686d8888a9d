package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimedLeaseExpires(t *testing.T) {
	var expired int32
	leaser := TimedLeaser{TTL: 20 * time.Millisecond}

	lease := leaser.Acquire("test", func() { atomic.AddInt32(&expired, 1) })
	defer lease.Release()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&expired) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTimedLeaseReleaseStopsExpiry(t *testing.T) {
	var expired int32
	leaser := TimedLeaser{TTL: 50 * time.Millisecond}

	lease := leaser.Acquire("test", func() { atomic.AddInt32(&expired, 1) })
	lease.Release()
	lease.Release() // idempotent

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&expired))
}

func TestNoopLease(t *testing.T) {
	lease := NoopLeaser{}.Acquire("test", func() { t.Fatal("noop lease must never expire") })
	lease.Release()
}
