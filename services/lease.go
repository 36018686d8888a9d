package services

import (
	"log"
	"sync"
	"time"
)

// Lease is a held execution grant. Release is idempotent.
type Lease interface {
	Release()
}

// Leaser grants a finite execution window for a batch while the host would
// otherwise suspend the process. Expiry fires onExpire once and is treated
// by the scheduler exactly like an explicit cancel.
type Leaser interface {
	Acquire(name string, onExpire func()) Lease
}

// NoopLeaser grants leases that never expire, for hosts without a
// background execution concept.
type NoopLeaser struct{}

func (NoopLeaser) Acquire(name string, onExpire func()) Lease {
	return noopLease{}
}

type noopLease struct{}

func (noopLease) Release() {}

// TimedLeaser grants leases that expire after a fixed duration, mirroring
// a host-granted background window.
type TimedLeaser struct {
	TTL time.Duration
}

func (l TimedLeaser) Acquire(name string, onExpire func()) Lease {
	timer := time.AfterFunc(l.TTL, func() {
		log.Printf("Execution lease %q expired", name)
		if onExpire != nil {
			onExpire()
		}
	})
	return &timedLease{timer: timer}
}

type timedLease struct {
	timer *time.Timer
	once  sync.Once
}

func (l *timedLease) Release() {
	l.once.Do(func() {
		l.timer.Stop()
	})
}
