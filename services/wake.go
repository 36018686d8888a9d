package services

import "log"

// WakeLock is the process-wide screen-wake/idle-timer override. It is
// engaged at most once and released exactly once per batch, no matter how
// the batch ends.
type WakeLock interface {
	Engage()
	Release()
}

// NoopWakeLock is for hosts without a screen to keep awake.
type NoopWakeLock struct{}

func (NoopWakeLock) Engage()  {}
func (NoopWakeLock) Release() {}

// LoggingWakeLock records the toggle in the log; used by the server where
// the override is a UI concern on the other side of the API.
type LoggingWakeLock struct{}

func (LoggingWakeLock) Engage()  { log.Printf("Screen wake override engaged") }
func (LoggingWakeLock) Release() { log.Printf("Screen wake override released") }
