package services

// TranscodeRequest carries everything the worker needs for one recording.
// The auth token is substituted here by the scheduler at dispatch time.
type TranscodeRequest struct {
	StreamURL  string
	OutputPath string
	AuthToken  string
	CoverPath  string
	Artist     string
	Album      string
}

// TranscodeHandle controls one running worker invocation.
type TranscodeHandle interface {
	// Cancel asks the worker to terminate. Idempotent.
	Cancel()
}

// Transcoder is the external media worker contract. Start returns as soon
// as the worker is running; onProgress reports elapsed media time in
// milliseconds and onComplete fires exactly once when the worker exits.
// Both callbacks arrive on arbitrary goroutines.
type Transcoder interface {
	Start(req TranscodeRequest, onProgress func(elapsedMs int64), onComplete func(success bool)) (TranscodeHandle, error)
}
