package types

// JobOutcome represents the terminal result of a download job within a batch.
type JobOutcome int

const (
	OutcomeUnset     JobOutcome = iota // job has not finished yet
	OutcomeSuccess                     // worker completed and the file was written
	OutcomeFailure                     // worker exited unsuccessfully
	OutcomeCancelled                   // cancelled before or during the run
)

// Status maps a terminal outcome onto the booking status persisted for it.
func (o JobOutcome) Status() BookingStatus {
	switch o {
	case OutcomeSuccess:
		return StatusDownloaded
	case OutcomeFailure:
		return StatusError
	case OutcomeCancelled:
		return StatusCancelled
	default:
		return StatusDownloading
	}
}

// DownloadJob is an in-memory, per-batch descriptor built from one reserved
// booking record. The auth token is not part of the job; the scheduler
// supplies it at dispatch time.
type DownloadJob struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	StationID   string     `json:"stationId"`
	StreamURL   string     `json:"streamUrl"`
	OutputPath  string     `json:"outputPath"`
	CoverPath   string     `json:"coverPath,omitempty"`
	Artist      string     `json:"artist,omitempty"`
	ExpectedSec int64      `json:"expectedSec"`
	Outcome     JobOutcome `json:"outcome"`
}

// JobResult is the per-job entry of a batch completion report. Results are
// correlated by job id; their order carries no meaning.
type JobResult struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status BookingStatus `json:"status"`
}
