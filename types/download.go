package types

// DownloadRecord represents a completed recording in the playlist library.
// Created by the scheduler when a job reaches DOWNLOADED; removed when the
// user deletes the recording.
type DownloadRecord struct {
	ID          string `json:"id"`
	StationID   string `json:"stationId"`
	StationName string `json:"stationName,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Title       string `json:"title"`
	Performer   string `json:"performer,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	DurationSec int64  `json:"durationSec"`
	PlaybackSec int64  `json:"playbackSec"`
	Played      bool   `json:"played"`
}
