package types

import "time"

// TimestampLayout is the fixed-width, lexically sortable layout used for
// program start/end timestamps throughout the API and the stream protocol.
const TimestampLayout = "20060102150405"

// BookingRecord represents a persisted reservation for a program download.
type BookingRecord struct {
	ID            string        `json:"id"`
	StationID     string        `json:"stationId"`
	Start         string        `json:"start"` // TimestampLayout
	End           string        `json:"end"`   // TimestampLayout
	Title         string        `json:"title"`
	Performer     string        `json:"performer,omitempty"`
	BroadcastDate string        `json:"broadcastDate,omitempty"`
	BroadcastTime string        `json:"broadcastTime,omitempty"`
	PageURL       string        `json:"pageUrl,omitempty"`
	ImageURL      string        `json:"imageUrl"`
	SeqNo         int           `json:"seqNo"`
	Status        BookingStatus `json:"status"`
}

// Duration returns the program length derived from the start and end
// timestamps, or zero when either timestamp does not parse.
func (b *BookingRecord) Duration() time.Duration {
	start, err := time.Parse(TimestampLayout, b.Start)
	if err != nil {
		return 0
	}
	end, err := time.Parse(TimestampLayout, b.End)
	if err != nil {
		return 0
	}
	if end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// Complete reports whether every field required to build a download job is
// populated. Records failing this check are skipped by the job builder.
func (b *BookingRecord) Complete() bool {
	return b.StationID != "" && b.Start != "" && b.End != "" &&
		b.Title != "" && b.ImageURL != ""
}
