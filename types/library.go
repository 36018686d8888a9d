package types

// Recording represents a finished program file discovered in the audio
// directory.
type Recording struct {
	Filename string             `json:"filename"`
	Path     string             `json:"path"`
	Size     int64              `json:"size"`
	Format   string             `json:"format"` // "m4a", "mp3"
	Metadata *RecordingMetadata `json:"metadata,omitempty"`
}

// RecordingMetadata represents the tags embedded in a recording.
type RecordingMetadata struct {
	Title   string `json:"title,omitempty"`
	Station string `json:"station,omitempty"`
	Program string `json:"program,omitempty"`
}
