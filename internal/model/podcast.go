package model

import "time"

// PodcastRequest is one user submission. URL is trimmed before use.
type PodcastRequest struct {
	URL string `json:"url" validate:"max=2048"`
}

// ExtractedContent is the plain text of a scraped page. It lives only for
// the duration of a single run.
type ExtractedContent struct {
	URL     string
	Title   string
	RawText string
}

// PodcastScript is the spoken-word script handed to the synthesizer.
// Length counts runes, not bytes.
type PodcastScript struct {
	Text      string `json:"text"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated,omitempty"`
}

// SynthesizedAudio is one audio rendering in its transport encoding.
type SynthesizedAudio struct {
	Base64Audio string
	Encoding    string // e.g. "mp3_44100_128"
}

// PodcastArtifact is the persisted audio file of a successful run.
type PodcastArtifact struct {
	FilePath   string `json:"filePath"`
	FileName   string `json:"fileName"`
	AudioBytes []byte `json:"-"`
	Size       int64  `json:"size"`
	MirrorURL  string `json:"mirrorUrl,omitempty"`
}

// PodcastResult is what a successful pipeline run returns.
type PodcastResult struct {
	SourceURL string          `json:"sourceUrl"`
	Title     string          `json:"title,omitempty"`
	Script    PodcastScript   `json:"script"`
	Artifact  PodcastArtifact `json:"artifact"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PodcastResponse is the HTTP view of a PodcastResult.
type PodcastResponse struct {
	PodcastResult
	AudioURL    string `json:"audioUrl"`
	DownloadURL string `json:"downloadUrl"`
	MimeType    string `json:"mimeType"`
}

// Episode is a catalog entry for a generated podcast.
type Episode struct {
	ID           int64     `json:"id"`
	SourceURL    string    `json:"sourceUrl"`
	Title        string    `json:"title"`
	FileName     string    `json:"fileName"`
	ScriptLength int       `json:"scriptLength"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Artifact presentation constants.
const (
	AudioMimeType       = "audio/wav"
	AudioExtension      = "wav"
	DownloadDisplayName = "generated_podcast.wav"
)
