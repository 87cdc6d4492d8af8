package domain

import "time"

// ImageAsset is a user-selected raw image before normalization.
type ImageAsset struct {
	Data     []byte
	MimeType string
	Source   string
}

// NormalizedImage is the downsampled, re-encoded form of an ImageAsset.
type NormalizedImage struct {
	Data    []byte
	Width   int
	Height  int
	Quality float64
}

// TransportPayload is the text-safe encoding of a NormalizedImage's bytes.
type TransportPayload string

// CritiqueResult is opaque display text returned by the analysis service.
type CritiqueResult string

type HealthState string

const (
	Healthy    HealthState = "healthy"
	Unhealthy  HealthState = "unhealthy"
	HealthFail HealthState = "error"
)

type HealthStatus struct {
	State     HealthState
	Message   string
	CheckedAt time.Time
}

type Message struct {
	ID       int
	ChatID   int64
	Username string
	ImageRef string
	Text     string
}

type Action string

const (
	Typing    Action = "typing"
	Analyzing Action = "analyzing"
)
