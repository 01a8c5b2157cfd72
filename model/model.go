// Package model contains core data types for the project.
package model

import (
	"time"

	"github.com/relvacode/iso8601"
)

// MessageType defines the kind of payload carried over the device/relay channel.
type MessageType string

const (
	MessageSettings MessageType = "settings" // MessageSettings carries a full Settings snapshot.
	MessageRequest  MessageType = "request"  // MessageRequest carries one AlertRequest.
)

// Setting keys as stored in the durable settings store.
const (
	KeyRetentionPeriod = "retentionPeriod"
	KeyThresholdHigh   = "thresholdHigh"
	KeyThresholdLow    = "thresholdLow"
	KeySendHTTP        = "sendHttp"
	KeySendURL         = "sendUrl"
)

// Sample is one inter-beat duration observed at Timestamp.
type Sample struct {
	Timestamp int64   // Unix milliseconds.
	Duration  float64 // Seconds, 60 / bpm.
}

// Settings holds the tunable parameters shared by both processes.
type Settings struct {
	RetentionPeriod int     `json:"retentionPeriod"` // Seconds of samples to keep.
	ThresholdHigh   float64 `json:"thresholdHigh"`   // Score above which detection re-arms.
	ThresholdLow    float64 `json:"thresholdLow"`    // Score below which a detection fires.
	SendHTTP        bool    `json:"sendHttp"`        // Whether detections produce alert requests.
	SendURL         string  `json:"sendUrl"`         // Alert endpoint.
}

// DefaultSettings returns the settings used when nothing else is known.
func DefaultSettings() Settings {
	return Settings{
		RetentionPeriod: 600,
		ThresholdHigh:   1.0,
		ThresholdLow:    0.8,
		SendHTTP:        false,
		SendURL:         "",
	}
}

// RetentionMillis returns the retention window in milliseconds.
func (s Settings) RetentionMillis() int64 {
	return int64(s.RetentionPeriod) * 1000
}

// AlertRequest is the payload of one low-relaxation detection.
type AlertRequest struct {
	Date      string  `json:"date"`
	Relax     float64 `json:"relax"`
	Threshold float64 `json:"threshold"`
	Retry     bool    `json:"retry"`
}

const dateLayout = "2006-01-02T15:04:05.000Z"

// NewAlertRequest builds a fresh request stamped with t in UTC.
func NewAlertRequest(t time.Time, relax, threshold float64) AlertRequest {
	return AlertRequest{
		Date:      t.UTC().Format(dateLayout),
		Relax:     relax,
		Threshold: threshold,
	}
}

// Time parses the request date.
func (r AlertRequest) Time() (time.Time, error) {
	return iso8601.ParseString(r.Date)
}

// Message is the envelope exchanged over the channel.
type Message struct {
	Type     MessageType   `json:"type"`
	Settings *Settings     `json:"settings,omitempty"`
	Request  *AlertRequest `json:"request,omitempty"`
}

// SettingsMessage wraps s for sending.
func SettingsMessage(s Settings) Message {
	return Message{Type: MessageSettings, Settings: &s}
}

// RequestMessage wraps r for sending.
func RequestMessage(r AlertRequest) Message {
	return Message{Type: MessageRequest, Request: &r}
}
