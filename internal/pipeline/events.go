// ABOUTME: Pipeline event types emitted up to the Player (C6)
// ABOUTME: The audio tick never propagates errors; it converts them into these events
package pipeline

import "github.com/sonicrelay/voicenode/internal/apperr"

// Kind tags the event type.
type Kind string

const (
	KindTrackEnd       Kind = "TrackEnd"
	KindTrackException Kind = "TrackException"
	KindTrackStuck     Kind = "TrackStuck"
)

// EndReason classifies why a track ended.
type EndReason string

const (
	ReasonFinished   EndReason = "Finished"
	ReasonReplaced   EndReason = "Replaced"
	ReasonStopped    EndReason = "Stopped"
	ReasonLoadFailed EndReason = "LoadFailed"
	ReasonCleanup    EndReason = "Cleanup"
)

// Event is emitted on the pipeline's event channel.
type Event struct {
	Kind        Kind
	Reason      EndReason
	Severity    apperr.Severity
	Cause       error
	ThresholdMs int64
}
