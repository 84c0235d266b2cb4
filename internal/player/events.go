// ABOUTME: Player-level events forwarded up to the Session Manager (C7)
// ABOUTME: Wraps pipeline events with the guild id the control stream needs
package player

import "github.com/sonicrelay/voicenode/internal/apperr"

// EventKind tags which control-stream Event variant this is (spec 6).
type EventKind string

const (
	EventTrackStart     EventKind = "TrackStart"
	EventTrackEnd       EventKind = "TrackEnd"
	EventTrackException EventKind = "TrackException"
	EventTrackStuck     EventKind = "TrackStuck"
)

// EndReason classifies why a track ended, mirroring pipeline.EndReason plus
// the two reasons the Player itself produces (Replaced, Stopped) rather
// than the pipeline.
type EndReason string

const (
	ReasonFinished   EndReason = "Finished"
	ReasonReplaced   EndReason = "Replaced"
	ReasonStopped    EndReason = "Stopped"
	ReasonLoadFailed EndReason = "LoadFailed"
	ReasonCleanup    EndReason = "Cleanup"
)

// Event is what a Player sends on its events channel for the Session
// Manager to multiplex onto the control stream.
type Event struct {
	Kind        EventKind
	GuildID     string
	Reason      EndReason
	Severity    apperr.Severity
	Cause       error
	ThresholdMs int64
}
