// ABOUTME: Error classification driving C5 recovery strategy
// ABOUTME: Maps a transport error onto one of four recovery classes
package voice

import "github.com/sonicrelay/voicenode/internal/apperr"

// Class is the recovery strategy class for a transport error (spec 4.5).
type Class string

const (
	ClassTransient Class = "Transient"
	ClassAuth      Class = "Auth"
	ClassRateLimit Class = "RateLimit"
	ClassPermanent Class = "Permanent"
)

// Classify maps err onto a recovery class. apperr.Kind values already carry
// the voice-specific taxonomy (VoiceTransient/VoiceAuth/VoiceRateLimit/
// VoicePermanent); anything else (e.g. a raw network error surfaced by an
// injected Gateway/MediaSocket implementation) defaults to Transient, since
// an unclassified transport failure is the common case for plain I/O errors.
func Classify(err error) Class {
	if err == nil {
		return ClassTransient
	}
	appErr, ok := apperr.As(err)
	if !ok {
		return ClassTransient
	}
	switch appErr.Kind {
	case apperr.VoiceAuth:
		return ClassAuth
	case apperr.VoiceRateLimit:
		return ClassRateLimit
	case apperr.VoicePermanent:
		return ClassPermanent
	case apperr.VoiceTransient:
		return ClassTransient
	default:
		return ClassTransient
	}
}
