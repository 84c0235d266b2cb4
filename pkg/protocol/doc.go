// ABOUTME: voicenode control-stream wire protocol package
// ABOUTME: Defines the message envelope and typed payloads (spec 6)
// Package protocol defines the JSON messages exchanged over the
// voicenode control stream: the Ready/PlayerUpdate/Stats/Event
// payloads a Session emits, wrapped in the shared Message envelope.
package protocol
