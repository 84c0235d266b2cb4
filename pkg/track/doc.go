// ABOUTME: Opaque track identifier codec
// ABOUTME: Encodes/decodes the base64 wire format clients treat as opaque
// Package track implements the encoded-track format: a base64 wrapper around
// a small versioned binary header followed by length-prefixed UTF-8 fields.
//
// The format is an external contract — peer implementations decode the same
// bytes, so field order and the header layout must not change within a
// version.
package track
