// ABOUTME: Build-time identity for this voicenode binary
// ABOUTME: Version is overridable via -ldflags "-X .../version.Version=..."
package version

var (
	Version      = "1.0.0"
	Product      = "voicenode"
	Manufacturer = "sonicrelay"
)
