// ABOUTME: Local filesystem source adapter, identifiers prefixed "local:"
package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/sonicrelay/voicenode/pkg/track"
)

const localPrefix = "local:"

// LocalAdapter resolves files from the local filesystem, identified by a
// "local:" prefix over the absolute path. It never escapes outside the
// configured root directory.
type LocalAdapter struct {
	enabled bool
	root    string
}

func NewLocal(enabled bool, root string) *LocalAdapter {
	return &LocalAdapter{enabled: enabled, root: root}
}

func (a *LocalAdapter) Name() string  { return "local" }
func (a *LocalAdapter) Enabled() bool { return a.enabled }

func (a *LocalAdapter) CanHandle(identifier string) bool {
	return strings.HasPrefix(identifier, localPrefix)
}

func (a *LocalAdapter) resolvePath(identifier string) (string, error) {
	rel := strings.TrimPrefix(identifier, localPrefix)
	full := filepath.Join(a.root, rel)
	if r, err := filepath.Rel(a.root, full); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", apperr.New(apperr.BadRequest, "path escapes local root")
	}
	return full, nil
}

func (a *LocalAdapter) Load(ctx context.Context, identifier string) LoadResult {
	full, err := a.resolvePath(identifier)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, err.Error(), err)
	}

	info, err := os.Stat(full)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, "file not found", err)
	}
	if info.IsDir() {
		return ErrorResult(apperr.SeverityCommon, "path is a directory", apperr.New(apperr.BadRequest, "not a file"))
	}

	codecName, err := codecFromExtension(full)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, err.Error(), err)
	}

	t := track.Track{
		Identifier: identifier,
		Title:      filepath.Base(full),
		SourceName: a.Name(),
		URI:        identifier,
		IsStream:   false,
		IsSeekable: true,
	}
	_ = codecName
	return TrackResult(t)
}

func (a *LocalAdapter) Search(ctx context.Context, query string) LoadResult {
	return ErrorResult(apperr.SeverityCommon, "local adapter does not support search",
		apperr.New(apperr.BadRequest, "search not supported by local adapter"))
}

func (a *LocalAdapter) Stream(ctx context.Context, t track.Track) (PcmStream, error) {
	full, err := a.resolvePath(t.Identifier)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, apperr.Wrap(apperr.SourceUnavailable, "reading local file", err)
	}

	codecName, err := codecFromExtension(full)
	if err != nil {
		return nil, apperr.Wrap(apperr.LoadFailed, "unrecognised audio format", err)
	}

	format := audio.Format{Codec: codecName, SampleRate: 48000, Channels: 2, BitDepth: 16}
	samples, decodedFormat, err := decodeBuffer(codecName, format, data)
	if err != nil {
		return nil, apperr.Wrap(apperr.LoadFailed, "decode failed", err)
	}

	return newBufferStream(samples, decodedFormat), nil
}
