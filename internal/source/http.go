// ABOUTME: Generic HTTP source adapter: fetches and decodes direct media URLs
// ABOUTME: Excludes hosts the more specific adapters claim, so declared order doesn't matter
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/sonicrelay/voicenode/internal/apperr"
	"github.com/sonicrelay/voicenode/pkg/audio"
	"github.com/sonicrelay/voicenode/pkg/audio/decode"
	"github.com/sonicrelay/voicenode/pkg/track"
)

var httpExcludedHosts = []*regexp.Regexp{
	youtubeHostPattern, soundcloudHostPattern, bandcampHostPattern,
	twitchHostPattern, vimeoHostPattern, nicoHostPattern,
}

var httpURLPattern = regexp.MustCompile(`^https?://`)

// HTTPAdapter resolves any direct media URL not claimed by a more specific
// adapter, fetching the whole body and decoding it by file extension.
type HTTPAdapter struct {
	enabled bool
	client  *http.Client
}

func NewHTTP(enabled bool, client *http.Client) *HTTPAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPAdapter{enabled: enabled, client: client}
}

func (a *HTTPAdapter) Name() string  { return "http" }
func (a *HTTPAdapter) Enabled() bool { return a.enabled }

func (a *HTTPAdapter) CanHandle(identifier string) bool {
	if !httpURLPattern.MatchString(identifier) {
		return false
	}
	for _, re := range httpExcludedHosts {
		if re.MatchString(identifier) {
			return false
		}
	}
	return true
}

func (a *HTTPAdapter) Load(ctx context.Context, identifier string) LoadResult {
	u, err := url.Parse(identifier)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, "invalid URL", err)
	}

	codec, err := codecFromExtension(u.Path)
	if err != nil {
		return ErrorResult(apperr.SeverityCommon, err.Error(), err)
	}

	t := track.Track{
		Identifier: identifier,
		Title:      path.Base(u.Path),
		SourceName: a.Name(),
		URI:        identifier,
		IsStream:   false,
		IsSeekable: true,
	}
	_ = codec
	return TrackResult(t)
}

func (a *HTTPAdapter) Search(ctx context.Context, query string) LoadResult {
	return ErrorResult(apperr.SeverityCommon, "http adapter does not support search",
		apperr.New(apperr.BadRequest, "search not supported by http adapter"))
}

func (a *HTTPAdapter) Stream(ctx context.Context, t track.Track) (PcmStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URI, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.LoadFailed, "building request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.SourceUnavailable, "fetching track", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.SourceUnavailable, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.SourceUnavailable, "reading track body", err)
	}

	u, _ := url.Parse(t.URI)
	codecName, err := codecFromExtension(u.Path)
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

// codecFromExtension maps a URL path's extension to a decoder codec name.
func codecFromExtension(p string) (string, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".mp3":
		return "mp3", nil
	case ".flac":
		return "flac", nil
	case ".opus":
		return "opus", nil
	case ".wav", ".pcm":
		return "pcm", nil
	default:
		return "", fmt.Errorf("unrecognised audio extension: %s", p)
	}
}

// decodeBuffer decodes a whole byte buffer with the named codec's decoder,
// returning the decoded samples and the format they're in.
func decodeBuffer(codecName string, format audio.Format, data []byte) ([]int32, audio.Format, error) {
	format.Codec = codecName

	var (
		dec decode.Decoder
		err error
	)
	switch codecName {
	case "mp3":
		dec, err = decode.NewMP3(format)
	case "flac":
		dec, err = decode.NewFLAC(format)
	case "opus":
		dec, err = decode.NewOpus(format)
	case "pcm":
		dec, err = decode.NewPCM(format)
	default:
		return nil, format, fmt.Errorf("unsupported codec: %s", codecName)
	}
	if err != nil {
		return nil, format, err
	}
	defer dec.Close()

	samples, err := dec.Decode(data)
	if err != nil {
		return nil, format, err
	}
	return samples, format, nil
}
