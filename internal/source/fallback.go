// ABOUTME: Fallback rewriter: turns an unsupported streaming-service URL into a youtube search query
// ABOUTME: Pure string-level extraction only, never a remote API call (spec 4.2/6)
package source

import "regexp"

// fallbackHosts matches the streaming-service URLs spec 6 lists as
// requiring the fallback rewrite: open.spotify.com, spotify: URIs,
// music.apple.com, deezer.com track URLs.
var fallbackHosts = []*regexp.Regexp{
	regexp.MustCompile(`^https?://open\.spotify\.com/`),
	regexp.MustCompile(`^spotify:`),
	regexp.MustCompile(`^https?://music\.apple\.com/`),
	regexp.MustCompile(`^https?://(www\.)?deezer\.com/[a-z]+/track/`),
}

// titleArtistPattern extracts a "{artist} - {title}" style query from a
// path segment when the URL carries one; falls back to the identifier
// itself when it can't.
var titleArtistPattern = regexp.MustCompile(`/([^/]+)-([^/?#]+)$`)

// RewriteFallback reports whether identifier matches a known unsupported
// streaming URL and, if so, returns the search query to dispatch via
// ytsearch. This is a pure, local transformation: no network calls, no
// calls into the originating service's API.
func RewriteFallback(identifier string) (string, bool) {
	matched := false
	for _, re := range fallbackHosts {
		if re.MatchString(identifier) {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	if m := titleArtistPattern.FindStringSubmatch(identifier); m != nil {
		artist := unslug(m[1])
		title := unslug(m[2])
		return artist + " " + title, true
	}

	return identifier, true
}

func unslug(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' || s[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = s[i]
		}
	}
	return string(out)
}
