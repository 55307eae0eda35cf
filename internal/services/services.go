// package services defines the external clients used by a download run
//
// Spotify (metadata), YouTube via yt-dlp (audio)
package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/tapedeck/internal/shared"
)

const playlistURIPrefix = "spotify:playlist:"

var playlistIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// ParsePlaylistID extracts the playlist ID from a bare ID, a spotify:playlist: URI,
// or an open.spotify.com playlist URL.
func ParsePlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty playlist reference", shared.ErrInvalidPlaylistID)
	}

	id := ref
	switch {
	case strings.HasPrefix(ref, playlistURIPrefix):
		id = strings.TrimPrefix(ref, playlistURIPrefix)
	case strings.Contains(ref, "://"):
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidPlaylistID, err)
		}
		if u.Host != "open.spotify.com" {
			return "", fmt.Errorf("%w: unsupported host %q", shared.ErrInvalidPlaylistID, u.Host)
		}

		// Paths may carry a locale segment: /intl-de/playlist/<id>
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		id = ""
		for i := 0; i < len(parts)-1; i++ {
			if parts[i] == "playlist" {
				id = parts[i+1]
				break
			}
		}
	}

	if !playlistIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidPlaylistID, ref)
	}

	return id, nil
}
