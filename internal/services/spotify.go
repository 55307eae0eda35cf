// Spotify Web API playlist client
//
// Uses the client-credentials grant, so only public (or app-visible) playlists can be read.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1/"

	// maximum page size accepted by the playlist items endpoint
	playlistPageLimit = 100
)

// SpotifyService reads playlists from the Spotify Web API.
type SpotifyService struct {
	config     *clientcredentials.Config
	apiURL     string
	httpClient *http.Client
	client     *spotify.Client
	pageLimit  int
	logger     *log.Logger
}

// NewSpotifyService creates a new Spotify service from client credentials.
//
// httpClient is the transport used for both the token grant and API calls and defaults to [http.DefaultClient].
func NewSpotifyService(creds shared.SpotifyConfig, httpClient *http.Client, logger *log.Logger) (*SpotifyService, error) {
	if creds.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyTokenURL
	}
	apiURL := creds.APIURL
	if apiURL == "" {
		apiURL = spotifyBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		config: &clientcredentials.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			TokenURL:     tokenURL,
		},
		apiURL:     apiURL,
		httpClient: httpClient,
		pageLimit:  playlistPageLimit,
		logger:     shared.WithLogger(logger, "service", "spotify"),
	}, nil
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate performs the client-credentials grant and prepares the API client.
//
// The token is requested immediately so bad credentials fail here rather than on the first page.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)

	token, err := s.config.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	tokenClient := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, s.config.TokenSource(ctx)))
	s.client = spotify.New(tokenClient, spotify.WithBaseURL(s.apiURL))

	s.logger.Debug("authenticated", "token_type", token.Type())
	return nil
}

func (s *SpotifyService) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}
	return s.Authenticate(ctx)
}

// Playlist retrieves playlist metadata without its items.
func (s *SpotifyService) Playlist(ctx context.Context, ref string) (*models.Playlist, error) {
	playlistID, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	playlist, err := s.client.GetPlaylist(ctx, spotify.ID(playlistID), spotify.Fields("id,name,owner(display_name,id),tracks(total)"))
	if err != nil {
		return nil, wrapSpotifyError(err, playlistID)
	}

	owner := playlist.Owner.DisplayName
	if owner == "" {
		owner = playlist.Owner.ID
	}

	return &models.Playlist{
		ID:         string(playlist.ID),
		Name:       playlist.Name,
		Owner:      owner,
		TrackCount: int(playlist.Tracks.Total),
	}, nil
}

// PlaylistTracks returns every track in the playlist, in playlist order.
//
// The first page is requested directly; later pages are fetched by following the page's next
// cursor until the API signals the last page. Entries without a track (removed items, podcast
// episodes) are skipped but still count toward the position of the entries after them.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, ref string) ([]models.Track, error) {
	playlistID, err := ParsePlaylistID(ref)
	if err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx); err != nil {
		return nil, err
	}

	logger := shared.WithLogger(s.logger, "playlist", playlistID)

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(s.pageLimit))
	if err != nil {
		return nil, wrapSpotifyError(err, playlistID)
	}

	var tracks []models.Track
	position := 0
	for pageNum := 1; ; pageNum++ {
		logger.Debug("received playlist page", "page", pageNum, "items", len(page.Items), "total", page.Total)

		for _, item := range page.Items {
			if track, ok := toTrack(item, position); ok {
				tracks = append(tracks, track)
			}
			position++
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, wrapSpotifyError(err, playlistID)
		}
	}

	logger.Info("fetched playlist tracks", "tracks", len(tracks), "items", position)
	return tracks, nil
}

func toTrack(item spotify.PlaylistItem, position int) (models.Track, bool) {
	full := item.Track.Track
	if full == nil {
		return models.Track{}, false
	}

	artists := make([]string, 0, len(full.Artists))
	for _, artist := range full.Artists {
		artists = append(artists, artist.Name)
	}

	return models.Track{
		ID:       string(full.ID),
		Title:    full.Name,
		Artists:  artists,
		Album:    full.Album.Name,
		Duration: int(full.Duration) / 1000,
		Position: position,
	}, true
}

func wrapSpotifyError(err error, playlistID string) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", shared.ErrPlaylistNotFound, playlistID, err)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}
