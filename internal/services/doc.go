// Package services implements the two external clients a download run depends on.
//
// # Spotify Playlist Client
//
// [SpotifyService] authenticates with the client-credentials grant through
// [clientcredentials.Config] (no user login) and reads playlist items with the
// [spotify.Client]. Pagination follows the `next` cursor returned with every page
// until the API reports the last page.
//
// # Audio Fetcher
//
// [YTDLPFetcher] drives yt-dlp through go-ytdlp. Each call runs a site-scoped
// search ("ytsearch:<query>"), downloads the best audio stream of the first match,
// and transcodes it to a fixed-bitrate MP3 named after the video title.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrAuthFailed] : client-credentials grant rejected
//   - [shared.ErrAPIRequest] : playlist request failed
//   - [shared.ErrInvalidPlaylistID] : playlist reference could not be parsed
//   - [shared.ErrDownloadFailed] : yt-dlp search, download or transcode failed
//   - [shared.ErrNoResult] : search returned no entry with a finished file
//
// Playlist errors are returned to the caller. Fetch errors are never returned;
// they are carried inside [models.DownloadResult].
package services
