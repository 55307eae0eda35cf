// Package tasks runs a playlist download with real-time progress reporting.
//
// # Run
//
// [DownloadEngine.Run] performs one pass over a playlist:
//
//  1. Resolves the output directory and creates it (an existing directory is fine)
//  2. Fetches every track from the [PlaylistSource]
//  3. For each track, in order:
//     - Builds the search query ("<title> <artist> <artist>...")
//     - Prints "Downloading: <query>"
//     - Asks the [AudioFetcher] for the audio file
//     - On failure prints "Error downloading <query>: <reason>" and moves on
//  4. Writes download_log.json with one entry per successful download
//  5. Prints "Downloaded <n> of <total> tracks to <dir>"
//
// Tracks are processed one at a time. A per-track failure never stops the run. Playlist, directory
// and log write failures do, and no summary is printed for them.
//
// # Pacing
//
// When EngineOpts.SearchRate is positive, searches are paced with a [rate.Limiter].
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages and optional data.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] receives the run start, each successful download and the finish.
// Records are written silently (errors logged, never returned) so a broken history database
// cannot disrupt a download. History is an audit trail; it is never read back by the engine.
package tasks
