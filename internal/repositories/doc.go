// Package repositories implements SQLite persistence for the download run history.
//
// The history is an audit trail: one row per run and one row per successful download. It is written
// during a run and read by the history command. Nothing in a download run reads it back, so
// a run never skips a track because the history says it was fetched before.
//
// Key Implementations:
//   - [RunRepository] : Run and download persistence with newest-first listing
//   - [RunCacheAdapter] : Adapts [RunRepository] to tasks.RunRecorder
//
// IDs are v4 UUIDs generated by the caller (see shared.GenerateID) and timestamps are stored in UTC.
package repositories
