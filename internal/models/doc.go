// Package models defines the data carried through a playlist download run.
//
// The package contains two categories of types:
//
// 1. Run data: values that live for one run only
//   - [Track] : one playlist entry with title, artists, and playlist position
//   - [DownloadResult] : the outcome of fetching one track, success or failure
//   - [LogEntry] : one element of download_log.json
//
// 2. History records: rows persisted by the repositories package
//   - [Run] : a completed or in-flight playlist download
//   - [Download] : a successful download recorded against a run
package models
