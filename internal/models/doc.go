// Package models defines the records albumsync moves between Spotify, Google Sheets and its run history.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: typed views of external API payloads
//   - [Track] : a playlist item with its added-at time and embedded [TrackAlbum]
//   - [Album] : one deduplicated album, the unit written to the spreadsheet
//   - [SheetRow] : the string cells of one existing spreadsheet row
//
// 2. Persistent Entities: database-backed records
//   - [SyncRun] : one execution of the sync job with its counts and outcome
//
// Constructors validate required fields and fail with [shared.DataShapeError] instead of carrying empty defaults forward.
// Persistent entities implement the [Model] interface and are stored through a [Repository].
package models
