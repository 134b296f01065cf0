// Package services adapts the two remote systems the sync job talks to.
//
// # Track Source
//
// [TrackSource] pages through a playlist. [SpotifySource] implements it with github.com/zmb3/spotify/v2,
// authenticating through the client credentials flow; no user login is involved.
//
// # Sheet Service
//
// [SheetService] reads a range of a spreadsheet and appends rows to it. [SheetsService] implements it with
// google.golang.org/api/sheets/v4. Credentials are resolved by [GoogleClientOptions].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.AuthenticationError] : credentials missing or rejected (401/403), carries a remediation hint
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrNotFound] : spreadsheet or range does not exist
//   - [shared.DataShapeError] : a response item could not be mapped, e.g. a podcast episode in the playlist
package services
