// Package repositories implements SQLite persistence for the tag library and scan history.
//
// Key Implementations:
//   - [TagRepository] : hardware tag ID to Spotify URI bindings, one row per tag
//   - [ScanRepository] : append-only log of tags handled by the scan loop
//
// Records are keyed by generated UUIDs; lookups that find nothing return an error wrapping
// [shared.ErrNotFound]. Tokens and credentials are never stored here.
package repositories
