// Package services implements the Spotify Web API client used for playback.
//
// [SpotifyService] wraps a [resty.Client] that carries the bearer token on every request.
// It exposes the small surface the player needs: fetch metadata for a media reference,
// start playback, and list the user's devices.
//
// # Error Handling
//
// Non-2xx responses become a [shared.ResponseError] of kind [shared.ErrRequest] carrying the raw
// body. A 401 additionally matches [shared.ErrTokenExpired] so callers can refresh and retry.
// A 404 on a metadata lookup is not an error: [SpotifyService.GetMedia] returns nil, nil.
//
// Kinds and IDs are validated before any request is made.
package services
