// Package auth performs the Spotify OAuth2 authorization-code login.
//
// An [Authorizer] builds the authorize URL, opens it in the user's browser, captures the
// redirect on a one-shot local listener and exchanges the code for a [TokenPair]. Token
// requests go through [golang.org/x/oauth2] with HTTP Basic client authentication.
//
// Tokens live only in memory. There is no background refresh: callers that see
// [shared.ErrTokenExpired] call [Authorizer.Refresh] themselves.
package auth
