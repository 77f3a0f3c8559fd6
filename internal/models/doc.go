// Package models defines the domain types shared by the Spotify client, the scan loop and the tag library.
//
// The package contains two categories of types:
//
// 1. Media values: immutable references and provider payloads
//   - [Kind] : one of album, artist, playlist or track
//   - [Reference] : a typed Spotify identifier, convertible to and from "spotify:<kind>:<id>"
//   - [Metadata] : the raw JSON body of a metadata lookup, with gjson accessors and typed views
//
// 2. Library records: rows owned by the repositories package
//   - [Tag] : a hardware tag ID bound to a Spotify URI
//   - [Scan] : one tag read handled by the scan loop and its outcome
//
// Conversions between IDs and URIs are pure and fail with [shared.ErrValidation] on unknown kinds
// or malformed input; they never touch the network.
package models
