// Package tasks runs the scan loop that turns tag reads into playback.
//
// # Scan Loop
//
// [Deck.Run] reads tags from a [reader.Reader] until the stream ends or the context is cancelled.
// Each read is handled by [Deck.Handle]:
//
//  1. Debounce: a tag held on the reader is played once per debounce window, tracked per tag
//     with a [rate.Limiter] driven by an injectable clock.
//  2. Resolve: the tag library is consulted first; otherwise the tag text is parsed as a URI,
//     an open.spotify.com link, or a bare ID of the default kind.
//  3. Play: the reference is sent to the [services.Player]. A [shared.ErrTokenExpired] response
//     triggers the configured refresh callback and a single retry.
//  4. Record: the outcome is appended to the scan history when one is configured.
//
// # Progress Reporting
//
// Handled reads are reported as [ScanEvent] values on an optional channel. Sends never block;
// a full channel drops the event.
//
// A failed read does not stop the loop. Only reader errors and context cancellation do.
package tasks
