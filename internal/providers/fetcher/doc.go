/*
Package fetcher retrieves audit targets over HTTP.

A fetch is a single GET with browser-like headers, bounded by a timeout that
covers the body read. Failures come back as *audit.FetchError with a Kind
describing the cause (timeout, anti-bot block, rate limit, bad request, other
status, short body, unsupported content, transport).

Bodies are decoded (gzip, deflate, zstd), sniffed to reject non-text
payloads, converted to UTF-8 and capped at Config.MaxBody bytes.
*/
package fetcher
