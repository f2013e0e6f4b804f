// Package remote fetches JSON record collections over HTTP and applies them
// to the page.
//
// A fetch is all or nothing: the response is read and decoded in full before
// the first record is applied, and any failure (network, status, truncated or
// malformed body) produces a *FetchError, a Reporter notification and zero
// applies. Records are applied in response order without deduplication.
//
// The core fetch never retries. FetchWithRetry and Poll are opt-in wrappers.
package remote
