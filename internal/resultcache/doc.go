// Package resultcache deduplicates generation work with a content-addressed
// store mapping a normalized (title, author) identity to a previously
// accepted final result.
//
// Keys are derived by normalizing the identity (NFKC, case folding,
// punctuation stripped, whitespace collapsed) and hashing it, so "The Little
// Prince!" and " the little   prince " address the same entry. Entries carry
// a TTL and are evicted lazily on lookup or eagerly via CleanExpired.
//
// The store is a single JSON file written atomically. It is not transactional
// across processes: two concurrent requests for the same uncached identity
// will both generate, and the second write wins.
package resultcache
