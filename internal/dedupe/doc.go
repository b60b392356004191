// Package dedupe makes client creation idempotent.
//
// A caller that sends the same Idempotency-Key twice within the TTL gets the
// client created by the first request instead of a second insert. Keys are
// held in a patrickmn/go-cache TTL cache whose janitor drops expired entries.
package dedupe
