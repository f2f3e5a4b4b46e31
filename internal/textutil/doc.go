// Package textutil cleans and bounds untrusted text before it reaches storage.
//
// Scraped HTML fragments and model output share the same hygiene rules:
//   - entities are decoded and control characters other than line breaks and tabs are dropped
//   - whitespace runs collapse to a single space
//   - every persisted field is cut to a fixed number of characters (runes, not bytes)
//   - batches are deduplicated on a case-folded key, first occurrence wins
package textutil
