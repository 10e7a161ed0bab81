// Package sanitizer normalizes user and catalog input before it is validated or
// turned into document store paths.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty string or an empty slice.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Key segments: every whitespace rune becomes "_" ("Deluxe Room" -> "Deluxe_Room")
//   - User ids: "." becomes "_" so an email is a legal path segment
//   - Emails: trimmed and lowercased before lookup
//   - Slices: duplicates and empty values removed, first-seen order kept
package sanitizer
