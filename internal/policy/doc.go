// Package policy provides the write gate for user records.
//
// This package implements the rules every mutating request must pass
// before it reaches the store:
//   - Name restrictions (a forbidden marker word may never appear)
//   - Email shape (must contain '@')
//   - Deletion embargo (records are kept for at least one minute)
//
// All checks are pure functions of their inputs. They hold no state and
// are safe to call from any number of request handlers at once.
package policy
