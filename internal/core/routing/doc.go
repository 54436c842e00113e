// Package routing compiles route descriptors into a RuleSet and dispatches
// request paths against it.
//
// A RuleSet is built once, before the server accepts connections, and is
// never mutated afterwards; a single *RuleSet is shared by every request
// goroutine without locking.
//
// Matching is a raw string-prefix test over rules sorted by descending
// prefix length, so the longest matching prefix wins. The test is not
// path-segment aware: "/api" matches "/api2/x".
package routing
