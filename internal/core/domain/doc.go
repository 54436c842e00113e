// Package domain defines the core routing model for statichost.
//
// Domain values are plain data without IO dependencies. This package contains:
//
//   - Rule: a URL prefix bound to exactly one Target
//   - Directory / Proxy: the two Target variants
//   - RuleDescriptor: a decoded route entry awaiting validation
//   - Errors: coded domain errors shared by every layer
//
// Rules are validated once when the route table is compiled and are
// treated as immutable afterwards.
package domain
