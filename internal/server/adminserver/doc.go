// Package adminserver provides the operational listener.
//
// It listens on a TCP address or, with the "unix:" prefix, on a Unix
// domain socket, and serves endpoints kept off the edge listener so that
// no built-in path collides with a user prefix:
//
//   - GET /health   liveness
//   - GET /ready    readiness (503 before serving and while draining)
//   - GET /metrics  Prometheus exposition
//   - GET /routes   the compiled rule table in match order
//
// When a token is configured, /metrics and /routes require
// "Authorization: Bearer <token>". Socket file permissions guard the Unix
// listener.
package adminserver
