// Package httpserver provides the edge HTTP/HTTPS server.
//
// Every request path belongs to the user's routing rules, so the edge
// listener registers no built-in endpoints; health and metrics live on the
// admin listener. The middleware chain assigns request IDs, opens a trace
// span, records metrics and writes the access log around the edge handler.
//
// TLS certificates are reloaded from disk when they change.
package httpserver
