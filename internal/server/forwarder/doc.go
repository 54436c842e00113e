// Package forwarder relays Forward outcomes to their origin.
//
// The target URL computed by the dispatcher is used verbatim: scheme, host,
// path and query all come from it. By default the outbound request is a
// body-less GET regardless of the client's method; Config.PassMethod keeps
// the client's method and body. Upstream failures are reported as
// *domain.DomainError values through the configured ErrorRenderer.
package forwarder
