// Package shutdown provides graceful shutdown for statichost.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Context cancellation (a listener failing ends the process too)
//   - Timeout-bounded cleanup hooks, run in reverse registration order
//
// Usage:
//
//	h := shutdown.NewHandler(15 * time.Second)
//	h.OnShutdown("edge listener", srv.Shutdown)
//	err := h.WaitContext(ctx)
package shutdown
