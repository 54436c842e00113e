// Package command provides the statichost command line.
//
// Commands are built with urfave/cli/v2:
//
//   - root.go: the application, shared flags and route loading
//   - serve.go: the edge server (also the default action)
//   - routes.go: print the compiled routing table
//   - match.go: show how a request path would be dispatched
//   - version.go: build information
package command
