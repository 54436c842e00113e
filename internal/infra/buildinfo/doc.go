// Package buildinfo provides build information for statichost.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/statichost-go/internal/infra/buildinfo.Version=1.0.0"
//
// When Commit is not injected it is read from the VCS stamp the Go
// toolchain embeds in the binary.
package buildinfo
