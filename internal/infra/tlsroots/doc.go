// Package tlsroots provides TLS material for statichost.
//
//   - roots.go: trusted roots for upstream connections (system pool plus an
//     optional CA bundle)
//   - watcher.go: edge listener certificate hot-reload via fsnotify
package tlsroots
