// Package fileserver serves FileServe outcomes from the local filesystem.
//
// The request path remainder after the matched prefix is unescaped,
// cleaned and resolved under the rule's local directory, so ".." segments
// never leave it. Directories are redirected to their trailing-slash form,
// then answered with the index file, or with an HTML listing when the rule
// allows one. Dot-prefixed entries are reachable only on rules with
// listings enabled.
package fileserver
