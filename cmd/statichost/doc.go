// Package main provides the entry point for statichost.
//
// statichost serves local directories and reverse-proxies path prefixes
// according to a route table given as a JSON or YAML file, or a directory
// to serve whole. Run without a command it serves; the routes, match and
// version commands inspect the table without listening.
package main
