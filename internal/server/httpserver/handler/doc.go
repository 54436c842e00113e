// Package handler provides the edge request handler.
//
// Every request is dispatched against the compiled rule set and handed to
// exactly one branch: the file server, the forwarder, or the not-found
// response. Errors from either branch are rendered as a JSON envelope
// whose status comes from the error code.
package handler
