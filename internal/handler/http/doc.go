// Package http implements the HTTP transport layer of the application.
//
// It exposes route wiring, request handlers, and middleware used by the REST
// API. Mutating endpoints authorize themselves through the signed envelope
// each request body carries; only the token-based read endpoints go through
// the auth middleware. Tracing, access logging, and response compression are
// handled in this package before requests reach the service layer.
package http
