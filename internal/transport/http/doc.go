// Package http contains the chi HTTP handlers of the dashboard API.
//
// Handlers are thin: they validate the request, call a service, and render
// the result through go-chi/render. Every error response is an RFC 7807
// problem+json body produced by the central error handler; the only
// exception is the insufficient-data branch of the county series endpoint,
// which is a normal 200 "no data" payload.
package http
