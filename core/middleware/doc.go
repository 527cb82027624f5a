// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation (X-API-Key header).
//   - rayid: tags every request with a RayID, stored in the context under
//     "ray_id" and echoed in the X-Ray-ID response header.
//
// RayID must be registered first so that every log line of a request carries it.
package middleware
