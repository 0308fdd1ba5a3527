// Package middleware groups the Fiber middleware of the device API.
//
//   - auth: rejects requests whose X-API-Key header does not match
//     server.api_key. An empty key leaves the API open, which is only meant
//     for a scanner talking to itself over loopback.
//   - rayid: tags every request with a ray id, reusing the X-Ray-ID header
//     when the UI sends one, so UI and engine logs can be joined.
//
// Register rayid before anything that logs.
package middleware
