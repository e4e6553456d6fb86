// Package httpapi exposes the service's HTTP surface on Echo.
//
// Routes:
//
//	POST /api/patients          ingest a fresh upload (multipart) or a
//	                            pre-staged sample (JSON)
//	GET  /api/patients          paginated, filtered case listing
//	GET  /api/patients/:id      case detail with signed file URLs
//	GET  /api/patients/samples  pre-staged demo catalogue
//	GET  /healthz               liveness
//
// Pipeline errors carry their own status mapping; responses are
// `{message}` envelopes, optionally with a `details` chain outside
// production.
package httpapi
