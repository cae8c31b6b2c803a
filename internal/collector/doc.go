// Package collector is an in-memory implementation of the sample
// collection endpoint. It backs cmd/collector for local development and
// serves as the remote side in end-to-end tests.
//
// Routes:
//
//	POST /samples   JSON {"samples": [...]}, answers {"success": true, "count": n}
//	POST /images    multipart form with image, sampleId and optional submission_key
//	GET  /          health check, also answers HEAD
package collector
