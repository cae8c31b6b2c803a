// Package client contains the client-side building blocks that talk to
// the outside world: the remote collection endpoint and the local SQLite
// database.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract for the collection endpoint (see the
//     Client interface): SubmitSamples, UploadImage and Ping.
//  2. A concrete HTTP implementation (see HTTPClient) that posts samples as
//     one JSON batch and photos as multipart forms, and maps failures to the
//     errors below.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations, OpenStore)
//     wiring an SQLite database, applying embedded goose migrations and
//     exposing the repositories as a Store.
//
// # Error Handling
//
// Request-level failures (DNS, refused connections, timeouts) are wrapped
// in ErrUnavailable. A response outside the 2xx range is returned as a
// *RemoteError carrying the status code and reason phrase.
//
// Concurrency & Contexts
//
// HTTPClient and Store are safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package client
