// Package orchestrator decides when queued samples and photos are pushed to
// the collection endpoint.
//
// A single Run loop consumes stats ticks, connectivity changes, queue pokes
// and manual sync requests from one channel, and starts at most one sync
// pass at a time. A pass runs the record engine and then the image engine,
// refreshing the aggregate stats after each.
package orchestrator
