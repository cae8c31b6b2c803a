// Package cli implements the edna command line.
//
// Every command opens the local store in the configured data directory,
// so samples can be recorded with no network at all. Commands that talk
// to the collection endpoint first probe it and fall back to leaving the
// queue as is.
//
//	edna submit ...   queue a sample (and sync it when online)
//	edna sync         run one sync pass
//	edna run          sync automatically until interrupted
//	edna shell        interactive session with background syncing
//
// Execute is the entry point used by cmd/edna.
package cli
