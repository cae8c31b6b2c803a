// Package connectivity tracks whether the collection endpoint can be
// reached.
//
// The online flag is advisory: it can race with the real network, so the
// sync engines still expect transport failures while it reports online.
// Listeners registered with OnChange are called once per transition, never
// per probe.
package connectivity
