// Package cli provides the interactive pinsync client.
//
// It wires configuration, the local store, the sync scheduler and an
// interactive REPL standing in for the map UI. Pins are created, moved and
// hidden locally and pushed in the background; a connectivity watcher pulls
// on every reconnect and live updates from the server are merged as they
// arrive.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
