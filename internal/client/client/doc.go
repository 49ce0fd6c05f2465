// Package client contains the client-side building blocks that talk to the
// remote sync service and bootstrap the local database.
//
// # Overview
//
//  1. A transport-agnostic contract (see the Client interface): Push, Pull,
//     Ping and Subscribe.
//  2. A concrete HTTP implementation (see HTTPClient) speaking JSON to
//     /sync and receiving live accepted pins over a websocket on /ws.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations), wiring the
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Any transport failure or non-2xx response is reported as ErrUnavailable
// (wrapping the cause), which the sync layer treats as transient.
package client
