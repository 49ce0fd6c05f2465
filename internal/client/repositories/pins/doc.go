// Package pins is the client's Local Store: durable keyed storage of pin
// records in the local SQLite database.
package pins
