// Package common contains shared constants and sentinel errors used across
// pinsync components.
package common

// ClientIDHeaderName carries the caller's client id on outbound requests.
// The server logs it; it is not an authentication credential.
const ClientIDHeaderName = "X-Client-Id"

// HTTP routes exposed by the remote sync service.
const (
	SyncPath   = "/sync"
	WSPath     = "/ws"
	HealthPath = "/health"
)
