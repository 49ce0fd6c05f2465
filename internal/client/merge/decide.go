// Package merge reconciles remote pins against the Local Store using
// last-write-wins on the Updated stamp. Concurrent edits are reported,
// never resolved automatically.
package merge

import "github.com/dmitrijs2005/pinsync/internal/models"

type Decision int

const (
	// Keep leaves the local copy untouched; its pending push supersedes remote.
	Keep Decision = iota
	// Adopt overwrites (or creates) the local copy with remote.
	Adopt
	// Conflict: remote is newer but local has unpushed changes.
	Conflict
	// Anomaly: remote is older than an already synced local copy.
	Anomaly
)

func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Adopt:
		return "adopt"
	case Conflict:
		return "conflict"
	case Anomaly:
		return "anomaly"
	default:
		return "unknown"
	}
}

// Decide is pure. Equal stamps count as "remote not newer".
//
// A synced local copy with an equal stamp is the same version, so it is kept.
func Decide(remote models.Pin, local *models.Pin) Decision {
	if local == nil {
		return Adopt
	}
	newer := remote.Updated > local.Updated

	switch {
	case local.PendingSync && newer:
		return Conflict
	case local.PendingSync:
		return Keep
	case newer:
		return Adopt
	case remote.Updated < local.Updated:
		return Anomaly
	default:
		return Keep
	}
}
