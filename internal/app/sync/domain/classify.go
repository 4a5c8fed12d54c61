package domain

import "time"

// Classification names the relationship between local, remote, and
// last-confirmed-synced state for one listing.
type Classification string

const (
	// ClassSnapshotStale means no usable baseline exists: either no
	// snapshot was ever taken or the latest one predates the staleness
	// threshold.
	ClassSnapshotStale Classification = "snapshot_stale"
	// ClassInternalOnly means the local record changed but was not yet
	// pushed.
	ClassInternalOnly Classification = "internal_only"
	// ClassExternalOnly means the remote side changed out of band.
	ClassExternalOnly Classification = "external_only"
	// ClassBothChanged means conflicting edits on both sides.
	ClassBothChanged Classification = "both_changed"
)

// DiffPair names which pair of documents the drift event's structural diff
// compares.
type DiffPair int

const (
	DiffNone DiffPair = iota
	DiffLocalVsSnapshot
	DiffRemoteVsSnapshot
	DiffLocalVsRemote
)

// Classify applies the drift classification table. snapshotHash is empty
// when no snapshot exists. The boolean is false for the two matched cases,
// which emit no event: recording agreement would drown the event log.
func Classify(localHash, remoteHash, snapshotHash string, snapshotAge, staleAfter time.Duration) (Classification, DiffPair, bool) {
	if snapshotHash == "" || snapshotAge > staleAfter {
		return ClassSnapshotStale, DiffLocalVsRemote, true
	}

	localMatches := localHash == snapshotHash
	remoteMatches := remoteHash == snapshotHash

	switch {
	case localMatches && remoteMatches:
		return "", DiffNone, false
	case !localMatches && remoteMatches:
		return ClassInternalOnly, DiffLocalVsSnapshot, true
	case localMatches && !remoteMatches:
		return ClassExternalOnly, DiffRemoteVsSnapshot, true
	case localHash == remoteHash:
		// Both sides diverged from the snapshot but converged on the same
		// content; treated as matched.
		return "", DiffNone, false
	default:
		return ClassBothChanged, DiffLocalVsRemote, true
	}
}
