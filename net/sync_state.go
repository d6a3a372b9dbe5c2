package net

import (
	"github.com/pkg/errors"
)

type SyncState int32

const (
	NotSynced SyncState = iota
	Syncing
	Synced
)

var syncStatus = [...]string{
	NotSynced: "Not Synced",
	Syncing:   "Synchronising",
	Synced:    "Synced",
}

func (s SyncState) String() string {
	if s < 0 || int(s) >= len(syncStatus) {
		return "Unknown"
	}
	return syncStatus[s]
}

func (s SyncState) MarshalText() (text []byte, err error) {
	return []byte(s.String()), nil
}

func (s *SyncState) UnmarshalText(text []byte) error {
	str := string(text)
	for i, v := range syncStatus {
		if v == str {
			*s = SyncState(i)
			return nil
		}
	}

	return errors.Errorf("unknown sync state %s", text)
}

// ProgressCallback runs on the sync loop after every batch. progress is in [0, 1].
type ProgressCallback func(progress float64, message string)

// Cursor is how far the local state has caught up with the remote ledger.
type Cursor struct {
	CurrentHeight     uint64    `json:"currentHeight"`
	LatestKnownHeight uint64    `json:"latestKnownHeight"`
	Status            SyncState `json:"status"`
}
