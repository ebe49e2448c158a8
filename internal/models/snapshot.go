package models

import "time"

// SnapshotVersion is written into every export.
const SnapshotVersion = 2

// SnapshotMeta describes where and when an export was produced.
type SnapshotMeta struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Provider   string    `json:"provider"`
}

// Snapshot is the export/import payload. Import requires all three
// collections to be present, so they are pointers to tell a missing key from
// an empty array.
type Snapshot struct {
	Meta         SnapshotMeta   `json:"meta"`
	Accounts     *[]Account     `json:"accounts"`
	Categories   *[]Category    `json:"categories"`
	Transactions *[]Transaction `json:"transactions"`
}

// Complete reports whether every collection key is present.
func (s Snapshot) Complete() bool {
	return s.Accounts != nil && s.Categories != nil && s.Transactions != nil
}
