package domain

type SnapshotStatus string

const (
	SnapshotStatusValid    SnapshotStatus = "valid"
	SnapshotStatusDegraded SnapshotStatus = "degraded"
)
