package history

import "errors"

// Sentinel errors matching the failure taxonomy: StorageUnavailable and
// SchemaFailure are fatal to the caller; AppendFailed, QueryFailed and
// ViewBuildFailed are surfaced and may be retried.
var (
	// ErrStorageUnavailable means the database file could not be opened
	// or created (e.g. the path is unwritable).
	ErrStorageUnavailable = errors.New("history: storage unavailable")

	// ErrSchemaFailure means migrations or index creation failed.
	ErrSchemaFailure = errors.New("history: schema migration failed")

	// ErrAppendFailed means an insert was rejected.
	ErrAppendFailed = errors.New("history: append failed")

	// ErrQueryFailed means a read failed unexpectedly.
	ErrQueryFailed = errors.New("history: query failed")

	// ErrClockAnomaly means the system clock reports a time before the
	// Unix epoch, which would make age/recency features meaningless.
	ErrClockAnomaly = errors.New("history: clock anomaly")
)
