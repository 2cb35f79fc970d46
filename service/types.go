package service

// RestoreOutcome is the three-way result of a restore operation
type RestoreOutcome string

const (
	// RestoreOutcomeHit means an entry was found and restored
	RestoreOutcomeHit RestoreOutcome = "hit"
	// RestoreOutcomeMiss means no entry was found, or caching is unavailable
	RestoreOutcomeMiss RestoreOutcome = "miss"
	// RestoreOutcomeDegraded means an entry was found but could not be
	// transferred or extracted - callers treat this like a miss
	RestoreOutcomeDegraded RestoreOutcome = "degraded"
)

// SaveOutcome is the three-way result of a save operation
type SaveOutcome string

const (
	// SaveOutcomeSaved means the archive was stored
	SaveOutcomeSaved SaveOutcome = "saved"
	// SaveOutcomeSkipped means caching is unavailable and nothing was done
	SaveOutcomeSkipped SaveOutcome = "skipped"
	// SaveOutcomeDegraded means packaging or storing failed - the caller's
	// workflow continues without a cache entry
	SaveOutcomeDegraded SaveOutcome = "degraded"
)

// RestoreOptions holds per-restore options
type RestoreOptions struct {
	// LookupOnly reports a hit without transferring or extracting content
	LookupOnly bool
	// BaseDir is the directory the path set is relative to, default "."
	BaseDir string
}

// SaveOptions holds per-save options
type SaveOptions struct {
	// BaseDir is the directory the path set is relative to, default "."
	BaseDir string
}

// RestoreResult contains the outcome of a restore operation
type RestoreResult struct {
	Outcome     RestoreOutcome
	MatchedKey  string
	ArchiveSize int64
}

// SaveResult contains the outcome of a save operation
type SaveResult struct {
	Outcome     SaveOutcome
	SavedID     string
	ArchiveSize int64
}
