package availabilitystore

import (
	"path/filepath"
	"time"
)

// Default retention windows, named directly after the constants in the
// original subsystem (spec.md §5).
const (
	// DefaultKeepStoredFor bounds how long a Stored (not yet included)
	// artifact survives before being pruned.
	DefaultKeepStoredFor = time.Hour
	// DefaultKeepFinalizedBlockFor bounds how long a finalized PoV
	// survives after finalization.
	DefaultKeepFinalizedBlockFor = 24 * time.Hour
	// DefaultKeepFinalizedChunkFor bounds how long a finalized chunk
	// survives after finalization; kept slightly longer than full data
	// so laggard chunk requests can still be served from local storage.
	DefaultKeepFinalizedChunkFor = 25 * time.Hour
)

// PruningConfig holds the three retention windows as overridable knobs,
// grounded on the teacher lineage's beacon-chain/db/filesystem pruner
// config pattern (named durations with package-level defaults).
type PruningConfig struct {
	KeepStoredFor         time.Duration
	KeepFinalizedBlockFor time.Duration
	KeepFinalizedChunkFor time.Duration
}

// DefaultPruningConfig returns the subsystem's default retention windows.
func DefaultPruningConfig() PruningConfig {
	return PruningConfig{
		KeepStoredFor:         DefaultKeepStoredFor,
		KeepFinalizedBlockFor: DefaultKeepFinalizedBlockFor,
		KeepFinalizedChunkFor: DefaultKeepFinalizedChunkFor,
	}
}

// Config is this subsystem's full runtime configuration.
type Config struct {
	// Path is the availability-store database file.
	Path string
	// Pruning holds the retention windows; zero value means use
	// DefaultPruningConfig.
	Pruning PruningConfig
	// CacheSize optionally pre-sizes the KV engine's memory-mapped
	// region in bytes (passed through to OpenBoltDatabase as
	// InitialMmapSize); zero means let the KV engine pick its own
	// default.
	CacheSize uint64
}

// DeriveConfig builds a Config rooted at a subdirectory of parentPath,
// mirroring the teacher lineage's BaseDir/DeriveConfig convention for
// locating a subsystem's own database file inside the host node's data
// directory.
func DeriveConfig(parentPath string) Config {
	return Config{
		Path:    filepath.Join(parentPath, "parachains", "av-store"),
		Pruning: DefaultPruningConfig(),
	}
}

func (c Config) pruning() PruningConfig {
	if c.Pruning == (PruningConfig{}) {
		return DefaultPruningConfig()
	}
	return c.Pruning
}
