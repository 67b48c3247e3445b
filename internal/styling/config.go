package styling

import (
	"time"

	"github.com/playalore/playalore/internal/logger"
	"github.com/playalore/playalore/internal/utils"
)

// Config carries every knob of the capsule pipeline. It is built once at
// bootstrap and passed into constructors; nothing in the pipeline reads
// ambient state, so tests can inject arbitrary version combinations.
type Config struct {
	// Enabled gates the persona-style feature process-wide.
	Enabled bool
	// CapsuleTTL is how long a freshly built capsule stays valid.
	CapsuleTTL time.Duration
	// FastPathTimeout bounds the synchronous build attempt in set_persona.
	FastPathTimeout time.Duration
	// RefreshWindow: capsules expiring within it get re-enqueued.
	RefreshWindow time.Duration
	// BuildLockTTL bounds how long a stuck build can hold its lease.
	BuildLockTTL time.Duration
	// CleanupBatchSize bounds each expired-row delete statement.
	CleanupBatchSize int
	// GraphVersion and LexiconVersion partition the capsule identity key.
	// Bump them whenever the underlying entity or lexicon data changes.
	GraphVersion   string
	LexiconVersion string
}

// LoadConfig reads the pipeline configuration from the environment.
func LoadConfig(log *logger.Logger) Config {
	return Config{
		Enabled:          utils.GetEnvAsBool("PERSONA_STYLE_ENABLED", true, log),
		CapsuleTTL:       time.Duration(utils.GetEnvAsInt("CAPSULE_TTL_DAYS", 7, log)) * 24 * time.Hour,
		FastPathTimeout:  time.Duration(utils.GetEnvAsInt("CAPSULE_FAST_PATH_TIMEOUT_SECONDS", 10, log)) * time.Second,
		RefreshWindow:    time.Duration(utils.GetEnvAsInt("CAPSULE_REFRESH_WINDOW_HOURS", 24, log)) * time.Hour,
		BuildLockTTL:     time.Duration(utils.GetEnvAsInt("CAPSULE_BUILD_LOCK_MINUTES", 30, log)) * time.Minute,
		CleanupBatchSize: utils.GetEnvAsInt("CAPSULE_CLEANUP_BATCH_SIZE", 200, log),
		GraphVersion:     utils.GetEnv("GRAPH_VERSION", "g1", log),
		LexiconVersion:   utils.GetEnv("LEXICON_VERSION", "l1", log),
	}
}
