package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/dustin/go-humanize"

	"image-index/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the memory limit given to the Go heap.
	// The remainder covers SQLite's page cache, goroutine stacks and read buffers.
	DefaultMemoryRatio = 0.85
)

const (
	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMEMORYLIMIT = "MEMORY_LIMIT"
	sourceConfig      = "config"
	sourceNone        = "none"
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Configured indicates whether a Go memory limit is in effect
	Configured bool

	// Source indicates where the configuration came from
	Source string // "GOMEMLIMIT", "config", "MEMORY_LIMIT", or "none"

	// ContainerLimit is the total memory limit in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the configured Go soft limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the memory ratio used (0 if not applicable)
	Ratio float64
}

// Configure sets the Go soft memory limit. Call it early in main before
// large allocations such as the scan snapshot.
//
// Precedence, highest first:
//   - GOMEMLIMIT: read by the runtime itself; reported, never overridden
//   - limit: the configured memory limit ("2GiB", "512MB" or plain bytes)
//   - MEMORY_LIMIT: container limit in bytes (Kubernetes Downward API)
//
// MEMORY_RATIO (default 0.85) selects the share of the limit given to the heap.
func Configure(limit string) ConfigResult {
	result := ConfigResult{Source: sourceNone}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			result.Configured = true
			result.Source = sourceGOMEMLIMIT
			result.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	source := sourceConfig
	if limit == "" {
		limit = os.Getenv("MEMORY_LIMIT")
		source = sourceMEMORYLIMIT
	}
	if limit == "" {
		logging.Debug("No memory limit configured, GOMEMLIMIT will not be set")
		return result
	}

	bytes, err := humanize.ParseBytes(limit)
	if err != nil || bytes == 0 || bytes > math.MaxInt64 {
		logging.Warn("Ignoring invalid memory limit %q", limit)
		return result
	}
	memLimit := int64(bytes)
	result.ContainerLimit = memLimit

	ratio := DefaultMemoryRatio
	if ratioStr := os.Getenv("MEMORY_RATIO"); ratioStr != "" {
		if parsedRatio, err := strconv.ParseFloat(ratioStr, 64); err == nil {
			if parsedRatio > 0 && parsedRatio <= 1.0 {
				ratio = parsedRatio
			} else {
				logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
			}
		} else {
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		}
	}
	result.Ratio = ratio

	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = source
	result.GoMemLimit = goMemLimit

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s limit)",
		humanize.IBytes(uint64(goMemLimit)),
		ratio*100,
		humanize.IBytes(uint64(memLimit)),
	)

	return result
}
