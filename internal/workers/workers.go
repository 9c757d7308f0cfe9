package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "INDEX_WORKERS"

// Count returns the number of workers for a task. It follows the container
// CPU limit through GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit caps the result. Use 0 for no limit.
//
// INDEX_WORKERS, when set to a positive integer, overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
// Fingerprinting is read-bound, so the scanner sizes its pool with this.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Resolve returns configured when it is positive, otherwise ForIO(limit).
func Resolve(configured, limit int) int {
	if configured > 0 {
		return configured
	}
	return ForIO(limit)
}
