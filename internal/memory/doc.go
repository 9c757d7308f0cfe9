// Package memory configures Go's soft memory limit for the indexer.
//
// A full scan holds one record per eligible file in memory before it is
// reconciled against the store, so very large trees in a container can
// approach the container limit. Unlike GOMAXPROCS, GOMEMLIMIT is not derived
// from cgroup limits automatically. [Configure] sets it from the configured
// memory limit or the MEMORY_LIMIT environment variable.
//
// # Environment Variables
//
//   - GOMEMLIMIT: Standard Go environment variable. If set, takes precedence
//     over all other configuration.
//
//   - MEMORY_LIMIT: Container memory limit in bytes, typically set through the
//     Kubernetes Downward API. Used when no limit is configured.
//
//   - MEMORY_RATIO: Share of the limit given to the Go heap, between 0.0 and
//     1.0. Default is 0.85.
//
// # Kubernetes Example
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
package memory
