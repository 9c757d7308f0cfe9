/*
Package workers sizes worker pools from the CPU budget the process actually has.

In a container with a CPU limit, runtime.NumCPU reports the host's cores while
GOMAXPROCS reports the limit. Every helper here starts from GOMAXPROCS.

# Usage

	// file hashing: two workers per CPU, at most 32
	n := workers.ForIO(32)

	// explicit configuration wins, zero falls back to ForIO
	n := workers.Resolve(cfg.Workers, 32)

# Environment Variable Override

Set INDEX_WORKERS to a positive integer to pin the count. The limit passed by
the caller still applies. Invalid or non-positive values are ignored.
*/
package workers
