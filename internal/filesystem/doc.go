/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

# Purpose

Image trees are often NFS mounts. This package wraps os.Stat and os.Open
with retry logic for ESTALE (stale file handle) errors, which are transient on NFS
when files are replaced server-side while a scan is running.

# Key Features

  - Automatic retry with exponential backoff for NFS ESTALE errors (errno 116)
  - Configurable retry attempts (default: 3) and backoff timings
  - Any other error is returned immediately
  - Operation, retry and read metrics reported through an Observer

# Usage

	f, err := filesystem.OpenWithRetry("/nfs/mount/photo.jpg", filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

# Metrics

The metrics package implements Observer. Install it once at startup:

	filesystem.SetObserver(metrics.NewFilesystemObserver())

A RetryConfig may carry its own Observer, which takes precedence.
*/
package filesystem
