// Package scanner walks a directory tree and fingerprints every eligible file.
//
// # Eligibility
//
// A file is eligible when it is a regular file whose extension the configured
// mediatypes.Matcher accepts (".jpg" by default). Symlinks are never followed,
// so symlink cycles cannot occur. Devices, sockets and pipes are ignored.
// Optionally, dot files and dot directories are skipped, and doublestar
// patterns exclude paths relative to the root:
//
//	s, err := scanner.New("/data/catalog", scanner.Options{
//	    SkipHidden: true,
//	    Exclude:    []string{"**/thumbs/**", "tmp/*"},
//	})
//
// # Lazy and parallel forms
//
// Walk returns an iter.Seq2 that fingerprints one file per step. Scan fans
// fingerprinting out over a bounded errgroup pool and returns a complete
// Snapshot once every worker has finished.
//
// # Errors
//
// A missing root, or a root that is not a directory, is database.ErrNotFound.
// A file or directory that cannot be read is recorded in Snapshot.Skipped and
// the scan continues. An empty tree is an empty Snapshot.
package scanner
