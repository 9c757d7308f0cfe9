// Package fingerprint computes the content hash and modification time of a file.
//
// Files are streamed through the hash with a fixed buffer, so memory use does
// not grow with file size. Opens go through the filesystem package, which
// retries NFS stale handle errors. Every failure wraps database.ErrIO so the
// scanner can skip the file and continue.
package fingerprint
