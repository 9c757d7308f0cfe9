package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"image-index/internal/database"
	"image-index/internal/filesystem"
)

// DefaultChunkSize is the read buffer used when hashing file contents.
const DefaultChunkSize = 1 << 20

// Algorithm names a content hash function.
type Algorithm string

const (
	// SHA256 is the default content hash.
	SHA256 Algorithm = "sha256"
	// BLAKE2b is BLAKE2b-256.
	BLAKE2b Algorithm = "blake2b"
)

// ParseAlgorithm maps a configuration value to an Algorithm. Empty selects SHA256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE2b, "blake2b-256":
		return BLAKE2b, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q (want sha256 or blake2b)", s)
	}
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case "", SHA256:
		return sha256.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", a)
	}
}

// Fingerprint is the identity of one file's state at read time.
type Fingerprint struct {
	ContentHash string
	ModifiedAt  time.Time
	Size        int64
}

// Fingerprinter hashes files. The zero value uses SHA256, DefaultChunkSize
// and DefaultRetryConfig.
type Fingerprinter struct {
	Algorithm Algorithm
	ChunkSize int
	Retry     *filesystem.RetryConfig
}

// New returns a Fingerprinter for the given algorithm.
func New(algorithm Algorithm) *Fingerprinter {
	return &Fingerprinter{Algorithm: algorithm}
}

// Fingerprint streams the file at path through the hash and reads its
// modification time from the open handle. Any failure wraps database.ErrIO.
func (f *Fingerprinter) Fingerprint(path string) (Fingerprint, error) {
	h, err := f.Algorithm.newHash()
	if err != nil {
		return Fingerprint{}, err
	}

	retry := filesystem.DefaultRetryConfig()
	if f.Retry != nil {
		retry = *f.Retry
	}

	file, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: open %s: %w", database.ErrIO, path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: stat %s: %w", database.ErrIO, path, err)
	}
	if !info.Mode().IsRegular() {
		return Fingerprint{}, fmt.Errorf("%w: %s is not a regular file", database.ErrIO, path)
	}

	chunk := f.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	start := time.Now()
	n, err := io.CopyBuffer(h, file, make([]byte, chunk))
	if obs := retry.Observe(); obs != nil {
		obs.ObserveRead(n, time.Since(start).Seconds())
	}
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: read %s: %w", database.ErrIO, path, err)
	}

	return Fingerprint{
		ContentHash: hex.EncodeToString(h.Sum(nil)),
		ModifiedAt:  info.ModTime(),
		Size:        n,
	}, nil
}

// Record fingerprints path and returns it as an index record keyed by path.
func (f *Fingerprinter) Record(path string) (database.ImageRecord, error) {
	fp, err := f.Fingerprint(path)
	if err != nil {
		return database.ImageRecord{}, err
	}
	return database.ImageRecord{
		URI:         path,
		ContentHash: fp.ContentHash,
		ModifiedAt:  fp.ModifiedAt,
	}, nil
}
