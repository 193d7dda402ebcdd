// Package hasher computes content digests used for duplicate detection
// and sync comparison.
package hasher

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ChunkSize is the read size for both quick and full hashing. The quick
// hash covers exactly the first chunk of a file.
const ChunkSize = 8192

// Algorithm selects the digest function behind the Hasher interface.
type Algorithm string

const (
	// AlgorithmBlake2b is the default content digest.
	AlgorithmBlake2b Algorithm = "blake2b"
)

// Hasher computes hex digests of file contents. Safe for concurrent use
// on disjoint paths; it holds no per-call state.
type Hasher struct {
	newHash func() (hash.Hash, error)
}

// New returns a Hasher for the given algorithm.
func New(algorithm Algorithm) (*Hasher, error) {
	switch algorithm {
	case AlgorithmBlake2b, "":
		return &Hasher{newHash: func() (hash.Hash, error) {
			return blake2b.New256(nil)
		}}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %s", algorithm)
	}
}

// MustNew is New for the default algorithm; it panics only on a
// programming error in the algorithm table.
func MustNew() *Hasher {
	h, err := New(AlgorithmBlake2b)
	if err != nil {
		panic(err)
	}
	return h
}

// QuickHash digests only the first chunk of the file. It is a pre-filter:
// equal full hashes imply equal quick hashes, so a quick-hash mismatch is
// enough to discard a candidate pair, but a match proves nothing.
func (h *Hasher) QuickHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hs, err := h.newHash()
	if err != nil {
		return "", err
	}

	buf := make([]byte, ChunkSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	hs.Write(buf[:n])

	return hex.EncodeToString(hs.Sum(nil)), nil
}

// FullHash digests the entire file, streamed in fixed-size chunks.
func (h *Hasher) FullHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hs, err := h.newHash()
	if err != nil {
		return "", err
	}

	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(hs, f, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	return hex.EncodeToString(hs.Sum(nil)), nil
}

// VerifyIdentical is an authoritative byte-for-byte comparison. It is the
// mandatory guard before any destructive action on a heuristically matched
// duplicate: a hash collision or a bad suffix guess must never cost data.
func VerifyIdentical(pathA, pathB string) (bool, error) {
	infoA, err := os.Stat(pathA)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathA, err)
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", pathB, err)
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	fa, err := os.Open(pathA)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", pathA, err)
	}
	defer fa.Close()
	fb, err := os.Open(pathB)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", pathB, err)
	}
	defer fb.Close()

	bufA := make([]byte, ChunkSize)
	bufB := make([]byte, ChunkSize)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			if errB == io.EOF || errB == io.ErrUnexpectedEOF {
				return true, nil
			}
			return false, nil
		}
		if errA != nil {
			return false, fmt.Errorf("read %s: %w", pathA, errA)
		}
		if errB != nil {
			return false, fmt.Errorf("read %s: %w", pathB, errB)
		}
	}
}
