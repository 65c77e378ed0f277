package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// HashAlgorithms is a list of supported hashing algorithms.
var HashAlgorithms = []string{"md5", "sha1", "sha256", "sha512"}

// DefaultAlgo is used for document checksums when none is requested.
const DefaultAlgo = "sha256"

// IsValidHashAlgo checks if the provided algorithm string is supported.
func IsValidHashAlgo(algo string) bool {
	for _, validAlgo := range HashAlgorithms {
		if strings.ToLower(algo) == validAlgo {
			return true
		}
	}
	return false
}

// New returns a fresh hash for algo.
func New(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// Writer forwards writes to an underlying writer and hashes everything written.
type Writer struct {
	w io.Writer
	h hash.Hash
	n int64
}

// NewWriter wraps w. Pass a nil w to only hash.
func NewWriter(w io.Writer, algo string) (*Writer, error) {
	h, err := New(algo)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = io.Discard
	}
	return &Writer{w: w, h: h}, nil
}

func (hw *Writer) Write(p []byte) (int, error) {
	n, err := hw.w.Write(p)
	hw.h.Write(p[:n])
	hw.n += int64(n)
	return n, err
}

// Sum returns the hex digest of everything written so far.
func (hw *Writer) Sum() string {
	return hex.EncodeToString(hw.h.Sum(nil))
}

// Written returns the number of bytes written.
func (hw *Writer) Written() int64 { return hw.n }

// GenerateHash calculates the hash of a file using the specified algorithm.
func GenerateHash(filePath, algo string) (string, error) {
	hw, err := NewWriter(nil, algo)
	if err != nil {
		return "", err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(hw, file); err != nil {
		return "", err
	}
	return hw.Sum(), nil
}
