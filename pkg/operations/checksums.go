// Package operations holds file-level jobs on downloaded documents.
package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/habedi/rentdesk/pkg/hasher"
	"github.com/habedi/rentdesk/pkg/pool"
	"github.com/rs/zerolog/log"
)

// Verification states.
const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusMissing  = "no checksum"
	StatusError    = "error"
)

// HashResult is the outcome of checking one file.
type HashResult struct {
	File     string
	Hash     string
	Expected string
	Status   string
	Err      error
}

// DefaultExclusions are never treated as documents.
var DefaultExclusions = []string{".DS_Store", "Thumbs.db", "desktop.ini", "*.csv", "*.md5", "*.sha1", "*.sha256", "*.sha512"}

// SidecarPath is where the checksum of file is kept, e.g. lease.pdf.sha256.
func SidecarPath(file, algo string) string {
	return file + "." + strings.ToLower(algo)
}

// WriteSidecar stores sum next to file in the "<sum>  <name>" layout sha256sum uses.
func WriteSidecar(file, algo, sum string) error {
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(file))
	if err := os.WriteFile(SidecarPath(file, algo), []byte(line), 0o644); err != nil {
		return fmt.Errorf("failed to write checksum for %s: %w", file, err)
	}
	return nil
}

func readSidecar(file, algo string) (string, error) {
	raw, err := os.ReadFile(SidecarPath(file, algo))
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty checksum file for %s", file)
	}
	return strings.ToLower(fields[0]), nil
}

// FindFiles walks dir and returns the files not matched by exclusions.
func FindFiles(dir string, recursive bool, exclusions []string) ([]string, error) {
	var files []string
	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		for _, pattern := range exclusions {
			if matched, _ := filepath.Match(pattern, info.Name()); matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, walkErr
}

// VerifyFiles hashes files on workers goroutines and compares each hash with
// its sidecar. Results come back in the order of files.
func VerifyFiles(ctx context.Context, files []string, algo string, workers int) []HashResult {
	results := make([]HashResult, len(files))
	index := make(map[string]int, len(files))
	for i, f := range files {
		index[f] = i
		results[i] = HashResult{File: f}
	}

	var mu sync.Mutex
	pool.Run(ctx, files, workers, func(ctx context.Context, file string) error {
		r := verifyFile(file, algo)
		mu.Lock()
		results[index[file]] = r
		mu.Unlock()
		return r.Err
	})
	return results
}

func verifyFile(file, algo string) HashResult {
	r := HashResult{File: file}
	sum, err := hasher.GenerateHash(file, algo)
	if err != nil {
		r.Status, r.Err = StatusError, err
		return r
	}
	r.Hash = sum

	expected, err := readSidecar(file, algo)
	switch {
	case os.IsNotExist(err):
		r.Status = StatusMissing
	case err != nil:
		r.Status, r.Err = StatusError, err
	case expected == sum:
		r.Status, r.Expected = StatusOK, expected
	default:
		r.Status, r.Expected = StatusMismatch, expected
		log.Warn().Str("file", file).Str("expected", expected).Str("actual", sum).Msg("Checksum mismatch")
	}
	return r
}

// CleanSidecars removes checksum files of every supported algorithm and
// returns the removed paths, sorted.
func CleanSidecars(dir string, recursive bool) ([]string, error) {
	var removed []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		for _, algo := range hasher.HashAlgorithms {
			if strings.HasSuffix(info.Name(), "."+algo) {
				if err := os.Remove(path); err != nil {
					log.Warn().Err(err).Str("path", path).Msg("Failed to remove checksum file")
				} else {
					removed = append(removed, path)
				}
				break
			}
		}
		return nil
	})
	sort.Strings(removed)
	return removed, err
}
