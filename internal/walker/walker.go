// Package walker lists the ingestible documents in a case folder.
package walker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DefaultMaxFileSize is the largest document accepted (50 MB).
const DefaultMaxFileSize int64 = 50 << 20

// FileInfo holds metadata about a single document found in a folder.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root.
	Size        int64
	Format      string // One of the Format constants.
	ContentHash string // SHA-256 hex digest of the file content.
	// Err is set on entries kept by KeepRejected: the file is too large
	// or could not be read.
	Err error
}

// WalkerConfig controls the behaviour of the Walk function.
type WalkerConfig struct {
	RootDir     string
	Include     []string // Glob patterns; only matching files are kept.
	Exclude     []string // Glob patterns; matching files are dropped.
	Recursive   bool     // Descend into subdirectories.
	MaxFileSize int64    // 0 means DefaultMaxFileSize.
	// KeepRejected returns oversized and unreadable documents with Err
	// set instead of dropping them.
	KeepRejected bool
}

// ErrNotDirectory is returned when the root is missing or not a directory.
var ErrNotDirectory = errors.New("walker: not a directory")

// ErrTooLarge marks a document over the size limit.
var ErrTooLarge = errors.New("file too large")

// Walk returns every supported document under config.RootDir, sorted by
// relative path. Unsupported, hidden and ignored files are skipped.
// Oversized and unreadable files are skipped too unless KeepRejected is
// set.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotDirectory, config.RootDir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, config.RootDir)
	}

	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	exclude := append(loadIgnoreFile(filepath.Join(root, IgnoreFile)), config.Exclude...)

	var files []FileInfo

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			// Skip entries we cannot read instead of aborting.
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !config.Recursive || ShouldExcludeDir(name) || IsHidden(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || IsHidden(name) {
			return nil
		}
		format := DetectFormat(name)
		if format == "" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !MatchesInclude(relPath, config.Include) || MatchesExclude(relPath, exclude) {
			return nil
		}

		fi := FileInfo{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Format:  format,
		}
		reject := func(err error) error {
			if config.KeepRejected {
				fi.Err = err
				files = append(files, fi)
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return reject(err)
		}
		fi.Size = info.Size()
		if fi.Size > maxSize {
			return reject(fmt.Errorf("%w: %d bytes, limit is %d", ErrTooLarge, fi.Size, maxSize))
		}

		fi.ContentHash, err = hashFile(path)
		if err != nil {
			return reject(err)
		}

		files = append(files, fi)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// HashBytes returns the SHA-256 hex digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
