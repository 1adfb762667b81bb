// Package scanner provides recursive directory scanning for image files.
// It walks a root with fastwalk, keeps only files whose extension is on the
// image allow-list, and collects per-entry errors without aborting the scan.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"

	"imgindex/pkg/imgindex/logging"
	"imgindex/pkg/imgindex/types"
)

// ErrRootMissing indicates the scan root does not exist or is not a directory.
var ErrRootMissing = errors.New("scan root missing or not a directory")

// Options configures the scanner behavior.
type Options struct {
	// Root is the starting directory for the scan.
	Root string

	// Exclude contains directory names skipped during traversal.
	Exclude []string
}

// FileEntry is one discovered image file.
type FileEntry struct {
	// Path is the absolute path to the file.
	Path string

	// RelPath is the path relative to the scan root, forward-slash form.
	RelPath string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the file's modification time.
	ModTime time.Time
}

// ScanError pairs a path with the error encountered there.
type ScanError struct {
	Path  string
	Error string
}

// Result contains the aggregated results of a scan.
type Result struct {
	// Files contains all image files found under the root.
	Files []FileEntry

	// DirsScanned is the total number of directories traversed.
	DirsScanned int64

	// FilesScanned is the total number of files examined.
	FilesScanned int64

	// FilesSkipped counts regular files passed over because their
	// extension is not on the image allow-list.
	FilesSkipped int64

	// Errors contains per-entry errors. They never abort the scan.
	Errors []ScanError
}

// Scanner walks a directory tree collecting image files.
type Scanner struct {
	opts Options
	root string

	dirsScanned  atomic.Int64
	filesScanned atomic.Int64
	filesSkipped atomic.Int64

	resultsMu sync.Mutex
	results   []FileEntry

	errorsMu sync.Mutex
	errors   []ScanError
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Scan walks the root and returns every image file found. A missing root is
// the only fatal condition; unreadable subtrees are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root

	logger := logging.Get("scanner")
	logger.Debug("starting scan", "root", root)

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkErr := fastwalk.Walk(&conf, root, s.walkCallback(ctx))
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return nil, walkErr
	}

	return &Result{
		Files:        s.results,
		DirsScanned:  s.dirsScanned.Load(),
		FilesScanned: s.filesScanned.Load(),
		FilesSkipped: s.filesSkipped.Load(),
		Errors:       s.errors,
	}, nil
}

// walkCallback returns the callback function for fastwalk.Walk.
func (s *Scanner) walkCallback(ctx context.Context) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fastwalk.ErrSkipFiles
		default:
		}

		// Handle errors gracefully - log and continue.
		if err != nil {
			s.addError(path, err)
			return nil
		}

		if d.IsDir() {
			if s.isExcluded(d.Name()) && path != s.root {
				return fastwalk.SkipDir
			}
			s.dirsScanned.Add(1)
			return nil
		}

		if d.Type().IsRegular() {
			s.processFile(path, d)
		}

		return nil
	}
}

// processFile records a regular file when its extension is on the allow-list.
func (s *Scanner) processFile(path string, d fs.DirEntry) {
	s.filesScanned.Add(1)

	if !types.IsImageFile(path) {
		s.filesSkipped.Add(1)
		return
	}

	info, err := d.Info()
	if err != nil {
		s.addError(path, err)
		return
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		s.addError(path, err)
		return
	}

	entry := FileEntry{
		Path:    path,
		RelPath: types.NormalizePath(rel),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	s.resultsMu.Lock()
	s.results = append(s.results, entry)
	s.resultsMu.Unlock()
}

// isExcluded reports whether a directory name is on the exclusion list.
func (s *Scanner) isExcluded(name string) bool {
	for _, excluded := range s.opts.Exclude {
		if name == excluded {
			return true
		}
	}
	return false
}

// addError records a scan error thread-safely.
func (s *Scanner) addError(path string, err error) {
	logging.Get("scanner").Warn("scan error", "path", path, "error", err)

	s.errorsMu.Lock()
	s.errors = append(s.errors, ScanError{Path: path, Error: err.Error()})
	s.errorsMu.Unlock()
}

// validateRoot resolves the root path to absolute and verifies it exists.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", ErrRootMissing
	}

	return root, nil
}
