// Package artifact locates the archive produced by the packaging step.
//
// The selection rule is "most recently modified regular file whose name ends
// with the archive suffix". Stale archives from earlier runs may share the
// directory; the newest one wins, and when two files carry the same
// modification time the lexically greater name is chosen so the result does
// not depend on directory iteration order.
//
// Locator is an interface so tests can substitute an in-memory filesystem
// (testing/fstest.MapFS) instead of relying on real timestamps.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when no file in the directory matches the suffix.
var ErrNotFound = errors.New("no package file found")

// Artifact describes one archive file on disk.
type Artifact struct {
	// Path is the file's location, joined from the searched directory.
	Path string

	// Name is the base name of the file.
	Name string

	// Size is the file size in bytes.
	Size int64

	// Mode holds the permission bits and type.
	Mode fs.FileMode

	// ModTime is the last modification time.
	ModTime time.Time
}

// Listing renders the artifact the way a long directory listing does:
// permissions, size, timestamp and path.
func (a Artifact) Listing() string {
	return fmt.Sprintf("%s %10d %s %s", a.Mode, a.Size, a.ModTime.Format("Jan _2 15:04"), a.Path)
}

// Locator finds the newest archive in a directory.
type Locator interface {
	// Newest returns the most recently modified file in dir whose name ends
	// with suffix. It returns an error wrapping ErrNotFound when there is
	// none.
	Newest(dir, suffix string) (*Artifact, error)
}

// FSLocator implements Locator over an fs.FS.
type FSLocator struct {
	open func(dir string) fs.FS
}

// NewFSLocator returns a Locator reading the host filesystem.
func NewFSLocator() *FSLocator {
	return &FSLocator{open: os.DirFS}
}

// NewFSLocatorFromFS returns a Locator that reads fsys regardless of the
// directory passed to Newest. The directory is still used to build
// Artifact.Path.
func NewFSLocatorFromFS(fsys fs.FS) *FSLocator {
	return &FSLocator{open: func(string) fs.FS { return fsys }}
}

// Newest implements Locator. Only the top level of dir is searched.
func (l *FSLocator) Newest(dir, suffix string) (*Artifact, error) {
	entries, err := fs.ReadDir(l.open(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var newest *Artifact
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}

		// The file may have been removed between ReadDir and Info.
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		candidate := &Artifact{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}
		if newest == nil || isNewer(candidate, newest) {
			newest = candidate
		}
	}

	if newest == nil {
		return nil, fmt.Errorf("%w matching *%s in %s", ErrNotFound, suffix, dir)
	}
	return newest, nil
}

func isNewer(a, b *Artifact) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	return a.Name > b.Name
}
