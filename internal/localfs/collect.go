// Package localfs enumerates local files for upload and watches a folder
// for new arrivals. It is the file-enumeration collaborator of the
// uploader: it produces ordered, readable sources with known sizes and
// NFC-normalized destination names.
package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// skipNames are entries never staged for upload: OS metadata droppings and
// repo housekeeping files.
var skipNames = map[string]bool{
	".DS_Store":  true,
	".localized": true,
	".gitignore": true,
}

// File is one local file staged for upload. It implements the uploader's
// Source interface: the destination name is NFC-normalized (macOS reports
// NFD names, remote stores expect NFC), the size is captured at collection
// time, and the handle is opened lazily by the dispatching task.
type File struct {
	path string
	name string
	size int64
}

// Name returns the NFC-normalized destination file name.
func (f *File) Name() string { return f.name }

// Size returns the byte length captured at collection time.
func (f *File) Size() int64 { return f.size }

// Open opens the underlying file for reading.
func (f *File) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// LocalPath returns the absolute local path, for logging and history.
func (f *File) LocalPath() string { return f.path }

// Collect returns the regular files directly inside dir, sorted by name.
// Subdirectories, symlinks, and skipNames entries are ignored. A "~"
// prefix in dir is expanded to the user home directory by the caller.
func Collect(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("localfs: listing %s: %w", dir, err)
	}

	files := make([]*File, 0, len(entries))

	for _, entry := range entries {
		if !entry.Type().IsRegular() || skipNames[entry.Name()] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("localfs: stat %s: %w", entry.Name(), err)
		}

		files = append(files, &File{
			path: filepath.Join(dir, entry.Name()),
			name: norm.NFC.String(entry.Name()),
			size: info.Size(),
		})
	}

	return files, nil
}

// Stat builds a File for a single known path. Used by the watcher, which
// learns about files one event at a time instead of via directory listing.
func Stat(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("localfs: stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("localfs: %s is not a regular file", path)
	}

	return &File{
		path: path,
		name: norm.NFC.String(filepath.Base(path)),
		size: info.Size(),
	}, nil
}
