// Package scan finds story media in a directory and its subdirectories.
package scan

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the page kind a media file maps to.
type Kind int

const (
	Unknown Kind = iota
	ImageFile
	VideoFile
	TextFile
)

func (k Kind) String() string {
	switch k {
	case ImageFile:
		return "image"
	case VideoFile:
		return "video"
	case TextFile:
		return "text"
	default:
		return "unknown"
	}
}

// FileItem is one media file found by a scan.
type FileItem struct {
	Path string
	Info os.FileInfo
	Kind Kind
}

// FileItems is a slice of FileItem
type FileItems []FileItem

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// NewFileItem creates a new FileItem, classifying it by extension.
func NewFileItem(p string, info os.FileInfo) FileItem {
	return FileItem{Path: p, Info: info, Kind: KindOf(p)}
}

// FileScanner abstracts directory scanning so callers can substitute fakes.
type FileScanner interface {
	Run(dir string, logger LoggerFunc) <-chan FileItem
}

// FileScannerImpl scans the real file system.
type FileScannerImpl struct{}

// Run implements FileScanner.
func (FileScannerImpl) Run(dir string, logger LoggerFunc) <-chan FileItem {
	return Run(dir, logger)
}

// Run walks dir in lexical order and streams every non-empty media file with
// an absolute path. The channel is closed when the walk ends.
func Run(dir string, logger LoggerFunc) <-chan FileItem {
	out := make(chan FileItem, 64)
	go func() {
		defer close(out)
		root, err := filepath.Abs(dir)
		if err != nil {
			logMessage(logger, "Scan: cannot resolve %s: %v", dir, err)
			return
		}
		count := 0
		err = filepath.Walk(root, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				logMessage(logger, "Scan: skipping %s: %v", p, err)
				if fi != nil && fi.IsDir() && p != root {
					return filepath.SkipDir
				}
				return nil
			}
			if !fi.Mode().IsRegular() || fi.Size() == 0 {
				return nil
			}
			if KindOf(p) == Unknown {
				return nil
			}
			out <- NewFileItem(p, fi)
			count++
			return nil
		})
		if err != nil {
			logMessage(logger, "Scan of %s failed: %v", root, err)
			return
		}
		logMessage(logger, "Scan of %s found %d media files", root, count)
	}()
	return out
}

// Collect drains a scan and returns the files sorted by path.
func Collect(ch <-chan FileItem) FileItems {
	var items FileItems
	for it := range ch {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	return items
}

// KindOf classifies a file by extension.
func KindOf(n string) Kind {
	switch strings.ToLower(filepath.Ext(n)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return ImageFile
	case ".mp4", ".mov", ".webm", ".m4v":
		return VideoFile
	case ".txt":
		return TextFile
	default:
		return Unknown
	}
}

func logMessage(logger LoggerFunc, format string, args ...interface{}) {
	if logger != nil {
		logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}
