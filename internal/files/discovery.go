package files

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	apperrors "cellpeak/internal/errors"
)

// lockFilePrefix marks the owner files spreadsheet editors leave next to
// open workbooks.
const lockFilePrefix = "~$"

// InputExtensions lists the recording formats the batch pipeline reads.
var InputExtensions = []string{".csv", ".xlsx"}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance. Relative directories
// passed to its methods are resolved against basePath.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindInputs returns the recordings in dir sorted by file name.
func (d *Discovery) FindInputs(dir string) ([]FileInfo, error) {
	return d.find(dir, IsInputFile)
}

// FindFilesByPattern returns the recordings in dir whose names match a glob
// pattern, sorted by file name.
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, apperrors.NewAppValidationError("invalid pattern " + pattern)
	}
	return d.find(dir, func(name string) bool {
		ok, _ := filepath.Match(pattern, name)
		return ok && IsInputFile(name)
	})
}

// IsInputFile reports whether name looks like a readable recording.
func IsInputFile(name string) bool {
	if strings.HasPrefix(name, lockFilePrefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range InputExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (d *Discovery) find(dir string, match func(name string) bool) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("directory " + fullPath)
		}
		return nil, apperrors.NewStorageError("failed to read directory "+fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Paths returns the paths of the given files in order.
func Paths(files []FileInfo) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
