package transfer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitflow/internal/constants"
	"github.com/julianstephens/habitflow/internal/logger"
)

const (
	// MaxExports is the number of archived exports kept by Save
	MaxExports = 14
	// ExportDirName is the archive directory under the config dir
	ExportDirName = "exports"

	stampMinute = "20060102-1504"
	stampSecond = "20060102-150405"
)

// ExportInfo describes an archived export file
type ExportInfo struct {
	Path      string
	Format    Format
	Timestamp time.Time
	Size      int64
}

// Archive keeps timestamped export files in one directory
type Archive struct {
	dir string
	now func() time.Time
}

// NewArchive returns an archive rooted at configDir/exports
func NewArchive(configDir string) *Archive {
	return &Archive{dir: filepath.Join(configDir, ExportDirName), now: time.Now}
}

// Dir returns the archive directory
func (a *Archive) Dir() string {
	return a.dir
}

// nextPath picks an unused file name, adding seconds and then a counter on collision
func (a *Archive) nextPath(format Format) (string, error) {
	now := a.now()
	name := func(stamp string, counter int) string {
		if counter > 0 {
			stamp = fmt.Sprintf("%s-%d", stamp, counter)
		}
		return filepath.Join(a.dir, constants.ExportFilePrefix+stamp+format.Ext())
	}

	path := name(now.Format(stampMinute), 0)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	stamp := now.Format(stampSecond)
	for counter := 0; counter <= 100; counter++ {
		path = name(stamp, counter)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique export filename")
}

// Save writes doc to a new archive file and prunes the oldest beyond MaxExports
func (a *Archive) Save(doc Document, format Format) (string, error) {
	if err := os.MkdirAll(a.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path, err := a.nextPath(format)
	if err != nil {
		return "", err
	}
	if err := WriteFile(path, doc, format); err != nil {
		return "", err
	}
	if err := a.rotate(); err != nil {
		logger.Warn("Failed to rotate old exports", "error", err)
	}
	return path, nil
}

// WriteFile encodes doc to path through a temporary file and rename
func WriteFile(path string, doc Document, format Format) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := Encode(f, doc, format); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize export file: %w", err)
	}
	return nil
}

// ReadFile decodes the document at path, choosing the format by extension
func ReadFile(path string) (Document, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()
	return Decode(f, format)
}

// parseStamp reads the timestamp from an archive file name, ignoring a
// trailing collision counter.
func parseStamp(stamp string) (time.Time, bool) {
	parts := strings.Split(stamp, "-")
	if len(parts) > 2 {
		stamp = strings.Join(parts[:2], "-")
	}
	if t, err := time.Parse(stampMinute, stamp); err == nil {
		return t, true
	}
	if t, err := time.Parse(stampSecond, stamp); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List returns archived exports, newest first
func (a *Archive) List() ([]ExportInfo, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return []ExportInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read export directory: %w", err)
	}

	var out []ExportInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, constants.ExportFilePrefix) {
			continue
		}
		ext := filepath.Ext(name)
		format, err := ParseFormat(ext)
		if err != nil || ext == "" {
			continue
		}
		stamp, ok := parseStamp(strings.TrimSuffix(strings.TrimPrefix(name, constants.ExportFilePrefix), ext))
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, ExportInfo{
			Path:      filepath.Join(a.dir, name),
			Format:    format,
			Timestamp: stamp,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Path > out[j].Path
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// Latest returns the most recent archived export
func (a *Archive) Latest() (ExportInfo, error) {
	exports, err := a.List()
	if err != nil {
		return ExportInfo{}, err
	}
	if len(exports) == 0 {
		return ExportInfo{}, fmt.Errorf("no exports found in %s", a.dir)
	}
	return exports[0], nil
}

func (a *Archive) rotate() error {
	exports, err := a.List()
	if err != nil {
		return err
	}
	for i := MaxExports; i < len(exports); i++ {
		if err := os.Remove(exports[i].Path); err != nil {
			return fmt.Errorf("failed to remove old export %s: %w", exports[i].Path, err)
		}
	}
	return nil
}
