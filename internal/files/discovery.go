package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"oipulse/internal/dataprocessing"
)

// ReportFile is a discovered daily report file with its trading date.
type ReportFile struct {
	Path    string
	Name    string
	Date    time.Time
	Size    int64
	ModTime time.Time
}

// Discovery finds daily report files under a base directory.
type Discovery struct {
	basePath string
	logger   *slog.Logger
}

// NewDiscovery creates a new file discovery instance.
func NewDiscovery(basePath string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{basePath: basePath, logger: logger}
}

// FindReportFiles finds all CSV and XLSX report files in dir, resolves
// each file's trading date and returns them sorted oldest first so
// period-over-period values build up in trading order. Files whose date
// cannot be determined are skipped with a warning.
func (d *Discovery) FindReportFiles(dir string) ([]ReportFile, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []ReportFile
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(fullPath, entry.Name())
		date, err := d.peekDate(path, entry.Name())
		if err != nil {
			d.logger.Warn("Could not determine report date, skipping file",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}

		files = append(files, ReportFile{
			Path:    path,
			Name:    entry.Name(),
			Date:    date,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Date.Before(files[j].Date)
	})

	return files, nil
}

// Latest returns the newest report file in dir, or an error when the
// directory holds none.
func (d *Discovery) Latest(dir string) (ReportFile, error) {
	files, err := d.FindReportFiles(dir)
	if err != nil {
		return ReportFile{}, err
	}
	if len(files) == 0 {
		return ReportFile{}, fmt.Errorf("no report files in %s", dir)
	}
	return files[len(files)-1], nil
}

func (d *Discovery) peekDate(path, name string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	date, _, err := dataprocessing.PeekDate(name, f)
	return date, err
}
