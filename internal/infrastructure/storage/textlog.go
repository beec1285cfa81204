package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ArxivTranslator/internal/domain"
	"ArxivTranslator/internal/ports"
)

const (
	filePrefix     = "translated_abstracts"
	dateLayout     = "2006-01-02"
	stampLayout    = "2006-01-02_15-04-05"
	separatorWidth = 80
)

var modelSanitizer = strings.NewReplacer("/", "-", `\`, "-", " ", "_")

// TextLog appends translation records to plain text files under one directory.
type TextLog struct {
	dir string
}

var _ ports.Recorder = (*TextLog)(nil)

// NewTextLog roots all output files at dir.
func NewTextLog(dir string) *TextLog {
	return &TextLog{dir: dir}
}

// Path names the output file for a run. ModeNew puts the listing date before
// the model; ModeRecent puts the model before the run timestamp.
func (l *TextLog) Path(subject string, mode domain.ListingMode, stamp time.Time, model string) string {
	model = modelSanitizer.Replace(model)

	var name string
	if mode == domain.ModeNew {
		name = fmt.Sprintf("%s_%s_%s_%s.txt", filePrefix, subject, stamp.Format(dateLayout), model)
	} else {
		name = fmt.Sprintf("%s_%s_%s_%s.txt", filePrefix, subject, model, stamp.Format(stampLayout))
	}
	return filepath.Join(l.dir, name)
}

// Exists reports whether path is already on disk.
func (l *TextLog) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// Append writes one record block to path, creating the file and its
// directory when absent. The handle is closed before returning.
func (l *TextLog) Append(path string, entry domain.Entry) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if _, err := f.WriteString(FormatEntry(entry)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// FormatEntry renders the block written for one translated paper.
func FormatEntry(entry domain.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL:\n%s\n\n", entry.SourceURL)
	fmt.Fprintf(&b, "Title: %s\n\n", entry.Title)
	fmt.Fprintf(&b, "Original Abstract:\n%s\n\n", entry.Original)
	fmt.Fprintf(&b, "Translated Abstract:\n%s\n\n", entry.Translated)
	b.WriteString(strings.Repeat("=", separatorWidth))
	b.WriteString("\n\n")
	return b.String()
}
