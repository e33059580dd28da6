// Package report renders a finished session summary as JSON, an HTML page
// and a PNG timeline.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/posture.report/internal/monitoring"
	"github.com/banshee-data/posture.report/internal/security"
	"github.com/banshee-data/posture.report/internal/session"
)

var logf = monitoring.Component("report")

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s session.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Files lists the paths written by WriteAll.
type Files struct {
	JSON string
	HTML string
	PNG  string
}

// BaseName is the file stem used for a session's reports.
func BaseName(s session.Summary) string {
	id := s.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s", security.SanitizeFilename(s.Activity), s.StartedAt.UTC().Format("20060102T150405"), id)
}

// WriteAll writes the JSON, HTML and PNG reports for s into dir, creating
// it if needed.
func WriteAll(dir string, s session.Summary) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("failed to create report dir: %w", err)
	}
	base := filepath.Join(dir, BaseName(s))
	files := Files{JSON: base + ".json", HTML: base + ".html", PNG: base + ".png"}

	writers := []struct {
		path   string
		render func(io.Writer, session.Summary) error
	}{
		{files.JSON, WriteJSON},
		{files.HTML, RenderHTML},
		{files.PNG, PlotTimeline},
	}
	for _, wr := range writers {
		if err := writeFile(wr.path, s, wr.render); err != nil {
			return Files{}, err
		}
	}
	logf("wrote reports for session %s to %s", s.SessionID, dir)
	return files, nil
}

func writeFile(path string, s session.Summary, render func(io.Writer, session.Summary) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f, s); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
