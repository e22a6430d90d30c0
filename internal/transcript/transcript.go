// Package transcript records the human-readable conversation log and writes
// the per-session files.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stemsi/interview-agent/internal/model"
)

const (
	lineTimeFormat = "2006-01-02 15:04:05"
	fileTimeFormat = "20060102_150405"
)

// Logger accumulates transcript lines. It is safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	lines []string
	now   func() time.Time
}

// NewLogger returns an empty transcript. A nil clock uses time.Now.
func NewLogger(now func() time.Time) *Logger {
	if now == nil {
		now = time.Now
	}
	return &Logger{now: now}
}

// LogTurn appends "[timestamp] ROLE: text".
func (l *Logger) LogTurn(role model.Role, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf("[%s] %s: %s", l.now().Format(lineTimeFormat), strings.ToUpper(string(role)), text))
}

// Lines returns a copy of the transcript so far.
func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// SaveTranscript writes the transcript lines to path.
func (l *Logger) SaveTranscript(path string) error {
	content := strings.Join(l.Lines(), "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// SaveSessionJSON writes {session, summary, saved_at} to path.
func (l *Logger) SaveSessionJSON(path string, session model.Session, summary *model.Summary) error {
	payload := model.SessionFile{
		Session: session,
		Summary: summary,
		SavedAt: l.now(),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Paths is the pair of files saved for one session.
type Paths struct {
	Transcript string
	Session    string
}

// SessionPaths creates dir and returns timestamped file paths inside it.
func (l *Logger) SessionPaths(dir string) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create session dir: %w", err)
	}
	stamp := l.now().Format(fileTimeFormat)
	return Paths{
		Transcript: filepath.Join(dir, stamp+"_transcript.txt"),
		Session:    filepath.Join(dir, stamp+"_session.json"),
	}, nil
}
