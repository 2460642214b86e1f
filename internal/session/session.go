// Package session stores the single open clock-in interval on disk.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timecalc"
)

var (
	ErrClockedIn       = errors.New("already clocked in")
	ErrNotClockedIn    = errors.New("haven't clocked in")
	ErrInvalidSession  = errors.New("invalid session data")
	ErrInvalidDateTime = errors.New("invalid session date/time")
)

var validate = validator.New()

// Session is an open clock-in interval.
type Session struct {
	StartDate  string   `yaml:"start_date" validate:"required,datetime=2006-01-02"`
	StartTime  string   `yaml:"start_time" validate:"required,datetime=15:04"`
	Project    string   `yaml:"project" validate:"required"`
	Activities []string `yaml:"activities,omitempty,flow"`
	IssueURI   string   `yaml:"issue_uri,omitempty"`
	Notes      string   `yaml:"notes,omitempty"`
	User       string   `yaml:"user" validate:"required"`
}

// Start returns the moment the session was opened, in loc.
func (s *Session) Start(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(timecalc.DateLayout+" "+timecalc.ClockLayout, s.StartDate+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidDateTime, err)
	}
	return t, nil
}

// Time builds the time entry submitted on clock-out. Values derived from the
// session come first, then defaultActivity when the session recorded no
// activities, then revisions.
func (s *Session) Time(now time.Time, defaultActivity string, revisions model.Record) (model.Record, error) {
	start, err := s.Start(now.Location())
	if err != nil {
		return nil, err
	}
	if now.Before(start) {
		return nil, ErrInvalidDateTime
	}

	t := model.Record{
		"duration":    int(now.Sub(start) / time.Second),
		"date_worked": s.StartDate,
		"project":     s.Project,
		"user":        s.User,
	}
	switch {
	case len(s.Activities) > 0:
		t["activities"] = append([]string(nil), s.Activities...)
	case defaultActivity != "":
		t["activities"] = []string{defaultActivity}
	}
	if s.IssueURI != "" {
		t["issue_uri"] = s.IssueURI
	}
	if s.Notes != "" {
		t["notes"] = s.Notes
	}
	for k, v := range revisions {
		t[k] = v
	}
	return t, nil
}

// DefaultPath returns ~/.climesync/session.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".climesync", "session"), nil
}

// Store holds at most one Session in a file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path is the session file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a session file is present, valid or not.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read returns the stored session, or nil if there is none. An empty,
// unparseable or incomplete file is ErrInvalidSession and is left in place.
func (s *Store) Read() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session error reading %s: %w", s.path, err)
	}

	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidSession, s.path, err)
	}
	if err := validate.Struct(&sess); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrInvalidSession, s.path, err)
	}
	return &sess, nil
}

// Create writes sess unless a session already exists, in which case it
// returns false and leaves the stored session untouched.
func (s *Store) Create(sess Session) (bool, error) {
	if err := validate.Struct(&sess); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Exists() {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return false, fmt.Errorf("session error creating directories: %w", err)
	}

	data, err := yaml.Marshal(&sess)
	if err != nil {
		return false, fmt.Errorf("session error encoding: %w", err)
	}

	// Link fails if another process created the session since the check.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "session-*")
	if err != nil {
		return false, fmt.Errorf("session error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return false, fmt.Errorf("session error writing temp file: %w", err)
	}

	if err := os.Link(tmpPath, s.path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("session error linking temp file: %w", err)
	}
	return true, nil
}

// Clear removes the session file. It is not an error if there is none.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session error removing %s: %w", s.path, err)
	}
	return nil
}
