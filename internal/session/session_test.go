package session_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/session"
)

func newStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(filepath.Join(t.TempDir(), ".climesync", "session"))
}

func sample() session.Session {
	return session.Session{
		StartDate:  "2015-03-14",
		StartTime:  "09:26",
		Project:    "px",
		Activities: []string{"dev", "docs"},
		IssueURI:   "https://github.com/org/px/issues/42/",
		User:       "test",
	}
}

func TestReadNotExist(t *testing.T) {
	store := newStore(t)
	if store.Exists() {
		t.Fatal("Exists on empty store")
	}
	sess, err := store.Read()
	if err != nil {
		t.Fatalf("Read on missing file: %v", err)
	}
	if sess != nil {
		t.Errorf("Read = %+v, want nil", sess)
	}
}

func TestCreateAndRead(t *testing.T) {
	store := newStore(t)
	want := sample()

	created, err := store.Create(want)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !created {
		t.Fatal("Create reported no-op on empty store")
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read after create: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("Read = %+v, want %+v", *got, want)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "activities: [dev, docs]") {
		t.Errorf("session file does not keep activities on one line:\n%s", data)
	}
	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestCreateKeepsExisting(t *testing.T) {
	store := newStore(t)
	first := sample()
	if _, err := store.Create(first); err != nil {
		t.Fatal(err)
	}

	second := sample()
	second.Project = "py"
	created, err := store.Create(second)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if created {
		t.Error("second Create overwrote the session")
	}

	got, err := store.Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.Project != "px" {
		t.Errorf("project = %q, want %q", got.Project, "px")
	}
}

func TestCreateConcurrentStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	projects := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}

	var wg sync.WaitGroup
	won := make([]bool, len(projects))
	errs := make([]error, len(projects))
	for i, project := range projects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := sample()
			sess.Project = project
			won[i], errs[i] = session.NewStore(path).Create(sess)
		}()
	}
	wg.Wait()

	winner := ""
	for i, ok := range won {
		if errs[i] != nil {
			t.Fatalf("Create %s: %v", projects[i], errs[i])
		}
		if ok {
			if winner != "" {
				t.Fatalf("both %s and %s created the session", winner, projects[i])
			}
			winner = projects[i]
		}
	}
	if winner == "" {
		t.Fatal("no Create succeeded")
	}

	got, err := session.NewStore(path).Read()
	if err != nil {
		t.Fatal(err)
	}
	if got.Project != winner {
		t.Errorf("project = %q, want %q", got.Project, winner)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestReadLineFormat(t *testing.T) {
	store := newStore(t)
	lines := "start_date: 2015-03-14\nstart_time: 09:26\nproject: px\nissue_uri: https://github.com/org/px/issues/42/\nuser: test\n"
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(), []byte(lines), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := session.Session{
		StartDate: "2015-03-14",
		StartTime: "09:26",
		Project:   "px",
		IssueURI:  "https://github.com/org/px/issues/42/",
		User:      "test",
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("Read = %+v, want %+v", *got, want)
	}
}

func TestReadInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":       "",
		"garbage":     "{not: [yaml",
		"no project":  "start_date: 2015-03-14\nstart_time: 09:26\nuser: test\n",
		"bad time":    "start_date: 2015-03-14\nstart_time: quarter past\nproject: px\nuser: test\n",
		"not mapping": "- a\n- b\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			store := newStore(t)
			if err := os.MkdirAll(filepath.Dir(store.Path()), 0o700); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(store.Path(), []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := store.Read()
			if !errors.Is(err, session.ErrInvalidSession) {
				t.Fatalf("Read error = %v, want ErrInvalidSession", err)
			}
			if !store.Exists() {
				t.Error("invalid session was cleared")
			}
		})
	}
}

func TestClear(t *testing.T) {
	store := newStore(t)
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear without session: %v", err)
	}
	if _, err := store.Create(sample()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Exists() {
		t.Error("session still exists after Clear")
	}
}

func TestTime(t *testing.T) {
	sess := session.Session{
		StartDate:  "2016-03-14",
		StartTime:  "03:14",
		Project:    "px",
		Activities: []string{"dev", "docs"},
		User:       "test",
	}
	now := time.Date(2016, 3, 14, 4, 14, 0, 0, time.Local)

	got, err := sess.Time(now, "", model.Record{"project": "py"})
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	want := model.Record{
		"duration":    3600,
		"date_worked": "2016-03-14",
		"project":     "py",
		"activities":  []string{"dev", "docs"},
		"user":        "test",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Time = %v, want %v", got, want)
	}
}

func TestTimeDefaultActivity(t *testing.T) {
	sess := session.Session{StartDate: "2016-03-14", StartTime: "03:14", Project: "px", User: "test"}
	now := time.Date(2016, 3, 14, 4, 14, 30, 0, time.Local)

	got, err := sess.Time(now, "dev", nil)
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if !reflect.DeepEqual(got["activities"], []string{"dev"}) {
		t.Errorf("activities = %v, want [dev]", got["activities"])
	}
	if got["duration"] != 3630 {
		t.Errorf("duration = %v, want 3630", got["duration"])
	}

	sess.Activities = []string{}
	got, err = sess.Time(now, "dev", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got["activities"], []string{"dev"}) {
		t.Errorf("empty activities: got %v, want [dev]", got["activities"])
	}

	got, err = sess.Time(now, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got["activities"]; ok {
		t.Errorf("activities set without session activities or default: %v", got["activities"])
	}
}

func TestTimeBeforeStart(t *testing.T) {
	sess := session.Session{StartDate: "2016-03-14", StartTime: "03:14", Project: "px", User: "test"}
	now := time.Date(2016, 3, 14, 3, 0, 0, 0, time.Local)
	if _, err := sess.Time(now, "", nil); !errors.Is(err, session.ErrInvalidDateTime) {
		t.Errorf("Time error = %v, want ErrInvalidDateTime", err)
	}
}
