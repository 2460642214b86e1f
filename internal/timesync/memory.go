package timesync

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/climesync/internal/model"
)

// MemoryClient is an in-memory TimeSync used by test mode. It starts with a
// few users, projects and activities and accepts any credentials.
type MemoryClient struct {
	baseURL  string
	username string
	now      func() time.Time

	times      []model.Record
	projects   []model.Record
	activities []model.Record
	users      []model.Record
}

// NewMemoryClient returns a seeded in-memory client reporting baseURL.
func NewMemoryClient(baseURL string) *MemoryClient {
	c := &MemoryClient{baseURL: baseURL, now: time.Now}
	today := c.today()
	c.users = []model.Record{
		c.stamp(model.Record{"username": "userone", "display_name": "X. Ample User", "email": "example@example.com", "site_admin": true, "site_manager": false, "site_spectator": false, "meta": "Fulltime", "active": true}, today),
		c.stamp(model.Record{"username": "usertwo", "display_name": "Y. Ample User", "email": "usertwo@example.com", "site_admin": false, "site_manager": true, "site_spectator": false, "meta": "Parttime", "active": true}, today),
		c.stamp(model.Record{"username": "userthree", "display_name": "Z. Ample User", "email": "userthree@example.com", "site_admin": false, "site_manager": false, "site_spectator": true, "meta": "", "active": true}, today),
	}
	c.projects = []model.Record{
		c.stamp(model.Record{
			"name": "Ganeti Web Manager", "slugs": []string{"gwm", "ganeti-webmgr"},
			"uri": "https://code.osuosl.org/projects/ganeti-webmgr", "default_activity": "docs",
			"users": model.Permissions{
				"userone": {Member: true, Spectator: true, Manager: true},
				"usertwo": {Member: true},
			},
		}, today),
		c.stamp(model.Record{
			"name": "Protein Geometry Database", "slugs": []string{"pgd"},
			"uri": "https://code.osuosl.org/projects/pgd", "default_activity": nil,
			"users": model.Permissions{
				"userone":   {Member: true},
				"userthree": {Spectator: true},
			},
		}, today),
	}
	c.activities = []model.Record{
		c.stamp(model.Record{"name": "Documentation", "slug": "docs"}, today),
		c.stamp(model.Record{"name": "Development", "slug": "dev"}, today),
		c.stamp(model.Record{"name": "Planning", "slug": "planning"}, today),
	}
	return c
}

func (*MemoryClient) stamp(rec model.Record, date string) model.Record {
	rec["uuid"] = uuid.NewString()
	rec["revision"] = 1
	rec["created_at"] = date
	rec["updated_at"] = nil
	rec["deleted_at"] = nil
	return rec
}

func (c *MemoryClient) Username() string   { return c.username }
func (c *MemoryClient) BaseURL() string    { return c.baseURL }
func (c *MemoryClient) Test() bool         { return true }
func (c *MemoryClient) TokenExpired() bool { return c.username == "" }

// Authenticate accepts any non-empty credentials.
func (c *MemoryClient) Authenticate(_ context.Context, username, password string, method AuthMethod) (model.Record, error) {
	if username == "" || password == "" {
		return nil, &APIError{Status: http.StatusUnauthorized, Kind: "Authentication failure", Text: "Missing username or password"}
	}
	c.username = username
	return model.Record{"token": "TESTTOKEN", "auth_type": string(method)}, nil
}

func (c *MemoryClient) CreateTime(_ context.Context, t model.Record) (model.Record, error) {
	if err := missing(t, "duration", "project", "user", "date_worked"); err != nil {
		return nil, err
	}
	rec := c.stamp(t.Clone(), c.today())
	c.times = append(c.times, rec)
	return rec.Clone(), nil
}

func (c *MemoryClient) UpdateTime(_ context.Context, id string, t model.Record) (model.Record, error) {
	return c.update(c.times, func(r model.Record) bool { return r.String("uuid") == id }, t)
}

// GetTimes supports the user, project, activity, start, end, uuid and
// include_deleted filters.
func (c *MemoryClient) GetTimes(_ context.Context, q Query) ([]model.Record, error) {
	var out []model.Record
	for _, t := range c.times {
		if !live(t, q) {
			continue
		}
		if id := q.Single("uuid"); id != "" && t.String("uuid") != id {
			continue
		}
		if !matchAny(q["user"], t.String("user")) || !matchAny(q["project"], t.Strings("project")...) || !matchAny(q["activity"], t.Strings("activities")...) {
			continue
		}
		date := t.String("date_worked")
		if start := q.Single("start"); start != "" && date < start {
			continue
		}
		if end := q.Single("end"); end != "" && date > end {
			continue
		}
		out = append(out, t.Clone())
	}
	if id := q.Single("uuid"); id != "" && len(out) == 0 {
		return nil, notFound("time", id)
	}
	return out, nil
}

func (c *MemoryClient) DeleteTime(_ context.Context, id string) error {
	return c.remove(c.times, func(r model.Record) bool { return r.String("uuid") == id }, "time", id)
}

func (c *MemoryClient) CreateProject(_ context.Context, p model.Record) (model.Record, error) {
	if err := missing(p, "name", "slugs"); err != nil {
		return nil, err
	}
	for _, slug := range p.Strings("slugs") {
		if c.project(slug) != nil {
			return nil, &APIError{Status: http.StatusConflict, Kind: "Slug already exists", Text: fmt.Sprintf("slug already exists: %s", slug)}
		}
	}
	rec := c.stamp(p.Clone(), c.today())
	c.projects = append(c.projects, rec)
	return rec.Clone(), nil
}

func (c *MemoryClient) UpdateProject(_ context.Context, slug string, p model.Record) (model.Record, error) {
	return c.update(c.projects, func(r model.Record) bool { return slices.Contains(r.Strings("slugs"), slug) }, p)
}

func (c *MemoryClient) GetProjects(_ context.Context, q Query) ([]model.Record, error) {
	var out []model.Record
	slug := q.Single("slug")
	for _, p := range c.projects {
		if !live(p, q) || (slug != "" && !slices.Contains(p.Strings("slugs"), slug)) {
			continue
		}
		out = append(out, p.Clone())
	}
	if slug != "" && len(out) == 0 {
		return nil, notFound("project", slug)
	}
	return out, nil
}

func (c *MemoryClient) DeleteProject(_ context.Context, slug string) error {
	return c.remove(c.projects, func(r model.Record) bool { return slices.Contains(r.Strings("slugs"), slug) }, "project", slug)
}

func (c *MemoryClient) CreateActivity(_ context.Context, a model.Record) (model.Record, error) {
	if err := missing(a, "name", "slug"); err != nil {
		return nil, err
	}
	rec := c.stamp(a.Clone(), c.today())
	c.activities = append(c.activities, rec)
	return rec.Clone(), nil
}

func (c *MemoryClient) UpdateActivity(_ context.Context, slug string, a model.Record) (model.Record, error) {
	return c.update(c.activities, func(r model.Record) bool { return r.String("slug") == slug }, a)
}

func (c *MemoryClient) GetActivities(_ context.Context, q Query) ([]model.Record, error) {
	var out []model.Record
	slug := q.Single("slug")
	for _, a := range c.activities {
		if !live(a, q) || (slug != "" && a.String("slug") != slug) {
			continue
		}
		out = append(out, a.Clone())
	}
	if slug != "" && len(out) == 0 {
		return nil, notFound("activity", slug)
	}
	return out, nil
}

func (c *MemoryClient) DeleteActivity(_ context.Context, slug string) error {
	return c.remove(c.activities, func(r model.Record) bool { return r.String("slug") == slug }, "activity", slug)
}

func (c *MemoryClient) CreateUser(_ context.Context, u model.Record) (model.Record, error) {
	if err := missing(u, "username", "password"); err != nil {
		return nil, err
	}
	rec := u.Clone()
	delete(rec, "password")
	rec = c.stamp(rec, c.today())
	c.users = append(c.users, rec)
	return rec.Clone(), nil
}

func (c *MemoryClient) UpdateUser(_ context.Context, username string, u model.Record) (model.Record, error) {
	rec := u.Clone()
	delete(rec, "password")
	return c.update(c.users, func(r model.Record) bool { return r.String("username") == username }, rec)
}

func (c *MemoryClient) GetUsers(_ context.Context, username string) ([]model.Record, error) {
	var out []model.Record
	for _, u := range c.users {
		if u["deleted_at"] != nil || (username != "" && u.String("username") != username) {
			continue
		}
		out = append(out, u.Clone())
	}
	if username != "" && len(out) == 0 {
		return nil, notFound("user", username)
	}
	return out, nil
}

func (c *MemoryClient) DeleteUser(_ context.Context, username string) error {
	return c.remove(c.users, func(r model.Record) bool { return r.String("username") == username }, "user", username)
}

func (c *MemoryClient) ProjectUsers(_ context.Context, slug string) (map[string][]string, error) {
	p := c.project(slug)
	if p == nil {
		return nil, notFound("project", slug)
	}
	out := map[string][]string{}
	for name, perm := range model.PermissionsOf(p["users"]) {
		out[name] = perm.Roles()
	}
	return out, nil
}

func (c *MemoryClient) today() string {
	return c.now().Format("2006-01-02")
}

func (c *MemoryClient) project(slug string) model.Record {
	for _, p := range c.projects {
		if p["deleted_at"] == nil && slices.Contains(p.Strings("slugs"), slug) {
			return p
		}
	}
	return nil
}

func (c *MemoryClient) update(recs []model.Record, match func(model.Record) bool, changes model.Record) (model.Record, error) {
	for _, r := range recs {
		if r["deleted_at"] != nil || !match(r) {
			continue
		}
		for k, v := range changes {
			r[k] = v
		}
		rev, _ := r.Int("revision")
		r["revision"] = rev + 1
		r["updated_at"] = c.today()
		return r.Clone(), nil
	}
	return nil, notFound("object", "")
}

func (c *MemoryClient) remove(recs []model.Record, match func(model.Record) bool, kind, id string) error {
	for _, r := range recs {
		if r["deleted_at"] == nil && match(r) {
			r["deleted_at"] = c.today()
			return nil
		}
	}
	return notFound(kind, id)
}

func live(rec model.Record, q Query) bool {
	return rec["deleted_at"] == nil || q.Flag("include_deleted")
}

// matchAny reports whether no filter is given or one of values is in it.
func matchAny(filter []string, values ...string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, v := range values {
		if slices.Contains(filter, v) {
			return true
		}
	}
	return false
}

func missing(rec model.Record, fields ...string) error {
	for _, f := range fields {
		if v, ok := rec[f]; !ok || v == nil || v == "" {
			return &APIError{Status: http.StatusBadRequest, Kind: "Bad object", Text: fmt.Sprintf("the %s field is missing", f)}
		}
	}
	return nil
}

func notFound(kind, id string) *APIError {
	text := "Nonexistent " + kind
	if id != "" {
		text += ": " + id
	}
	return &APIError{Status: http.StatusNotFound, Kind: "Object not found", Text: text}
}
