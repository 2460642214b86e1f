// Package timesync talks to a TimeSync time-tracking server.
package timesync

import (
	"context"
	"fmt"

	"github.com/Tiliavir/climesync/internal/model"
)

// AuthMethod is the authentication type sent on login.
type AuthMethod string

const (
	AuthPassword AuthMethod = "password"
	AuthLDAP     AuthMethod = "ldap"
)

// Query holds list-typed filter parameters. Every value is a list, even for
// filters that take one value.
type Query map[string][]string

// Client is the set of TimeSync operations climesync uses.
type Client interface {
	Authenticate(ctx context.Context, username, password string, method AuthMethod) (model.Record, error)
	// Username is the authenticated user, or "" before sign-in.
	Username() string
	BaseURL() string
	// Test reports whether the client serves canned in-memory data.
	Test() bool
	// TokenExpired reports whether there is no usable token.
	TokenExpired() bool

	CreateTime(ctx context.Context, time model.Record) (model.Record, error)
	UpdateTime(ctx context.Context, uuid string, time model.Record) (model.Record, error)
	GetTimes(ctx context.Context, q Query) ([]model.Record, error)
	DeleteTime(ctx context.Context, uuid string) error

	CreateProject(ctx context.Context, project model.Record) (model.Record, error)
	UpdateProject(ctx context.Context, slug string, project model.Record) (model.Record, error)
	GetProjects(ctx context.Context, q Query) ([]model.Record, error)
	DeleteProject(ctx context.Context, slug string) error

	CreateActivity(ctx context.Context, activity model.Record) (model.Record, error)
	UpdateActivity(ctx context.Context, slug string, activity model.Record) (model.Record, error)
	GetActivities(ctx context.Context, q Query) ([]model.Record, error)
	DeleteActivity(ctx context.Context, slug string) error

	CreateUser(ctx context.Context, user model.Record) (model.Record, error)
	UpdateUser(ctx context.Context, username string, user model.Record) (model.Record, error)
	// GetUsers returns one user when username is set, all users otherwise.
	GetUsers(ctx context.Context, username string) ([]model.Record, error)
	DeleteUser(ctx context.Context, username string) error

	// ProjectUsers maps each user of the project to the roles they hold.
	ProjectUsers(ctx context.Context, slug string) (map[string][]string, error)
}

// APIError is an error reported by the server.
type APIError struct {
	Status int
	Kind   string
	Text   string
	// Record is the error object as returned by the server.
	Record model.Record
}

func (e *APIError) Error() string {
	switch {
	case e.Kind != "" && e.Text != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Text)
	case e.Kind != "":
		return e.Kind
	case e.Text != "":
		return e.Text
	}
	return fmt.Sprintf("timesync error %d", e.Status)
}

// apiError builds an APIError from a record that carries an "error" key.
func apiError(status int, rec model.Record) *APIError {
	if s, ok := rec.Int("status"); ok {
		status = s
	}
	return &APIError{
		Status: status,
		Kind:   rec.String("error"),
		Text:   rec.String("text"),
		Record: rec,
	}
}

// Single returns the one value of a filter, or "" if it has none.
func (q Query) Single(key string) string {
	if v := q[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Flag reports whether a boolean filter is set to true.
func (q Query) Flag(key string) bool {
	return q.Single(key) == "true"
}
