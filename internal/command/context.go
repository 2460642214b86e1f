package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Tiliavir/climesync/internal/config"
	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/session"
	"github.com/Tiliavir/climesync/internal/timesync"
)

var (
	ErrNotConnected     = errors.New("not connected to TimeSync server")
	ErrNotAuthenticated = errors.New("you need to sign in")
)

// Dialer opens a client for a server URL.
type Dialer func(baseURL string, test bool) timesync.Client

// ClientContext is the state shared by every command in one process.
type ClientContext struct {
	Client timesync.Client
	// User is the signed-in user's record.
	User model.Record

	// Validator lists cached at sign-in. A nil list accepts any value.
	Users        []string
	Projects     []string
	Activities   []string
	ProjectSlugs []string

	Sessions   *session.Store
	Prompter   *field.Prompter
	Config     config.Config
	ConfigPath string
	Logger     *slog.Logger
	Now        func() time.Time
	Dial       Dialer
	// Show prints records during interactive flows, such as the time
	// shown for confirmation on clock-out.
	Show func(records ...model.Record)

	Test             bool
	AutoUpdateConfig bool
}

// DialTimeSync opens the in-memory client in test mode and the HTTP client
// otherwise.
func DialTimeSync(logger *slog.Logger) Dialer {
	return func(baseURL string, test bool) timesync.Client {
		if test {
			return timesync.NewMemoryClient(baseURL)
		}
		return timesync.NewHTTPClient(baseURL, nil, logger)
	}
}

func (cc *ClientContext) now() time.Time {
	if cc.Now == nil {
		return time.Now()
	}
	return cc.Now()
}

func (cc *ClientContext) logger() *slog.Logger {
	if cc.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cc.Logger
}

func (cc *ClientContext) out() io.Writer {
	return cc.Prompter.Out()
}

func (cc *ClientContext) show(records ...model.Record) {
	if cc.Show != nil {
		cc.Show(records...)
	}
}

func (cc *ClientContext) clearCaches() {
	cc.User = nil
	cc.Users = nil
	cc.Projects = nil
	cc.Activities = nil
	cc.ProjectSlugs = nil
}

// check enforces a command's guard. An expired token is renewed from the
// config when it holds the same user, a password and the same server.
func (cc *ClientContext) check(ctx context.Context, g Guard) error {
	if g == None {
		return nil
	}
	if cc.Client == nil {
		return ErrNotConnected
	}
	if g == Connected || !cc.Client.TokenExpired() {
		return nil
	}

	c := cc.Client
	cfg := cc.Config
	if c.Test() || c.Username() == "" || cfg.Username != c.Username() || cfg.Password == "" ||
		strings.TrimRight(cfg.TimeSyncURL, "/") != c.BaseURL() {
		return ErrNotAuthenticated
	}
	cc.logger().Info("token expired, signing in again", "user", cfg.Username)
	if _, err := c.Authenticate(ctx, cfg.Username, cfg.Password, authMethod(cfg.LDAP != nil && *cfg.LDAP)); err != nil {
		cc.logger().Warn("re-authentication failed", "error", err)
		return ErrNotAuthenticated
	}
	return nil
}

// cache loads the validator lists and the signed-in user's record.
func (cc *ClientContext) cache(ctx context.Context) error {
	users, err := cc.Client.GetUsers(ctx, "")
	if err != nil {
		return fmt.Errorf("caching users: %w", err)
	}
	projects, err := cc.Client.GetProjects(ctx, nil)
	if err != nil {
		return fmt.Errorf("caching projects: %w", err)
	}
	activities, err := cc.Client.GetActivities(ctx, nil)
	if err != nil {
		return fmt.Errorf("caching activities: %w", err)
	}

	username := cc.Client.Username()
	cc.Users = make([]string, 0, len(users))
	for _, u := range users {
		cc.Users = append(cc.Users, u.String("username"))
		if u.String("username") == username {
			cc.User = u
		}
	}
	if cc.User == nil && cc.Client.Test() && len(users) > 0 {
		cc.User = users[0]
	}

	cc.Projects = make([]string, 0, len(projects))
	cc.ProjectSlugs = []string{}
	for _, p := range projects {
		slugs := p.Strings("slugs")
		if len(slugs) == 0 {
			continue
		}
		cc.Projects = append(cc.Projects, slugs[0])
		if _, member := model.PermissionsOf(p["users"])[username]; member {
			cc.ProjectSlugs = append(cc.ProjectSlugs, slugs[0])
		}
	}

	cc.Activities = make([]string, 0, len(activities))
	for _, a := range activities {
		cc.Activities = append(cc.Activities, a.String("slug"))
	}
	return nil
}

// project fetches one project by slug.
func (cc *ClientContext) project(ctx context.Context, slug string) (model.Record, error) {
	projects, err := cc.Client.GetProjects(ctx, timesync.Query{"slug": {slug}})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("project %s not found", slug)
	}
	return projects[0], nil
}

// offerConfig asks whether to store key = value in the config file. It does
// nothing in test mode, when updates are off, or when the value is stored
// already.
func (cc *ClientContext) offerConfig(key string, value any) error {
	if cc.Test || !cc.AutoUpdateConfig || cc.ConfigPath == "" {
		return nil
	}
	if cur, ok := cc.Config.Get(key); ok && cur == value {
		return nil
	}

	if key == "password" {
		fmt.Fprintln(cc.out(), "> password = [PASSWORD HIDDEN]")
	} else {
		fmt.Fprintf(cc.out(), "> %s = %v\n", key, value)
	}
	ok, err := cc.Prompter.Confirm("Add to the config file?", true)
	if err != nil || !ok {
		return err
	}
	if err := config.Update(cc.ConfigPath, key, value); err != nil {
		return err
	}
	if err := cc.Config.Set(key, value); err != nil {
		return err
	}
	fmt.Fprintln(cc.out(), "New value added!")
	return nil
}

func authMethod(ldap bool) timesync.AuthMethod {
	if ldap {
		return timesync.AuthLDAP
	}
	return timesync.AuthPassword
}
