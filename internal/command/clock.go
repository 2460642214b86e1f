package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/session"
	"github.com/Tiliavir/climesync/internal/timecalc"
)

var errNoActivities = errors.New("no activities were provided")

func runClockIn(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	if cc.Sessions.Exists() {
		return Result{}, session.ErrClockedIn
	}

	values := args
	if values == nil {
		var err error
		values, err = cc.Prompter.Collect([]field.Spec{
			{Name: "project", Prompt: "Project slug", Choices: cc.ProjectSlugs},
			{Name: "activities", Prompt: "Activity slugs", Kind: field.List, Optional: true, Choices: cc.Activities},
			{Name: "issue_uri", Prompt: "Issue URI", Optional: true},
			{Name: "notes", Prompt: "Notes", Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	now := cc.now()
	sess := session.Session{
		StartDate:  timecalc.Today(now),
		StartTime:  now.Format(timecalc.ClockLayout),
		Project:    values.String("project"),
		Activities: values.Strings("activities"),
		IssueURI:   values.String("issue_uri"),
		Notes:      values.String("notes"),
		User:       cc.Client.Username(),
	}
	created, err := cc.Sessions.Create(sess)
	if err != nil {
		return Result{}, err
	}
	if !created {
		return Result{}, session.ErrClockedIn
	}
	cc.logger().Info("clocked in", "project", sess.Project, "path", cc.Sessions.Path())
	return Result{Note: "Clock-in successful"}, nil
}

func runClockOut(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	sess, err := cc.Sessions.Read()
	if err != nil {
		return Result{}, err
	}
	if sess == nil {
		return Result{}, session.ErrNotClockedIn
	}
	interactive := args == nil
	revisions := args.Clone()
	now := cc.now()

	t, err := sess.Time(now, "", revisions)
	if err != nil {
		return Result{}, err
	}
	if len(t.Strings("activities")) == 0 {
		def, err := cc.defaultActivity(ctx, t.String("project"))
		if err != nil {
			return Result{}, err
		}
		if t, err = sess.Time(now, def, revisions); err != nil {
			return Result{}, err
		}
	}

	if interactive {
		if t, err = cc.reviseClockOut(ctx, sess, now, t); err != nil {
			return Result{}, err
		}
	}
	if len(t.Strings("activities")) == 0 {
		return Result{}, errNoActivities
	}

	created, err := cc.Client.CreateTime(ctx, t)
	if err != nil {
		return Result{}, err
	}
	if err := cc.Sessions.Clear(); err != nil {
		return Result{}, fmt.Errorf("time submitted but the session was not cleared: %w", err)
	}
	cc.logger().Info("clocked out", "project", t.String("project"), "duration", t["duration"])
	return Result{Records: []model.Record{created}, Note: "Clock-out successful"}, nil
}

// reviseClockOut shows the time about to be submitted and lets the user
// correct it until they accept it. A project change without new activities
// rebuilds the time from the session, so the new project's default applies
// only when the session recorded no activities.
func (cc *ClientContext) reviseClockOut(ctx context.Context, sess *session.Session, now time.Time, t model.Record) (model.Record, error) {
	revisions := model.Record{}
	for {
		if len(t.Strings("activities")) == 0 {
			v, _, err := cc.Prompter.Field(field.Spec{Name: "activities", Prompt: "Activity slugs", Kind: field.List, Choices: cc.Activities}, nil)
			if err != nil {
				return nil, err
			}
			t["activities"] = v
			revisions["activities"] = v
		}

		cc.show(t)
		ok, err := cc.Prompter.Confirm("Does this look correct?", false)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}

		project := t.String("project")
		revised, err := cc.Prompter.Collect([]field.Spec{
			{Name: "duration", Prompt: "Duration", Kind: field.Duration, Optional: true},
			{Name: "project", Prompt: "Project slug", Optional: true, Choices: cc.ProjectSlugs},
			{Name: "activities", Prompt: "Activity slugs", Kind: field.List, Optional: true, Choices: cc.Activities},
			{Name: "date_worked", Prompt: "Date worked", Kind: field.Date, Optional: true},
			{Name: "issue_uri", Prompt: "Issue URI", Optional: true},
			{Name: "notes", Prompt: "Notes", Optional: true},
		}, t)
		if err != nil {
			return nil, err
		}
		for k, v := range revised {
			t[k] = v
			revisions[k] = v
		}

		if p := t.String("project"); p != project {
			if _, changed := revisions["activities"]; !changed {
				def, err := cc.defaultActivity(ctx, p)
				if err != nil {
					return nil, err
				}
				if t, err = sess.Time(now, def, revisions); err != nil {
					return nil, err
				}
			}
		}
	}
}

// defaultActivity returns the default activity of a project, or "".
func (cc *ClientContext) defaultActivity(ctx context.Context, slug string) (string, error) {
	p, err := cc.project(ctx, slug)
	if err != nil {
		cc.logger().Debug("project lookup failed", "project", slug, "error", err)
		return "", fmt.Errorf("invalid project %s: %w", slug, err)
	}
	return p.String("default_activity"), nil
}
