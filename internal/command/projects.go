package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timesync"
)

func projectSpecs(cc *ClientContext, optional bool) []field.Spec {
	return []field.Spec{
		{Name: "name", Prompt: "Project name", Optional: optional},
		{Name: "slugs", Prompt: "Project slugs", Kind: field.List, Optional: optional},
		{Name: "uri", Prompt: "Project URI", Optional: true},
		{Name: "default_activity", Prompt: "Default activity", Optional: true, Choices: cc.Activities},
	}
}

func runCreateProject(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	values := args.Clone()
	if args == nil {
		var err error
		if values, err = cc.Prompter.Collect(projectSpecs(cc, false), nil); err != nil {
			return Result{}, err
		}
		perms, err := cc.promptPermissions(nil)
		if err != nil {
			return Result{}, err
		}
		if len(perms) > 0 {
			values["users"] = perms
		}
	}

	created, err := cc.Client.CreateProject(ctx, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{created}}, nil
}

func runUpdateProject(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "slug", "Slug of project to update")
	if err != nil {
		return Result{}, err
	}

	values := args.Clone()
	delete(values, "slug")
	if args == nil {
		current, err := cc.project(ctx, slug)
		if err != nil {
			return Result{}, err
		}
		if values, err = cc.Prompter.Collect(projectSpecs(cc, true), current); err != nil {
			return Result{}, err
		}
	}

	updated, err := cc.Client.UpdateProject(ctx, slug, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runUpdateProjectUsers(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "slug", "Slug of project")
	if err != nil {
		return Result{}, err
	}
	current, err := cc.project(ctx, slug)
	if err != nil {
		return Result{}, err
	}
	existing := model.PermissionsOf(current["users"])

	changes := model.PermissionsOf(args["users"])
	if args == nil {
		if changes, err = cc.promptPermissions(existing); err != nil {
			return Result{}, err
		}
	}
	if len(changes) == 0 {
		return Result{Note: "No users to update"}, nil
	}

	merged := make(model.Permissions, len(existing)+len(changes))
	for user, perm := range existing {
		merged[user] = perm
	}
	for user, perm := range changes {
		merged[user] = perm
	}
	updated, err := cc.Client.UpdateProject(ctx, slug, model.Record{"users": merged})
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runRemoveProjectUsers(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "slug", "Slug of project")
	if err != nil {
		return Result{}, err
	}
	current, err := cc.project(ctx, slug)
	if err != nil {
		return Result{}, err
	}
	existing := model.PermissionsOf(current["users"])

	users := args.Strings("users")
	if args == nil {
		v, _, err := cc.Prompter.Field(field.Spec{Name: "users", Prompt: "Usernames to remove", Kind: field.List, Choices: existing.Usernames()}, nil)
		if err != nil {
			return Result{}, err
		}
		users = v.([]string)
	}

	var unknown []string
	for _, u := range users {
		if _, ok := existing[u]; !ok {
			unknown = append(unknown, u)
		}
	}
	if len(unknown) > 0 {
		return Result{}, fmt.Errorf("user doesn't exist in project: %s", strings.Join(unknown, ", "))
	}

	remaining := make(model.Permissions, len(existing))
	for user, perm := range existing {
		if !slices.Contains(users, user) {
			remaining[user] = perm
		}
	}
	updated, err := cc.Client.UpdateProject(ctx, slug, model.Record{"users": remaining})
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runGetProjects(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	filters := args
	if filters == nil {
		var err error
		filters, err = cc.Prompter.Collect([]field.Spec{
			{Name: "slug", Prompt: "Project slug", Optional: true, Choices: cc.Projects},
			{Name: "include_revisions", Prompt: "Include revised projects", Kind: field.Bool, Optional: true},
			{Name: "include_deleted", Prompt: "Include deleted projects", Kind: field.Bool, Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	projects, err := cc.Client.GetProjects(ctx, toQuery(filters))
	if err != nil {
		return Result{}, err
	}
	out := make([]model.Record, 0, len(projects))
	for _, p := range projects {
		summarized, err := cc.summarize(ctx, p)
		if err != nil {
			return Result{}, err
		}
		out = append(out, summarized)
	}
	if len(out) == 0 {
		return Result{Note: "No projects were returned"}, nil
	}
	return Result{Records: out}, nil
}

// summarize returns a copy of project with the totals of its times.
func (cc *ClientContext) summarize(ctx context.Context, project model.Record) (model.Record, error) {
	out := project.Clone()
	slugs := project.Strings("slugs")
	if len(slugs) == 0 {
		return out, nil
	}
	times, err := cc.Client.GetTimes(ctx, timesync.Query{"project": {slugs[0]}})
	if err != nil {
		return nil, err
	}

	total := 0
	var first, latest string
	for _, t := range times {
		d, _ := t.Int("duration")
		total += d
		date := t.String("date_worked")
		if date == "" {
			continue
		}
		if first == "" || date < first {
			first = date
		}
		if date > latest {
			latest = date
		}
	}
	out["time_total"] = total
	out["num_times"] = len(times)
	if first != "" {
		out["first_time"] = first
		out["latest_time"] = latest
	}
	return out, nil
}

func runDeleteProject(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "slug", "Slug of project to delete")
	if err != nil {
		return Result{}, err
	}
	if ok, err := cc.confirmDelete(args, slug); err != nil || !ok {
		return Result{}, err
	}
	if err := cc.Client.DeleteProject(ctx, slug); err != nil {
		return Result{}, err
	}
	return Result{Note: "Deleted project " + slug}, nil
}

// promptPermissions asks which users to add and then their roles.
func (cc *ClientContext) promptPermissions(current model.Permissions) (model.Permissions, error) {
	v, ok, err := cc.Prompter.Field(field.Spec{Name: "users", Prompt: "Usernames", Kind: field.List, Optional: true, Choices: cc.Users}, nil)
	if err != nil || !ok {
		return nil, err
	}
	return cc.Prompter.CollectPermissions(v.([]string), current)
}
