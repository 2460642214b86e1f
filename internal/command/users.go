package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
)

func userSpecs(optional bool) []field.Spec {
	return []field.Spec{
		{Name: "username", Prompt: "Username", Optional: optional},
		{Name: "password", Prompt: "Password", Kind: field.Password, Optional: optional},
		{Name: "display_name", Prompt: "Display name", Optional: true},
		{Name: "email", Prompt: "Email", Optional: true},
		{Name: "site_admin", Prompt: "Site admin", Kind: field.Bool, Optional: true},
		{Name: "site_manager", Prompt: "Site manager", Kind: field.Bool, Optional: true},
		{Name: "site_spectator", Prompt: "Site spectator", Kind: field.Bool, Optional: true},
		{Name: "meta", Prompt: "Extra meta-information", Optional: true},
		{Name: "active", Prompt: "Is the user active", Kind: field.Bool, Optional: true},
	}
}

func runCreateUser(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	values := args
	if values == nil {
		var err error
		if values, err = cc.Prompter.Collect(userSpecs(false), nil); err != nil {
			return Result{}, err
		}
	}

	created, err := cc.Client.CreateUser(ctx, values)
	if err != nil {
		return Result{}, err
	}
	if cc.Users != nil {
		cc.Users = append(cc.Users, created.String("username"))
	}
	return Result{Records: []model.Record{created}}, nil
}

func runUpdateUser(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	username, err := cc.identifier(args, "old_username", "Username of user to update")
	if err != nil {
		return Result{}, err
	}

	values := args.Clone()
	delete(values, "old_username")
	if args == nil {
		current, err := cc.user(ctx, username)
		if err != nil {
			return Result{}, err
		}
		if values, err = cc.Prompter.Collect(userSpecs(true), current); err != nil {
			return Result{}, err
		}
	}

	updated, err := cc.Client.UpdateUser(ctx, username, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runGetUsers(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	filters := args
	if filters == nil {
		var err error
		if filters, err = cc.promptUserFilters(); err != nil {
			return Result{}, err
		}
	}

	if username := filters.String("username"); username != "" {
		u, err := cc.user(ctx, username)
		if err != nil {
			return Result{}, err
		}
		u, err = cc.withProjects(ctx, u)
		if err != nil {
			return Result{}, err
		}
		return Result{Records: []model.Record{u}}, nil
	}

	users, err := cc.Client.GetUsers(ctx, "")
	if err != nil {
		return Result{}, err
	}
	if meta := filters.String("meta"); meta != "" {
		users = slices.DeleteFunc(users, func(u model.Record) bool {
			return !strings.Contains(u.String("meta"), meta)
		})
	}
	if slug := filters.String("project"); slug != "" {
		roles, err := cc.Client.ProjectUsers(ctx, slug)
		if err != nil {
			return Result{}, err
		}
		wanted := wantedRoles(filters)
		users = slices.DeleteFunc(users, func(u model.Record) bool {
			held, ok := roles[u.String("username")]
			if !ok {
				return true
			}
			if len(wanted) == 0 {
				return false
			}
			return !slices.ContainsFunc(held, func(r string) bool { return slices.Contains(wanted, r) })
		})
	}
	if len(users) == 0 {
		return Result{Note: "No users were returned"}, nil
	}
	return Result{Records: users}, nil
}

// promptUserFilters asks for one way of narrowing the user list: a username,
// a metadata substring or a project with optional role filters.
func (cc *ClientContext) promptUserFilters() (model.Record, error) {
	p := cc.Prompter
	filters := model.Record{}

	v, ok, err := p.Field(field.Spec{Name: "username", Prompt: "Username", Optional: true, Choices: cc.Users}, nil)
	if err != nil {
		return nil, err
	}
	if ok {
		filters["username"] = v
		return filters, nil
	}
	v, ok, err = p.Field(field.Spec{Name: "meta", Prompt: "Metainformation", Optional: true}, nil)
	if err != nil {
		return nil, err
	}
	if ok {
		filters["meta"] = v
	}
	v, ok, err = p.Field(field.Spec{Name: "project", Prompt: "Project slug", Optional: true, Choices: cc.Projects}, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return filters, nil
	}
	filters["project"] = v

	for _, role := range []struct{ key, prompt string }{
		{"members", "Only show members?"},
		{"spectators", "Only show spectators?"},
		{"managers", "Only show managers?"},
	} {
		yes, err := p.Confirm(role.prompt, true)
		if err != nil {
			return nil, err
		}
		if yes {
			filters[role.key] = true
			break
		}
	}
	return filters, nil
}

func wantedRoles(filters model.Record) []string {
	var roles []string
	for key, role := range map[string]string{"members": "member", "managers": "manager", "spectators": "spectator"} {
		if on, _ := filters[key].(bool); on {
			roles = append(roles, role)
		}
	}
	return roles
}

// withProjects returns a copy of user with a "projects" map of project name
// to the roles the user holds in it.
func (cc *ClientContext) withProjects(ctx context.Context, user model.Record) (model.Record, error) {
	projects, err := cc.Client.GetProjects(ctx, nil)
	if err != nil {
		return nil, err
	}
	username := user.String("username")
	held := map[string][]string{}
	for _, p := range projects {
		if perm, ok := model.PermissionsOf(p["users"])[username]; ok {
			held[p.String("name")] = perm.Roles()
		}
	}
	out := user.Clone()
	if len(held) > 0 {
		out["projects"] = held
	}
	return out, nil
}

func runDeleteUser(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	username, err := cc.identifier(args, "username", "Username of user to delete")
	if err != nil {
		return Result{}, err
	}
	if ok, err := cc.confirmDelete(args, username); err != nil || !ok {
		return Result{}, err
	}
	if err := cc.Client.DeleteUser(ctx, username); err != nil {
		return Result{}, err
	}
	return Result{Note: "Deleted user " + username}, nil
}

func (cc *ClientContext) user(ctx context.Context, username string) (model.Record, error) {
	users, err := cc.Client.GetUsers(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s not found", username)
	}
	return users[0], nil
}
