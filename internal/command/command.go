// Package command implements the climesync operations and dispatches them by
// name or shell token.
package command

import (
	"context"
	"fmt"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
)

// Guard is the precondition a command needs before it runs.
type Guard int

const (
	None Guard = iota
	Connected
	Authenticated
)

// Result is what a command hands to the printer.
type Result struct {
	Records []model.Record
	Note    string
}

// RunFunc runs a command. A nil args means interactive mode; otherwise args
// holds the bound scripted arguments.
type RunFunc func(ctx context.Context, cc *ClientContext, args model.Record) (Result, error)

// Command is one entry of the command table.
type Command struct {
	Name     string
	Token    string
	Short    string
	Requires Guard
	Grammar  Grammar
	// Scripted commands are exposed as subcommands.
	Scripted bool
	Run      RunFunc
}

var (
	dateWorked = Param{Name: "date_worked", Kind: field.Date, Usage: "The date of the entry"}
	issueURI   = Param{Name: "issue_uri", Kind: field.Text, Usage: "The URI of the issue on an issue tracker"}
	notes      = Param{Name: "notes", Kind: field.Text, Usage: "Additional notes"}
	revisions  = Param{Name: "include_revisions", Kind: field.Bool, Usage: "Whether to include revised entries (True/False)"}
	deleted    = Param{Name: "include_deleted", Kind: field.Bool, Usage: "Whether to include deleted entries (True/False)"}
)

func userFlags() []Param {
	return []Param{
		{Name: "display_name", Kind: field.Text, Usage: "The display name of the user"},
		{Name: "email", Kind: field.Text, Usage: "The email address of the user"},
		{Name: "site_admin", Kind: field.Bool, Usage: "Whether the user is a site admin (True/False)"},
		{Name: "site_manager", Kind: field.Bool, Usage: "Whether the user is a site manager (True/False)"},
		{Name: "site_spectator", Kind: field.Bool, Usage: "Whether the user is a site spectator (True/False)"},
		{Name: "meta", Kind: field.Text, Usage: "Extra user metainformation"},
		{Name: "active", Kind: field.Bool, Usage: "Whether the user is active (True/False)"},
	}
}

var commands = []Command{
	{Name: "connect", Token: "c", Short: "Connect to a TimeSync server", Run: runConnect,
		Grammar: Grammar{Positional: []Param{{Name: "url", Optional: true}}}},
	{Name: "disconnect", Token: "dc", Short: "Disconnect from the TimeSync server", Run: runDisconnect},
	{Name: "sign-in", Token: "s", Short: "Sign in as a TimeSync user", Requires: Connected, Run: runSignIn},
	{Name: "sign-out", Token: "so", Short: "Sign out and forget cached data", Requires: Connected, Run: runSignOut},
	{Name: "update-settings", Token: "us", Short: "Change your password, display name or email", Requires: Authenticated, Run: runUpdateSettings},

	{Name: "clock-in", Token: "ci", Short: "Start tracking time on a project", Requires: Authenticated, Scripted: true, Run: runClockIn,
		Grammar: Grammar{
			Positional: []Param{
				{Name: "project", Usage: "Slug of project to start working on"},
				{Name: "activities", Kind: field.List, Repeated: true, Optional: true, Usage: "Slugs of activities to be worked on"},
			},
			Flags: []Param{issueURI, notes},
		}},
	{Name: "clock-out", Token: "co", Short: "Stop tracking time and submit it", Requires: Authenticated, Scripted: true, Run: runClockOut,
		Grammar: Grammar{
			Positional: []Param{{Name: "activities", Kind: field.List, Repeated: true, Optional: true, Usage: "Activities worked on"}},
			Flags: []Param{
				{Name: "duration", Kind: field.Duration, Usage: "Override the duration measured from clock-in"},
				{Name: "project", Usage: "Override the project worked on"},
				dateWorked, issueURI, notes,
			},
		}},

	{Name: "create-time", Token: "ct", Short: "Submit a new time", Requires: Authenticated, Scripted: true, Run: runCreateTime,
		Grammar: Grammar{
			Positional: []Param{
				{Name: "duration", Kind: field.Duration, Usage: "Duration of time entry"},
				{Name: "project", Usage: "Slug of project worked on"},
				{Name: "activities", Kind: field.List, Repeated: true, Optional: true, Usage: "Slugs of activities worked on"},
			},
			Flags: []Param{dateWorked, issueURI, notes},
		}},
	{Name: "update-time", Token: "ut", Short: "Update the fields of an existing time", Requires: Authenticated, Scripted: true, Run: runUpdateTime,
		Grammar: Grammar{
			Positional: []Param{{Name: "uuid", Usage: "The UUID of the time to update"}},
			Flags: []Param{
				{Name: "duration", Kind: field.Duration, Usage: "Duration of time entry"},
				{Name: "project", Usage: "Slug of project worked on"},
				{Name: "user", Usage: "New time owner"},
				{Name: "activities", Kind: field.List, Usage: "Slugs of activities worked on"},
				dateWorked, issueURI, notes,
			},
		}},
	{Name: "get-times", Token: "gt", Short: "List and filter times", Requires: Authenticated, Scripted: true, Run: runGetTimes,
		Grammar: Grammar{Flags: []Param{
			{Name: "user", Kind: field.List, Usage: "Filter by a list of users"},
			{Name: "project", Kind: field.List, Usage: "Filter by a list of project slugs"},
			{Name: "activity", Kind: field.List, Usage: "Filter by a list of activity slugs"},
			{Name: "start", Kind: field.Date, Usage: "Filter by start date"},
			{Name: "end", Kind: field.Date, Usage: "Filter by end date"},
			{Name: "uuid", Usage: "Get a specific time by uuid"},
			revisions, deleted,
		}}},
	{Name: "sum-times", Token: "st", Short: "Sum the times worked on projects", Requires: Authenticated, Scripted: true, Run: runSumTimes,
		Grammar: Grammar{
			Positional: []Param{{Name: "project", Kind: field.List, Repeated: true, Usage: "Slugs of projects to sum"}},
			Flags: []Param{
				{Name: "start", Kind: field.Date, Usage: "Only count times worked on or after this date"},
				{Name: "end", Kind: field.Date, Usage: "Only count times worked on or before this date"},
			},
		}},
	{Name: "delete-time", Token: "dt", Short: "Delete a time", Requires: Authenticated, Scripted: true, Run: runDeleteTime,
		Grammar: Grammar{Positional: []Param{{Name: "uuid", Usage: "The uuid of the time to delete"}}}},

	{Name: "create-project", Token: "cp", Short: "Create a project (site admins only)", Requires: Authenticated, Scripted: true, Run: runCreateProject,
		Grammar: Grammar{
			Positional: []Param{
				{Name: "name", Usage: "The project name"},
				{Name: "slugs", Kind: field.List, Usage: "Unique slugs associated with this project"},
				{Name: "users", Pairs: true, Optional: true, Usage: "Users to add with their access modes"},
			},
			Flags: []Param{
				{Name: "uri", Usage: "The project's URI"},
				{Name: "default_activity", Usage: "The slug of the default activity associated with this project"},
			},
		}},
	{Name: "update-project", Token: "up", Short: "Update a project (site admins only)", Requires: Authenticated, Scripted: true, Run: runUpdateProject,
		Grammar: Grammar{
			Positional: []Param{{Name: "slug", Usage: "The slug of the project"}},
			Flags: []Param{
				{Name: "name", Usage: "Updated project name"},
				{Name: "slugs", Kind: field.List, Usage: "Updated list of project slugs"},
				{Name: "uri", Usage: "Updated project URI"},
				{Name: "default_activity", Usage: "Updated slug of the default activity"},
			},
		}},
	{Name: "update-project-users", Token: "upu", Short: "Add or update users of a project", Requires: Authenticated, Scripted: true, Run: runUpdateProjectUsers,
		Grammar: Grammar{Positional: []Param{
			{Name: "slug", Usage: "The slug of the project"},
			{Name: "users", Pairs: true, Usage: "Users to add or update with their access modes"},
		}}},
	{Name: "remove-project-users", Token: "rpu", Short: "Remove users from a project", Requires: Authenticated, Scripted: true, Run: runRemoveProjectUsers,
		Grammar: Grammar{Positional: []Param{
			{Name: "slug", Usage: "The slug of the project"},
			{Name: "users", Kind: field.List, Repeated: true, Usage: "Usernames of the users to remove"},
		}}},
	{Name: "get-projects", Token: "gp", Short: "List and filter projects", Requires: Authenticated, Scripted: true, Run: runGetProjects,
		Grammar: Grammar{Flags: []Param{
			{Name: "slug", Usage: "Filter by project slug"},
			revisions, deleted,
		}}},
	{Name: "delete-project", Token: "dp", Short: "Delete a project (site admins only)", Requires: Authenticated, Scripted: true, Run: runDeleteProject,
		Grammar: Grammar{Positional: []Param{{Name: "slug", Usage: "The slug of the project to delete"}}}},

	{Name: "create-activity", Token: "ca", Short: "Create an activity (site admins only)", Requires: Authenticated, Scripted: true, Run: runCreateActivity,
		Grammar: Grammar{Positional: []Param{
			{Name: "name", Usage: "The name of the new activity"},
			{Name: "slug", Usage: "The slug of the new activity"},
		}}},
	{Name: "update-activity", Token: "ua", Short: "Update an activity (site admins only)", Requires: Authenticated, Scripted: true, Run: runUpdateActivity,
		Grammar: Grammar{
			Positional: []Param{{Name: "old_slug", Usage: "The slug of the activity to update"}},
			Flags: []Param{
				{Name: "name", Usage: "The updated activity name"},
				{Name: "slug", Usage: "The updated activity slug"},
			},
		}},
	{Name: "get-activities", Token: "ga", Short: "List and filter activities", Requires: Authenticated, Scripted: true, Run: runGetActivities,
		Grammar: Grammar{Flags: []Param{
			{Name: "slug", Usage: "Filter by activity slug"},
			revisions, deleted,
		}}},
	{Name: "delete-activity", Token: "da", Short: "Delete an activity (site admins only)", Requires: Authenticated, Scripted: true, Run: runDeleteActivity,
		Grammar: Grammar{Positional: []Param{{Name: "slug", Usage: "The slug of the activity to delete"}}}},

	{Name: "create-user", Token: "cu", Short: "Create a user (site admins only)", Requires: Authenticated, Scripted: true, Run: runCreateUser,
		Grammar: Grammar{
			Positional: []Param{
				{Name: "username", Usage: "The username of the new user"},
				{Name: "password", Kind: field.Password, Usage: "The password of the new user"},
			},
			Flags: userFlags(),
		}},
	{Name: "update-user", Token: "uu", Short: "Update a user (site admins only)", Requires: Authenticated, Scripted: true, Run: runUpdateUser,
		Grammar: Grammar{
			Positional: []Param{{Name: "old_username", Usage: "The username of the user to update"}},
			Flags: append([]Param{
				{Name: "username", Long: "new-username", Usage: "The updated username of the user"},
				{Name: "password", Long: "new-password", Kind: field.Password, Usage: "The updated password of the user"},
			}, userFlags()...),
		}},
	{Name: "get-users", Token: "gu", Short: "List users or show one user", Requires: Authenticated, Scripted: true, Run: runGetUsers,
		Grammar: Grammar{Flags: []Param{
			{Name: "username", Long: "user", Usage: "Search for a user by username"},
			{Name: "meta", Usage: "Filter by a substring of the user metainformation"},
			{Name: "project", Usage: "Get all the users of a project"},
			{Name: "members", Kind: field.Bool, Switch: true, Usage: "With --project, only project members"},
			{Name: "managers", Kind: field.Bool, Switch: true, Usage: "With --project, only project managers"},
			{Name: "spectators", Kind: field.Bool, Switch: true, Usage: "With --project, only project spectators"},
		}}},
	{Name: "delete-user", Token: "du", Short: "Delete a user (site admins only)", Requires: Authenticated, Scripted: true, Run: runDeleteUser,
		Grammar: Grammar{Positional: []Param{{Name: "username", Usage: "The username of the user to delete"}}}},
}

// Commands returns the command table in menu order.
func Commands() []Command {
	return commands
}

// Lookup finds a command by long name or shell token.
func Lookup(name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name || c.Token == name {
			return c, true
		}
	}
	return Command{}, false
}

// Invoke checks the command's guard and runs it.
func Invoke(ctx context.Context, cc *ClientContext, name string, args model.Record) (Result, error) {
	cmd, ok := Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("unknown command %q", name)
	}
	if err := cc.check(ctx, cmd.Requires); err != nil {
		return Result{}, err
	}
	cc.logger().Debug("running command", "command", cmd.Name, "interactive", args == nil)
	return cmd.Run(ctx, cc, args)
}
