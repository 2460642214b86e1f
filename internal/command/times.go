package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timecalc"
	"github.com/Tiliavir/climesync/internal/timesync"
)

func runCreateTime(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	values := args.Clone()
	if args == nil {
		first, err := cc.Prompter.Collect([]field.Spec{
			{Name: "duration", Prompt: "Duration", Kind: field.Duration},
			{Name: "project", Prompt: "Project slug", Choices: cc.ProjectSlugs},
		}, nil)
		if err != nil {
			return Result{}, err
		}
		project, err := cc.project(ctx, first.String("project"))
		if err != nil {
			return Result{}, err
		}
		rest, err := cc.Prompter.Collect([]field.Spec{
			{Name: "activities", Prompt: "Activity slugs", Kind: field.List, Optional: project.String("default_activity") != "", Choices: cc.Activities},
			{Name: "date_worked", Prompt: "Date worked", Kind: field.Date, Optional: true},
			{Name: "issue_uri", Prompt: "Issue URI", Optional: true},
			{Name: "notes", Prompt: "Notes", Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
		values = first
		for k, v := range rest {
			values[k] = v
		}
	}

	if values.String("date_worked") == "" {
		values["date_worked"] = timecalc.Today(cc.now())
	}
	values["user"] = cc.Client.Username()

	created, err := cc.Client.CreateTime(ctx, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{created}}, nil
}

func runUpdateTime(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	id, err := cc.identifier(args, "uuid", "UUID of time to update")
	if err != nil {
		return Result{}, err
	}
	if err := checkUUID(id); err != nil {
		return Result{}, err
	}

	values := args.Clone()
	delete(values, "uuid")
	if args == nil {
		current, err := cc.time(ctx, id)
		if err != nil {
			return Result{}, err
		}
		values, err = cc.Prompter.Collect([]field.Spec{
			{Name: "duration", Prompt: "Duration", Kind: field.Duration, Optional: true},
			{Name: "project", Prompt: "Project slug", Optional: true, Choices: cc.ProjectSlugs},
			{Name: "user", Prompt: "User", Optional: true, Choices: cc.Users},
			{Name: "activities", Prompt: "Activity slugs", Kind: field.List, Optional: true, Choices: cc.Activities},
			{Name: "date_worked", Prompt: "Date worked", Kind: field.Date, Optional: true},
			{Name: "issue_uri", Prompt: "Issue URI", Optional: true},
			{Name: "notes", Prompt: "Notes", Optional: true},
		}, current)
		if err != nil {
			return Result{}, err
		}
	}

	updated, err := cc.Client.UpdateTime(ctx, id, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runGetTimes(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	filters := args
	if filters == nil {
		var err error
		filters, err = cc.Prompter.Collect([]field.Spec{
			{Name: "user", Prompt: "Users", Kind: field.List, Optional: true, Choices: cc.Users},
			{Name: "project", Prompt: "Project slugs", Kind: field.List, Optional: true, Choices: cc.Projects},
			{Name: "activity", Prompt: "Activity slugs", Kind: field.List, Optional: true, Choices: cc.Activities},
			{Name: "start", Prompt: "Start date", Kind: field.Date, Optional: true},
			{Name: "end", Prompt: "End date", Kind: field.Date, Optional: true},
			{Name: "uuid", Prompt: "Time UUID", Optional: true},
			{Name: "include_revisions", Prompt: "Include revised times", Kind: field.Bool, Optional: true},
			{Name: "include_deleted", Prompt: "Include deleted times", Kind: field.Bool, Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	times, err := cc.Client.GetTimes(ctx, toQuery(filters))
	if err != nil {
		return Result{}, err
	}
	if len(times) == 0 {
		return Result{Note: "No times were returned"}, nil
	}
	return Result{Records: times}, nil
}

func runSumTimes(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	values := args
	if values == nil {
		var err error
		values, err = cc.Prompter.Collect([]field.Spec{
			{Name: "project", Prompt: "Project slugs", Kind: field.List, Choices: cc.Projects},
			{Name: "start", Prompt: "Start date", Kind: field.Date, Optional: true},
			{Name: "end", Prompt: "End date", Kind: field.Date, Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	var sums []model.Record
	for _, project := range values.Strings("project") {
		q := toQuery(model.Record{"project": project, "start": values["start"], "end": values["end"]})
		times, err := cc.Client.GetTimes(ctx, q)
		if err != nil {
			return Result{}, err
		}
		total := 0
		for _, t := range times {
			d, _ := t.Int("duration")
			total += d
		}
		sums = append(sums, model.Record{"project": project, "duration": total})
	}
	return Result{Records: sums}, nil
}

func runDeleteTime(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	id, err := cc.identifier(args, "uuid", "UUID of time to delete")
	if err != nil {
		return Result{}, err
	}
	if err := checkUUID(id); err != nil {
		return Result{}, err
	}
	if ok, err := cc.confirmDelete(args, "time "+id); err != nil || !ok {
		return Result{}, err
	}
	if err := cc.Client.DeleteTime(ctx, id); err != nil {
		return Result{}, err
	}
	return Result{Note: "Deleted time " + id}, nil
}

func (cc *ClientContext) time(ctx context.Context, id string) (model.Record, error) {
	times, err := cc.Client.GetTimes(ctx, timesync.Query{"uuid": {id}})
	if err != nil {
		return nil, err
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("time %s not found", id)
	}
	return times[0], nil
}

// identifier returns args[key], prompting for it when interactive.
func (cc *ClientContext) identifier(args model.Record, key, prompt string) (string, error) {
	if args != nil {
		return args.String(key), nil
	}
	v, _, err := cc.Prompter.Field(field.Spec{Name: key, Prompt: prompt}, nil)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// confirmDelete asks before a delete in interactive mode.
func (cc *ClientContext) confirmDelete(args model.Record, what string) (bool, error) {
	if args != nil {
		return true, nil
	}
	return cc.Prompter.Confirm(fmt.Sprintf("Do you really want to delete %s?", what), false)
}

func checkUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid uuid %q: %w", id, err)
	}
	return nil
}

// toQuery turns collected filters into list-valued query parameters. Single
// values become one-element lists.
func toQuery(filters model.Record) timesync.Query {
	q := timesync.Query{}
	for k, v := range filters {
		switch val := v.(type) {
		case nil:
		case []string:
			if len(val) > 0 {
				q[k] = append([]string(nil), val...)
			}
		case string:
			if val != "" {
				q[k] = []string{val}
			}
		case bool:
			q[k] = []string{strconv.FormatBool(val)}
		case int:
			q[k] = []string{strconv.Itoa(val)}
		default:
			q[k] = []string{fmt.Sprint(val)}
		}
	}
	return q
}
