package command

import (
	"context"
	"fmt"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timesync"
)

func runCreateActivity(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	values := args
	if values == nil {
		var err error
		values, err = cc.Prompter.Collect([]field.Spec{
			{Name: "name", Prompt: "Activity name"},
			{Name: "slug", Prompt: "Activity slug"},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	created, err := cc.Client.CreateActivity(ctx, values)
	if err != nil {
		return Result{}, err
	}
	if cc.Activities != nil {
		cc.Activities = append(cc.Activities, created.String("slug"))
	}
	return Result{Records: []model.Record{created}}, nil
}

func runUpdateActivity(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "old_slug", "Slug of activity to update")
	if err != nil {
		return Result{}, err
	}

	values := args.Clone()
	delete(values, "old_slug")
	if args == nil {
		current, err := cc.activity(ctx, slug)
		if err != nil {
			return Result{}, err
		}
		values, err = cc.Prompter.Collect([]field.Spec{
			{Name: "name", Prompt: "Updated activity name", Optional: true},
			{Name: "slug", Prompt: "Updated activity slug", Optional: true},
		}, current)
		if err != nil {
			return Result{}, err
		}
	}

	updated, err := cc.Client.UpdateActivity(ctx, slug, values)
	if err != nil {
		return Result{}, err
	}
	return Result{Records: []model.Record{updated}}, nil
}

func runGetActivities(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	filters := args
	if filters == nil {
		var err error
		filters, err = cc.Prompter.Collect([]field.Spec{
			{Name: "slug", Prompt: "Activity slug", Optional: true, Choices: cc.Activities},
			{Name: "include_revisions", Prompt: "Include revised activities", Kind: field.Bool, Optional: true},
			{Name: "include_deleted", Prompt: "Include deleted activities", Kind: field.Bool, Optional: true},
		}, nil)
		if err != nil {
			return Result{}, err
		}
	}

	activities, err := cc.Client.GetActivities(ctx, toQuery(filters))
	if err != nil {
		return Result{}, err
	}
	if len(activities) == 0 {
		return Result{Note: "No activities were returned"}, nil
	}
	return Result{Records: activities}, nil
}

func runDeleteActivity(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	slug, err := cc.identifier(args, "slug", "Slug of activity to delete")
	if err != nil {
		return Result{}, err
	}
	if ok, err := cc.confirmDelete(args, slug); err != nil || !ok {
		return Result{}, err
	}
	if err := cc.Client.DeleteActivity(ctx, slug); err != nil {
		return Result{}, err
	}
	return Result{Note: "Deleted activity " + slug}, nil
}

func (cc *ClientContext) activity(ctx context.Context, slug string) (model.Record, error) {
	activities, err := cc.Client.GetActivities(ctx, timesync.Query{"slug": {slug}})
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, fmt.Errorf("activity %s not found", slug)
	}
	return activities[0], nil
}
