package command

import (
	"context"
	"fmt"

	"github.com/Tiliavir/climesync/internal/field"
	"github.com/Tiliavir/climesync/internal/model"
)

// testURL is the server URL used in test mode when none is given.
const testURL = "tst"

func runConnect(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	return Connect(ctx, cc, args.String("url"), args == nil)
}

// Connect opens a client for url. An empty url falls back to the config file
// and, when interactive, to a prompt.
func Connect(ctx context.Context, cc *ClientContext, url string, interactive bool) (Result, error) {
	if url == "" {
		url = cc.Config.TimeSyncURL
	}
	if url == "" && cc.Test {
		url = testURL
	}
	if url == "" && interactive {
		v, _, err := cc.Prompter.Field(field.Spec{Name: "timesync_url", Prompt: "URL of TimeSync server"}, nil)
		if err != nil {
			return Result{}, err
		}
		url = v.(string)
		if err := cc.offerConfig("timesync_url", url); err != nil {
			return Result{}, err
		}
	}
	if url == "" {
		return Result{}, fmt.Errorf("couldn't connect to TimeSync: is timesync_url set in %s?", cc.ConfigPath)
	}

	dial := cc.Dial
	if dial == nil {
		dial = DialTimeSync(cc.logger())
	}
	cc.Client = dial(url, cc.Test)
	cc.clearCaches()
	cc.logger().Info("connected", "url", url, "test", cc.Test)
	return Result{Note: "Connected to " + url}, nil
}

func runDisconnect(_ context.Context, cc *ClientContext, _ model.Record) (Result, error) {
	cc.Client = nil
	cc.clearCaches()
	return Result{Note: "Disconnected"}, nil
}

func runSignIn(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	return SignIn(ctx, cc, args, args == nil)
}

// SignIn authenticates the connected client. Credentials come from creds,
// then the config file, then prompts when interactive. Without an ldap choice,
// password authentication is used outside the prompt.
func SignIn(ctx context.Context, cc *ClientContext, creds model.Record, interactive bool) (Result, error) {
	if err := cc.check(ctx, Connected); err != nil {
		return Result{}, err
	}

	username := creds.String("username")
	if username == "" {
		username = cc.Config.Username
	}
	password := creds.String("password")
	if password == "" {
		password = cc.Config.Password
	}
	ldap, hasLDAP := creds["ldap"].(bool)
	if !hasLDAP && cc.Config.LDAP != nil {
		ldap, hasLDAP = *cc.Config.LDAP, true
	}

	if interactive {
		if username == "" {
			v, _, err := cc.Prompter.Field(field.Spec{Name: "username", Prompt: "Username"}, nil)
			if err != nil {
				return Result{}, err
			}
			username = v.(string)
			if err := cc.offerConfig("username", username); err != nil {
				return Result{}, err
			}
		}
		if password == "" {
			v, _, err := cc.Prompter.Field(field.Spec{Name: "password", Prompt: "Password", Kind: field.Password}, nil)
			if err != nil {
				return Result{}, err
			}
			password = v.(string)
			if err := cc.offerConfig("password", password); err != nil {
				return Result{}, err
			}
		}
		if !hasLDAP {
			v, _, err := cc.Prompter.Field(field.Spec{Name: "ldap", Prompt: "Authenticate using LDAP", Kind: field.Bool}, nil)
			if err != nil {
				return Result{}, err
			}
			ldap = v.(bool)
			if err := cc.offerConfig("ldap", ldap); err != nil {
				return Result{}, err
			}
		}
	}
	if username == "" || password == "" {
		return Result{}, fmt.Errorf("sign-in needs a username and password: set them in %s or pass them as flags", cc.ConfigPath)
	}

	rec, err := cc.Client.Authenticate(ctx, username, password, authMethod(ldap))
	if err != nil {
		return Result{}, err
	}
	cc.logger().Info("signed in", "user", username, "ldap", ldap)
	if err := cc.cache(ctx); err != nil {
		cc.logger().Warn("could not cache validator lists", "error", err)
	}

	res := Result{Note: "Signed in as " + username}
	if len(rec) > 0 {
		res.Records = []model.Record{rec}
	}
	return res, nil
}

func runSignOut(_ context.Context, cc *ClientContext, _ model.Record) (Result, error) {
	dial := cc.Dial
	if dial == nil {
		dial = DialTimeSync(cc.logger())
	}
	cc.Client = dial(cc.Client.BaseURL(), cc.Test)
	cc.clearCaches()
	return Result{Note: "Signed out"}, nil
}

func runUpdateSettings(ctx context.Context, cc *ClientContext, args model.Record) (Result, error) {
	specs := []field.Spec{
		{Name: "password", Prompt: "Updated password", Kind: field.Password, Optional: true},
		{Name: "display_name", Prompt: "Updated display name", Optional: true},
		{Name: "email", Prompt: "Updated email", Optional: true},
	}
	values := args
	if values == nil {
		var err error
		values, err = cc.Prompter.Collect(specs, cc.User)
		if err != nil {
			return Result{}, err
		}
	}
	if len(values) == 0 {
		return Result{Note: "Nothing to update"}, nil
	}

	updated, err := cc.Client.UpdateUser(ctx, cc.Client.Username(), values)
	if err != nil {
		return Result{}, err
	}
	cc.User = updated
	if pw := values.String("password"); pw != "" && cc.Config.Password != "" {
		if err := cc.offerConfig("password", pw); err != nil {
			return Result{}, err
		}
	}
	return Result{Records: []model.Record{updated}}, nil
}
