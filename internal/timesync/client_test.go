package timesync_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tiliavir/climesync/internal/model"
	"github.com/Tiliavir/climesync/internal/timesync"
)

func jwt(exp time.Time) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := enc.EncodeToString([]byte(fmt.Sprintf(`{"iss":"osuosl-timesync","sub":"userone","exp":%d,"iat":0}`, exp.UnixMilli())))
	return header + "." + payload + ".c2lnbmF0dXJl"
}

// recorder captures requests and answers each with a fixed response.
type recorder struct {
	t        *testing.T
	requests []*http.Request
	bodies   []map[string]any
	status   int
	response any
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var body map[string]any
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	r.requests = append(r.requests, req)
	r.bodies = append(r.bodies, body)

	w.Header().Set("Content-Type", "application/json")
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(r.response); err != nil {
		r.t.Errorf("encoding response: %v", err)
	}
}

func signedIn(t *testing.T, rec *recorder) (*timesync.HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	rec.response = map[string]string{"token": jwt(time.Now().Add(time.Hour))}
	c := timesync.NewHTTPClient(srv.URL+"/", nil, nil)
	if _, err := c.Authenticate(context.Background(), "userone", "secret", timesync.AuthPassword); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	rec.requests, rec.bodies = nil, nil
	return c, srv
}

func TestAuthenticate(t *testing.T) {
	rec := &recorder{t: t}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c := timesync.NewHTTPClient(srv.URL, nil, nil)
	if !c.TokenExpired() {
		t.Fatal("TokenExpired before sign-in = false")
	}

	rec.response = map[string]string{"token": jwt(time.Now().Add(time.Hour))}
	if _, err := c.Authenticate(context.Background(), "userone", "secret", timesync.AuthLDAP); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if c.TokenExpired() {
		t.Error("TokenExpired after sign-in = true")
	}
	if c.Username() != "userone" {
		t.Errorf("Username = %q", c.Username())
	}

	req := rec.requests[0]
	if req.Method != http.MethodPost || req.URL.Path != "/login" {
		t.Errorf("login request = %s %s", req.Method, req.URL.Path)
	}
	auth, _ := rec.bodies[0]["auth"].(map[string]any)
	if auth["type"] != "ldap" || auth["username"] != "userone" || auth["password"] != "secret" {
		t.Errorf("login auth = %v", auth)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	rec := &recorder{t: t, response: map[string]string{"token": jwt(time.Now().Add(-time.Minute))}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c := timesync.NewHTTPClient(srv.URL, nil, nil)
	if _, err := c.Authenticate(context.Background(), "userone", "secret", timesync.AuthPassword); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !c.TokenExpired() {
		t.Error("TokenExpired = false for a token past its exp")
	}
}

func TestAuthenticateFailure(t *testing.T) {
	rec := &recorder{t: t, status: http.StatusUnauthorized, response: map[string]any{
		"status": 401, "error": "Authentication failure", "text": "Invalid username or password",
	}}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c := timesync.NewHTTPClient(srv.URL, nil, nil)
	_, err := c.Authenticate(context.Background(), "userone", "wrong", timesync.AuthPassword)
	var apiErr *timesync.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 401 || apiErr.Kind != "Authentication failure" || apiErr.Text != "Invalid username or password" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Record.String("error") != "Authentication failure" {
		t.Errorf("APIError.Record = %v", apiErr.Record)
	}
}

func TestGetTimesQuery(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.response = []map[string]any{{"uuid": "u1", "duration": 3600}}

	times, err := c.GetTimes(context.Background(), timesync.Query{
		"user":            {"userone", "usertwo"},
		"project":         {"gwm"},
		"include_deleted": {"true"},
	})
	if err != nil {
		t.Fatalf("GetTimes: %v", err)
	}
	if len(times) != 1 {
		t.Fatalf("GetTimes returned %d records", len(times))
	}
	if d, _ := times[0].Int("duration"); d != 3600 {
		t.Errorf("duration = %d", d)
	}

	q := rec.requests[0].URL.Query()
	if rec.requests[0].URL.Path != "/times" {
		t.Errorf("path = %s", rec.requests[0].URL.Path)
	}
	if got := q["user"]; len(got) != 2 || got[0] != "userone" || got[1] != "usertwo" {
		t.Errorf("user params = %v", got)
	}
	if q.Get("project") != "gwm" || q.Get("include_deleted") != "true" || q.Get("token") == "" {
		t.Errorf("query = %v", q)
	}
}

func TestGetByID(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.response = map[string]any{"slugs": []string{"gwm"}}

	projects, err := c.GetProjects(context.Background(), timesync.Query{"slug": {"gwm"}, "include_revisions": {"true"}})
	if err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("GetProjects returned %d records", len(projects))
	}
	req := rec.requests[0]
	if req.URL.Path != "/projects/gwm" {
		t.Errorf("path = %s", req.URL.Path)
	}
	if req.URL.Query().Has("slug") {
		t.Error("slug sent as a query parameter")
	}
}

func TestWriteBody(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.response = map[string]any{"uuid": "u1", "revision": 2}

	_, err := c.UpdateTime(context.Background(), "u1", model.Record{"duration": 1800})
	if err != nil {
		t.Fatalf("UpdateTime: %v", err)
	}
	req := rec.requests[0]
	if req.Method != http.MethodPost || req.URL.Path != "/times/u1" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
	body := rec.bodies[0]
	auth, _ := body["auth"].(map[string]any)
	if auth["type"] != "token" || auth["token"] == "" {
		t.Errorf("auth = %v", auth)
	}
	object, _ := body["object"].(map[string]any)
	if object["duration"] != float64(1800) {
		t.Errorf("object = %v", object)
	}
}

func TestDelete(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.response = nil

	if err := c.DeleteActivity(context.Background(), "docs"); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	req := rec.requests[0]
	if req.Method != http.MethodDelete || req.URL.Path != "/activities/docs" || req.URL.Query().Get("token") == "" {
		t.Errorf("request = %s %s", req.Method, req.URL)
	}
}

func TestNon2xxWithoutErrorKey(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.status = http.StatusInternalServerError
	rec.response = "boom"

	_, err := c.GetActivities(context.Background(), nil)
	var apiErr *timesync.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("error = %v, want 500 APIError", err)
	}
}

func TestProjectUsers(t *testing.T) {
	rec := &recorder{t: t}
	c, _ := signedIn(t, rec)
	rec.response = map[string][]string{"userone": {"member", "manager"}, "usertwo": {"spectator"}}

	users, err := c.ProjectUsers(context.Background(), "gwm")
	if err != nil {
		t.Fatalf("ProjectUsers: %v", err)
	}
	if rec.requests[0].URL.Path != "/projects/gwm/users" {
		t.Errorf("path = %s", rec.requests[0].URL.Path)
	}
	if len(users["userone"]) != 2 || users["usertwo"][0] != "spectator" {
		t.Errorf("users = %v", users)
	}
}
