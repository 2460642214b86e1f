package timesync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/Tiliavir/climesync/internal/model"
)

// HTTPClient is a Client for the TimeSync v0 REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	token      *oauth2.Token
	username   string
}

// NewHTTPClient returns a client for the API rooted at baseURL. A nil
// httpClient uses one with a 30s timeout.
func NewHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *HTTPClient) Username() string   { return c.username }
func (c *HTTPClient) BaseURL() string    { return c.baseURL }
func (c *HTTPClient) Test() bool         { return false }
func (c *HTTPClient) TokenExpired() bool { return tokenExpired(c.token) }

// Authenticate logs in and keeps the returned token for later calls.
func (c *HTTPClient) Authenticate(ctx context.Context, username, password string, method AuthMethod) (model.Record, error) {
	body := map[string]any{"auth": map[string]string{
		"type":     string(method),
		"username": username,
		"password": password,
	}}
	recs, err := c.do(ctx, http.MethodPost, "/login", nil, body)
	if err != nil {
		return nil, err
	}
	rec := first(recs)
	raw := rec.String("token")
	if raw == "" {
		return nil, &APIError{Kind: "Authentication failed", Text: "no token in login response", Record: rec}
	}
	tok, err := tokenFromJWT(raw)
	if err != nil {
		return nil, err
	}
	c.token = tok
	c.username = username
	c.logger.Debug("authenticated", "user", username, "method", method, "expiry", tok.Expiry)
	return rec, nil
}

func (c *HTTPClient) CreateTime(ctx context.Context, t model.Record) (model.Record, error) {
	return c.write(ctx, "/times", t)
}

func (c *HTTPClient) UpdateTime(ctx context.Context, uuid string, t model.Record) (model.Record, error) {
	return c.write(ctx, "/times/"+url.PathEscape(uuid), t)
}

func (c *HTTPClient) GetTimes(ctx context.Context, q Query) ([]model.Record, error) {
	return c.get(ctx, "/times", "uuid", q)
}

func (c *HTTPClient) DeleteTime(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/times/"+url.PathEscape(uuid))
}

func (c *HTTPClient) CreateProject(ctx context.Context, p model.Record) (model.Record, error) {
	return c.write(ctx, "/projects", p)
}

func (c *HTTPClient) UpdateProject(ctx context.Context, slug string, p model.Record) (model.Record, error) {
	return c.write(ctx, "/projects/"+url.PathEscape(slug), p)
}

func (c *HTTPClient) GetProjects(ctx context.Context, q Query) ([]model.Record, error) {
	return c.get(ctx, "/projects", "slug", q)
}

func (c *HTTPClient) DeleteProject(ctx context.Context, slug string) error {
	return c.delete(ctx, "/projects/"+url.PathEscape(slug))
}

func (c *HTTPClient) CreateActivity(ctx context.Context, a model.Record) (model.Record, error) {
	return c.write(ctx, "/activities", a)
}

func (c *HTTPClient) UpdateActivity(ctx context.Context, slug string, a model.Record) (model.Record, error) {
	return c.write(ctx, "/activities/"+url.PathEscape(slug), a)
}

func (c *HTTPClient) GetActivities(ctx context.Context, q Query) ([]model.Record, error) {
	return c.get(ctx, "/activities", "slug", q)
}

func (c *HTTPClient) DeleteActivity(ctx context.Context, slug string) error {
	return c.delete(ctx, "/activities/"+url.PathEscape(slug))
}

func (c *HTTPClient) CreateUser(ctx context.Context, u model.Record) (model.Record, error) {
	return c.write(ctx, "/users", u)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, username string, u model.Record) (model.Record, error) {
	return c.write(ctx, "/users/"+url.PathEscape(username), u)
}

func (c *HTTPClient) GetUsers(ctx context.Context, username string) ([]model.Record, error) {
	path := "/users"
	if username != "" {
		path += "/" + url.PathEscape(username)
	}
	return c.do(ctx, http.MethodGet, path, c.tokenQuery(nil), nil)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, username string) error {
	return c.delete(ctx, "/users/"+url.PathEscape(username))
}

func (c *HTTPClient) ProjectUsers(ctx context.Context, slug string) (map[string][]string, error) {
	recs, err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(slug)+"/users", c.tokenQuery(nil), nil)
	if err != nil {
		return nil, err
	}
	users := map[string][]string{}
	rec := first(recs)
	for _, name := range rec.Keys() {
		users[name] = rec.Strings(name)
	}
	return users, nil
}

// get lists a collection. A value for idKey selects a single object by path.
func (c *HTTPClient) get(ctx context.Context, collection, idKey string, q Query) ([]model.Record, error) {
	path := collection
	params := url.Values{}
	for k, vs := range q {
		if k == idKey {
			continue
		}
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	if id := q.Single(idKey); id != "" {
		path += "/" + url.PathEscape(id)
	}
	return c.do(ctx, http.MethodGet, path, c.tokenQuery(params), nil)
}

func (c *HTTPClient) write(ctx context.Context, path string, object model.Record) (model.Record, error) {
	body := map[string]any{
		"auth":   map[string]string{"type": "token", "token": c.accessToken()},
		"object": object,
	}
	recs, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}
	return first(recs), nil
}

func (c *HTTPClient) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, c.tokenQuery(nil), nil)
	return err
}

func (c *HTTPClient) tokenQuery(params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.accessToken())
	return params
}

func (c *HTTPClient) accessToken() string {
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// do sends one request and decodes a JSON object or array of objects. A body
// with an "error" key or a non-2xx status becomes an *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, body any) ([]model.Record, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timesync request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.logger.Debug("timesync request", "method", method, "path", path, "status", resp.StatusCode)

	recs, decodeErr := decodeRecords(data)
	for _, rec := range recs {
		if _, ok := rec["error"]; ok {
			return nil, apiError(resp.StatusCode, rec)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Kind: http.StatusText(resp.StatusCode), Text: strings.TrimSpace(string(data))}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding timesync response: %w", decodeErr)
	}
	return recs, nil
}

func decodeRecords(data []byte) ([]model.Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var recs []model.Record
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		return recs, nil
	}
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return []model.Record{rec}, nil
}

func first(recs []model.Record) model.Record {
	if len(recs) == 0 {
		return model.Record{}
	}
	return recs[0]
}
