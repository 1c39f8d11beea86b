// Package hosted talks to the managed backend over HTTP: an auth API under
// /auth/v1 and a PostgREST-style row API under /rest/v1.
package hosted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/angelmondragon/printshop-backend/pkg/backend"
	"github.com/angelmondragon/printshop-backend/pkg/config"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

const (
	authPrefix = "/auth/v1"
	restPrefix = "/rest/v1"

	headerAPIKey = "apikey"
	headerPrefer = "Prefer"

	mediaSingleObject = "application/vnd.pgrst.object+json"
)

// Client implements backend.Service against the hosted backend.
type Client struct {
	http    *resty.Client
	anonKey string
	logg    *logger.Logger

	auth   *authAPI
	tables *tablesAPI
}

var _ backend.Service = (*Client)(nil)

// New builds the HTTP client. There is no client timeout and no retry: every
// call is bounded by its request context and fails once.
func New(cfg config.BackendConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader(headerAPIKey, cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)

	c := &Client{http: httpClient, anonKey: cfg.AnonKey, logg: logg}
	c.auth = &authAPI{c: c}
	c.tables = &tablesAPI{c: c}
	return c, nil
}

func (c *Client) Auth() backend.Auth     { return c.auth }
func (c *Client) Tables() backend.Tables { return c.tables }

// Ping checks the auth API health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.request(ctx, "").Get(authPrefix + "/health")
	if err != nil {
		return transportError(err)
	}
	if resp.IsError() {
		return decodeAuthError(resp)
	}
	return nil
}

// request prepares a call authorised by token, or by the anon key when empty.
func (c *Client) request(ctx context.Context, token string) *resty.Request {
	if token == "" {
		token = c.anonKey
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
}

func transportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("backend unreachable: %w", err)
}

// authErrorBody covers both error shapes emitted by the auth API.
type authErrorBody struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func decodeAuthError(resp *resty.Response) error {
	out := &backend.Error{Status: resp.StatusCode()}
	var body authErrorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		out.Code = firstNonEmpty(body.ErrorCode, body.Error)
		out.Message = firstNonEmpty(body.Msg, body.Message, body.ErrorDescription, body.Error)
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(resp.Body()))
	}
	return out
}

func decodeRestError(resp *resty.Response) error {
	out := &backend.Error{}
	if err := json.Unmarshal(resp.Body(), out); err != nil || out.Message == "" {
		out.Message = strings.TrimSpace(string(resp.Body()))
	}
	out.Status = resp.StatusCode()
	// PGRST116: a single-object request matched zero (or several) rows.
	if out.Code == "PGRST116" && resp.StatusCode() == http.StatusNotAcceptable {
		out.Status = http.StatusNotFound
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
