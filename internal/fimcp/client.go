package fimcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ecofinance/finagent/internal/log"
	"github.com/ecofinance/finagent/internal/session"
)

// DefaultTimeout bounds a single remote call when no explicit timeout
// is configured.
const DefaultTimeout = 30 * time.Second

// maxReplyBytes caps how much of a reply body is read.
const maxReplyBytes = 4 << 20

// Client invokes tools on the Fi MCP service over HTTP.
//
// The client owns credential handling: it attaches the actor's stored
// credential to each call and, on a login_required interrupt, clears
// the stale credential and adopts the server-chosen session identifier
// from the login URL. It never retries a call on its own.
type Client struct {
	endpoint string
	store    session.Store
	httpc    *http.Client
	logger   log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithLogger sets the client logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the service at endpoint, using store
// for per-actor credentials.
func NewClient(endpoint string, store session.Store, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		store:    store,
		httpc:    &http.Client{Timeout: DefaultTimeout},
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke calls the named tool for the given actor and returns the
// decoded outcome.
//
// Degraded remote behaviour (transport failure, non-success status,
// malformed reply) is reported in the Result as StatusFailed, not as an
// error. A non-nil error means the credential store itself failed and
// the turn cannot proceed.
//
// A missing credential does not short-circuit the call: the request is
// sent without the session header and the service decides whether login
// is required.
func (c *Client) Invoke(ctx context.Context, actorID, tool string, args map[string]any) (Result, error) {
	cred, ok, err := c.store.Get(ctx, actorID)
	if err != nil {
		return Result{}, fmt.Errorf("reading session credential: %w", err)
	}

	if args == nil {
		args = map[string]any{}
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  methodToolsCall,
		Params:  callParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return Result{}, fmt.Errorf("encoding tool call: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return Result{}, fmt.Errorf("building tool call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if ok {
		req.Header.Set(SessionHeader, cred.Token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "fi-mcp call failed", "tool", tool, "error", err)
		return Failure(fmt.Sprintf("calling %s: %v", tool, err)), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Failure(fmt.Sprintf("reading %s reply: %v", tool, err)), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.WarnContext(ctx, "fi-mcp returned error status",
			"tool", tool, "status", resp.StatusCode)
		return Failure(fmt.Sprintf("%s returned HTTP %d", tool, resp.StatusCode)), nil
	}

	var envelope rpcResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Failure(fmt.Sprintf("decoding %s reply envelope: %v", tool, err)), nil
	}
	if envelope.Error != nil {
		return Failure(fmt.Sprintf("%s remote error %d: %s",
			tool, envelope.Error.Code, envelope.Error.Message)), nil
	}
	if envelope.Result == nil || len(envelope.Result.Content) == 0 {
		return Failure(fmt.Sprintf("%s returned an empty reply", tool)), nil
	}

	return c.decodeInner(ctx, actorID, tool, envelope.Result.Content[0].Text)
}

// decodeInner resolves the loosely typed inner text: a login_required
// marker, a structured JSON object, or opaque instructional text. Only
// the marker path touches the store.
func (c *Client) decodeInner(ctx context.Context, actorID, tool, text string) (Result, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		// Not a JSON object. Pass it through for the model to relay.
		return Ok(text, nil), nil
	}

	var marker loginMarker
	if err := json.Unmarshal([]byte(text), &marker); err == nil && marker.Status == statusLoginRequired {
		if err := c.adoptLoginSession(ctx, actorID, marker.LoginURL); err != nil {
			return Result{}, err
		}
		c.logger.InfoContext(ctx, "fi-mcp requires login", "tool", tool)
		return LoginRequired(marker.LoginURL, marker.Message), nil
	}

	return Ok(text, payload), nil
}

// adoptLoginSession invalidates the stale credential and stores the
// session identifier the service embedded in the login URL, so that the
// out-of-band login the user completes binds to the credential the next
// call will present.
func (c *Client) adoptLoginSession(ctx context.Context, actorID, loginURL string) error {
	if err := c.store.Clear(ctx, actorID); err != nil {
		return fmt.Errorf("clearing stale credential: %w", err)
	}

	u, err := url.Parse(loginURL)
	if err != nil {
		c.logger.WarnContext(ctx, "unparseable login url", "error", err)
		return nil
	}
	sid := u.Query().Get("sessionId")
	if sid == "" {
		return nil
	}
	if err := c.store.Set(ctx, actorID, sid); err != nil {
		return fmt.Errorf("adopting login session: %w", err)
	}
	return nil
}
