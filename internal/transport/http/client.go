package http

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

	"github.com/google/uuid"

	"werewolf-client/internal/domain"
)

const (
	// maxBodySize bounds how much of a response body is read
	maxBodySize = 1 << 20

	// RequestIDHeader carries a per-request id for server-side correlation
	RequestIDHeader = "X-Request-ID"
)

// Client is a read-mostly accessor over the game server JSON API. Every
// value it returns may be stale the moment it is returned.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a new API client. baseURL includes the API root, e.g.
// http://127.0.0.1:8000/api. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchSelf handles GET /games/{gameId}/me?player_id=...
func (c *Client) FetchSelf(ctx context.Context, gameID, playerID string) (domain.SelfInfo, error) {
	var me domain.SelfInfo
	path := domain.GamePath(gameID, "me") + "?player_id=" + url.QueryEscape(playerID)
	if err := c.getJSON(ctx, path, &me); err != nil {
		return domain.SelfInfo{}, err
	}
	return me, nil
}

// FetchRoster handles GET /games/{gameId}/members
func (c *Client) FetchRoster(ctx context.Context, gameID string) ([]domain.Member, error) {
	var members []domain.Member
	if err := c.getJSON(ctx, domain.GamePath(gameID, "members"), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// FetchGame handles GET /games/{gameId}
func (c *Client) FetchGame(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	var game domain.GameSnapshot
	if err := c.getJSON(ctx, domain.GamePath(gameID), &game); err != nil {
		return domain.GameSnapshot{}, err
	}
	return game, nil
}

// FetchNightProgress handles GET /games/{gameId}/night_actions_status
func (c *Client) FetchNightProgress(ctx context.Context, gameID string) (domain.NightProgress, error) {
	var progress domain.NightProgress
	if err := c.getJSON(ctx, domain.GamePath(gameID, "night_actions_status"), &progress); err != nil {
		return domain.NightProgress{}, err
	}
	return progress, nil
}

// FetchJudge handles GET /games/{gameId}/judge
func (c *Client) FetchJudge(ctx context.Context, gameID string) (domain.JudgeResult, error) {
	var result domain.JudgeResult
	if err := c.getJSON(ctx, domain.GamePath(gameID, "judge"), &result); err != nil {
		return domain.JudgeResult{}, err
	}
	return result, nil
}

// FetchActionStatus handles GET /games/{gameId}/night_actions/{memberId}
func (c *Client) FetchActionStatus(ctx context.Context, gameID, memberID string) (domain.ActionStatus, error) {
	var status domain.ActionStatus
	if err := c.getJSON(ctx, domain.GamePath(gameID, "night_actions", memberID), &status); err != nil {
		return domain.ActionStatus{}, err
	}
	return status, nil
}

// FetchDayVoteStatus handles GET /games/{gameId}/day_vote_status
func (c *Client) FetchDayVoteStatus(ctx context.Context, gameID string) (domain.DayVoteStatus, error) {
	var status domain.DayVoteStatus
	if err := c.getJSON(ctx, domain.GamePath(gameID, "day_vote_status"), &status); err != nil {
		return domain.DayVoteStatus{}, err
	}
	return status, nil
}

// FetchRevealRoles handles GET /games/{gameId}/reveal_roles
func (c *Client) FetchRevealRoles(ctx context.Context, gameID string) (domain.RoleReveal, error) {
	var reveal domain.RoleReveal
	if err := c.getJSON(ctx, domain.GamePath(gameID, "reveal_roles"), &reveal); err != nil {
		return domain.RoleReveal{}, err
	}
	return reveal, nil
}

// PostAction posts a JSON body to path (relative to the API root) and returns
// the raw success body. Any non-2xx answer is a *FetchError.
func (c *Client) PostAction(ctx context.Context, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode action body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload))
}

// getJSON performs a GET and decodes the success body into dest
func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &MalformedResponseError{Path: path, Err: err}
	}
	return nil
}

// do sends one request and returns the body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"requestID", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newFetchError(method, path, resp.StatusCode, data)
	}
	return data, nil
}
