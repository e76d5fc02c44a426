package sleeper

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/platform/resilience"
)

const (
	defaultBaseURL      = "https://api.sleeper.app/v1"
	defaultStatsBaseURL = "https://api.sleeper.com"
)

var errSleeperTransient = crerr.New("sleeper transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	StatsBaseURL   string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the upstream fantasy feeds. Every call returns decoded
// JSON or an error; a non-2xx status is a recoverable per-call failure, and
// identical concurrent requests are collapsed to one.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	statsBaseURL   string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// Copy so defaulting the timeout never mutates the caller's client.
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	statsBaseURL := strings.TrimRight(strings.TrimSpace(cfg.StatsBaseURL), "/")
	if statsBaseURL == "" {
		statsBaseURL = defaultStatsBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		statsBaseURL:   statsBaseURL,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) GetState(ctx context.Context) (State, error) {
	var state State
	if err := c.doJSON(ctx, c.baseURL+"/state/nfl", nil, &state); err != nil {
		return State{}, fmt.Errorf("fetch nfl state: %w", err)
	}
	return state, nil
}

func (c *Client) GetLeague(ctx context.Context, leagueID string) (League, error) {
	var league League
	if err := c.doJSON(ctx, c.baseURL+"/league/"+url.PathEscape(leagueID), nil, &league); err != nil {
		return League{}, fmt.Errorf("fetch league league_id=%s: %w", leagueID, err)
	}
	return league, nil
}

func (c *Client) GetRosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var raw []rawRoster
	if err := c.doJSON(ctx, c.baseURL+"/league/"+url.PathEscape(leagueID)+"/rosters", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch rosters league_id=%s: %w", leagueID, err)
	}

	rosters := make([]Roster, 0, len(raw))
	for _, item := range raw {
		rosters = append(rosters, item.toRoster())
	}
	return rosters, nil
}

func (c *Client) GetMatchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	path := c.baseURL + "/league/" + url.PathEscape(leagueID) + "/matchups/" + strconv.Itoa(week)
	var raw []rawMatchup
	if err := c.doJSON(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch matchups league_id=%s week=%d: %w", leagueID, week, err)
	}

	matchups := make([]Matchup, 0, len(raw))
	for _, item := range raw {
		matchups = append(matchups, item.toMatchup())
	}
	return matchups, nil
}

func (c *Client) FetchPlayerCatalog(ctx context.Context) (map[string]CatalogPlayer, error) {
	var catalog map[string]CatalogPlayer
	if err := c.doJSON(ctx, c.baseURL+"/players/nfl", nil, &catalog); err != nil {
		return nil, fmt.Errorf("fetch player catalog: %w", err)
	}
	return catalog, nil
}

// FetchWeekStats normalizes the weekly actual-stat dump. The primary feed
// is tried first, then the legacy feed; a final failure degrades to an
// empty feed rather than an error, so upstream trouble shrinks data
// completeness instead of aborting a snapshot build.
func (c *Client) FetchWeekStats(ctx context.Context, season string, week int, weights map[string]float64) NormalizedFeed {
	primary := fmt.Sprintf("%s/stats/nfl/%s/%d", c.statsBaseURL, url.PathEscape(season), week)
	legacy := fmt.Sprintf("%s/stats/nfl/regular/%s/%d", c.baseURL, url.PathEscape(season), week)
	return c.fetchFeed(ctx, "stats", primary, legacy, weights)
}

// FetchWeekProjections behaves like FetchWeekStats for the projection feed.
func (c *Client) FetchWeekProjections(ctx context.Context, season string, week int, weights map[string]float64) NormalizedFeed {
	primary := fmt.Sprintf("%s/projections/nfl/%s/%d", c.statsBaseURL, url.PathEscape(season), week)
	legacy := fmt.Sprintf("%s/projections/nfl/regular/%s/%d", c.baseURL, url.PathEscape(season), week)
	return c.fetchFeed(ctx, "projections", primary, legacy, weights)
}

func (c *Client) fetchFeed(ctx context.Context, kind, primaryURL, legacyURL string, weights map[string]float64) NormalizedFeed {
	query := map[string]string{"season_type": "regular"}

	var raw any
	err := c.doJSON(ctx, primaryURL, query, &raw)
	if err == nil && !rawFeedEmpty(raw) {
		return NormalizeFeed(raw, weights)
	}
	if err != nil {
		c.logger.WarnContext(ctx, "primary feed failed, trying legacy endpoint", "feed", kind, "error", err)
	} else {
		c.logger.WarnContext(ctx, "primary feed returned no records, trying legacy endpoint", "feed", kind)
	}

	raw = nil
	if err := c.doJSON(ctx, legacyURL, nil, &raw); err != nil {
		c.logger.WarnContext(ctx, "legacy feed failed, degrading to empty feed", "feed", kind, "error", err)
		return emptyFeed()
	}
	return NormalizeFeed(raw, weights)
}

func rawFeedEmpty(raw any) bool {
	switch payload := raw.(type) {
	case []any:
		return len(payload) == 0
	case map[string]any:
		return len(payload) == 0
	default:
		return true
	}
}

func (c *Client) doJSON(ctx context.Context, fullURL string, query map[string]string, target any) error {
	if len(query) > 0 {
		values := url.Values{}
		for key, value := range query {
			values.Set(key, value)
		}
		fullURL += "?" + values.Encode()
	}

	// The breaker is consulted inside the flight so one shared execution
	// makes exactly one Allow/record pair; callers that join an in-flight
	// request must not reserve half-open slots they will never release.
	out, err, _ := c.flight.Do(fullURL, func() (any, error) {
		if c.circuitEnabled {
			if err := c.breaker.Allow(); err != nil {
				c.logger.WarnContext(ctx, "sleeper circuit breaker rejected request", "state", c.breaker.State())
				return nil, fmt.Errorf("upstream feed is temporarily unavailable: %w", err)
			}
		}

		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errSleeperTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errSleeperTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSleeperTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errSleeperTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "sleeper request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	const limit = 256
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
