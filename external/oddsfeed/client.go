package oddsfeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/freebetlabs/match-engine/internal/platform/logging"
	"github.com/freebetlabs/match-engine/internal/platform/resilience"
	"github.com/freebetlabs/match-engine/internal/usecase"
)

const (
	defaultBaseURL    = "https://api.the-odds-api.com/v4"
	defaultSportKey   = "soccer_epl"
	defaultRegions    = "us"
	defaultMarkets    = "h2h"
	defaultOddsFormat = "decimal"
	defaultDaysFrom   = 3

	headerRequestsUsed      = "x-requests-used"
	headerRequestsRemaining = "x-requests-remaining"

	drawOutcomeName = "Draw"
)

var apiKeyParamRegex = regexp.MustCompile(`apiKey=[^&\s"']+`)
var errFeedTransient = crerr.New("odds feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	SportKey       string
	Regions        string
	Markets        string
	OddsFormat     string
	Bookmakers     string
	DaysFrom       int
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	sportKey       string
	regions        string
	markets        string
	oddsFormat     string
	bookmakers     string
	daysFrom       int
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

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	daysFrom := cfg.DaysFrom
	if daysFrom <= 0 {
		daysFrom = defaultDaysFrom
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		sportKey:       firstNonEmpty(strings.TrimSpace(cfg.SportKey), defaultSportKey),
		regions:        firstNonEmpty(strings.TrimSpace(cfg.Regions), defaultRegions),
		markets:        firstNonEmpty(strings.TrimSpace(cfg.Markets), defaultMarkets),
		oddsFormat:     firstNonEmpty(strings.TrimSpace(cfg.OddsFormat), defaultOddsFormat),
		bookmakers:     strings.TrimSpace(cfg.Bookmakers),
		daysFrom:       daysFrom,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchOddsEvents pulls upcoming h2h odds for the configured sport. The
// quota counters come from the response headers of this very call.
func (c *Client) FetchOddsEvents(ctx context.Context) ([]usecase.ExternalOddsEvent, usecase.FeedUsage, error) {
	query := map[string]string{
		"regions":    c.regions,
		"markets":    c.markets,
		"oddsFormat": c.oddsFormat,
	}
	if c.bookmakers != "" {
		query["bookmakers"] = c.bookmakers
	}

	var payload []oddsEventPayload
	usage, err := c.doJSON(ctx, "/sports/"+c.sportKey+"/odds", query, &payload)
	if err != nil {
		return nil, usecase.FeedUsage{}, fmt.Errorf("fetch odds sport=%s: %w", c.sportKey, err)
	}

	out := make([]usecase.ExternalOddsEvent, 0, len(payload))
	for _, item := range payload {
		event, ok := mapOddsEvent(item)
		if !ok {
			c.logger.WarnContext(ctx, "odds feed record skipped", "event_id", item.ID, "reason", "missing id, teams or commence time")
			continue
		}
		out = append(out, event)
	}
	return out, usage, nil
}

// FetchScoreEvents pulls scores for matches that started within the
// configured daysFrom window, live ones included.
func (c *Client) FetchScoreEvents(ctx context.Context) ([]usecase.ExternalScoreEvent, usecase.FeedUsage, error) {
	query := map[string]string{
		"daysFrom": strconv.Itoa(c.daysFrom),
	}

	var payload []scoreEventPayload
	usage, err := c.doJSON(ctx, "/sports/"+c.sportKey+"/scores", query, &payload)
	if err != nil {
		return nil, usecase.FeedUsage{}, fmt.Errorf("fetch scores sport=%s: %w", c.sportKey, err)
	}

	out := make([]usecase.ExternalScoreEvent, 0, len(payload))
	for _, item := range payload {
		event, ok := mapScoreEvent(item)
		if !ok {
			c.logger.WarnContext(ctx, "scores feed record skipped", "event_id", item.ID, "reason", "missing id, teams or commence time")
			continue
		}
		out = append(out, event)
	}
	return out, usage, nil
}

type feedResponse struct {
	raw   []byte
	usage usecase.FeedUsage
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) (usecase.FeedUsage, error) {
	if c.apiKey == "" {
		return usecase.FeedUsage{}, crerr.New("odds feed api key is not configured")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "odds feed circuit breaker rejected request", "state", c.breaker.State())
			return usecase.FeedUsage{}, fmt.Errorf("%w: odds feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	for key, value := range query {
		values.Set(key, value)
	}
	values.Set("apiKey", c.apiKey)

	fullURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	key := path + "?" + values.Encode()
	out, err, _ := c.flight.Do(key, func() (any, error) {
		resp, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && isFeedCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return resp, reqErr
	})
	if err != nil {
		return usecase.FeedUsage{}, err
	}

	resp, ok := out.(feedResponse)
	if !ok {
		return usecase.FeedUsage{}, fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(resp.raw, target); err != nil {
		return usecase.FeedUsage{}, fmt.Errorf("decode feed payload: %w", err)
	}
	return resp.usage, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) (feedResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return feedResponse{}, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errFeedTransient, sanitizeSensitiveText(err.Error(), c.apiKey))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 6<<20))
			usage := parseUsageHeaders(resp.Header)
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return feedResponse{raw: raw, usage: usage}, nil
			} else {
				if isRetryableStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(raw))
				} else if isAuthStatus(resp.StatusCode) {
					lastErr = fmt.Errorf("%w: feed rejected credentials status=%d body=%s", usecase.ErrDependencyUnavailable, resp.StatusCode, abbreviateBody(raw))
					return feedResponse{}, lastErr
				} else {
					lastErr = fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
					return feedResponse{}, lastErr
				}
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
			return feedResponse{}, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "odds feed request failed", "url", redactAPIURL(fullURL), "error", lastErr)
	return feedResponse{}, lastErr
}

func mapOddsEvent(item oddsEventPayload) (usecase.ExternalOddsEvent, bool) {
	externalID := strings.TrimSpace(item.ID)
	homeTeam := strings.TrimSpace(item.HomeTeam)
	awayTeam := strings.TrimSpace(item.AwayTeam)
	if externalID == "" || homeTeam == "" || awayTeam == "" {
		return usecase.ExternalOddsEvent{}, false
	}

	commence := parseFeedTime(item.CommenceTime)
	if commence == nil {
		return usecase.ExternalOddsEvent{}, false
	}

	event := usecase.ExternalOddsEvent{
		ExternalID:   externalID,
		SportKey:     strings.TrimSpace(item.SportKey),
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: *commence,
	}

	for _, bookmaker := range item.Bookmakers {
		for _, market := range bookmaker.Markets {
			if !strings.EqualFold(strings.TrimSpace(market.Key), "h2h") {
				continue
			}
			for _, outcome := range market.Outcomes {
				price := outcome.Price
				switch strings.TrimSpace(outcome.Name) {
				case homeTeam:
					event.HomeOdds = &price
				case awayTeam:
					event.AwayOdds = &price
				case drawOutcomeName:
					event.DrawOdds = &price
				}
			}
		}
	}

	return event, true
}

func mapScoreEvent(item scoreEventPayload) (usecase.ExternalScoreEvent, bool) {
	externalID := strings.TrimSpace(item.ID)
	homeTeam := strings.TrimSpace(item.HomeTeam)
	awayTeam := strings.TrimSpace(item.AwayTeam)
	if externalID == "" || homeTeam == "" || awayTeam == "" {
		return usecase.ExternalScoreEvent{}, false
	}

	commence := parseFeedTime(item.CommenceTime)
	if commence == nil {
		return usecase.ExternalScoreEvent{}, false
	}

	event := usecase.ExternalScoreEvent{
		ExternalID:   externalID,
		SportKey:     strings.TrimSpace(item.SportKey),
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: *commence,
		Completed:    item.Completed,
	}

	for _, entry := range item.Scores {
		value, ok := parseScoreValue(entry.Score)
		if !ok {
			continue
		}
		switch strings.TrimSpace(entry.Name) {
		case homeTeam:
			event.HomeScore = value
		case awayTeam:
			event.AwayScore = value
		}
	}

	return event, true
}

// parseScoreValue turns a feed score string into a pointer. A blank
// string means "not published yet", never zero; garbage fails the parse.
func parseScoreValue(raw string) (*int, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, true
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return nil, false
	}
	return &parsed, true
}

func parseFeedTime(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	v := parsed.UTC()
	return &v
}

func parseUsageHeaders(header http.Header) usecase.FeedUsage {
	return usecase.FeedUsage{
		Used:      parseUsageHeader(header.Get(headerRequestsUsed)),
		Remaining: parseUsageHeader(header.Get(headerRequestsRemaining)),
	}
}

func parseUsageHeader(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func sanitizeSensitiveText(value, apiKey string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if apiKey != "" {
		value = strings.ReplaceAll(value, apiKey, "REDACTED")
	}
	return apiKeyParamRegex.ReplaceAllString(value, "apiKey=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return apiKeyParamRegex.ReplaceAllString(rawURL, "apiKey=REDACTED")
	}
	query := parsed.Query()
	if query.Get("apiKey") != "" {
		query.Set("apiKey", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func isFeedCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func abbreviateBody(body []byte) string {
	const maxLen = 256
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "..."
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
