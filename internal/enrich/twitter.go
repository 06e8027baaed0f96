package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"

	"github.com/SashaBaych/steam-scrape/internal/config"
	"github.com/SashaBaych/steam-scrape/internal/types"
)

const searchPath = "/search/tweets.json"

var nextMaxID = regexp.MustCompile(`max_id=(\d+)`)

type searchResponse struct {
	Statuses []struct {
		Text     string `json:"text"`
		FullText string `json:"full_text"`
	} `json:"statuses"`
	SearchMetadata struct {
		NextResults string `json:"next_results"`
	} `json:"search_metadata"`
}

// TwitterClient counts recent mentions through the v1.1 search endpoint.
type TwitterClient struct {
	http     *resty.Client
	window   time.Duration
	maxPages int
	logger   *slog.Logger
}

// NewTwitterClient builds a client signed with OAuth1 user credentials, or
// with an app bearer token when no access token is configured.
func NewTwitterClient(cfg config.TwitterConfig, logger *slog.Logger) (*TwitterClient, error) {
	var base *http.Client
	switch {
	case cfg.AccessToken != "":
		oc := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
		base = oc.Client(context.Background(), oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret))
	case cfg.BearerToken != "":
		base = &http.Client{}
	default:
		return nil, fmt.Errorf("twitter credentials are not configured")
	}

	rc := resty.NewWithClient(base).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.AccessToken == "" {
		rc.SetAuthToken(cfg.BearerToken)
	}

	return &TwitterClient{
		http:     rc,
		window:   cfg.Window,
		maxPages: cfg.MaxPages,
		logger:   logger.With("component", "twitter_client"),
	}, nil
}

// CountMentions counts statuses posted in the window ending at now whose text
// contains query, ignoring case. A non-200 page stops paging; the count so far
// is returned together with the error.
func (c *TwitterClient) CountMentions(ctx context.Context, query string, now time.Time) (int, error) {
	params := map[string]string{
		"q":           query,
		"count":       "100",
		"result_type": "recent",
		"tweet_mode":  "extended",
		"since":       now.Add(-c.window).Format(types.DateLayout),
		"until":       now.Format(types.DateLayout),
	}
	needle := strings.ToLower(query)

	total := 0
	var maxID int64
	for page := 0; page < c.maxPages; page++ {
		req := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&searchResponse{})
		if maxID > 0 {
			req.SetQueryParam("max_id", strconv.FormatInt(maxID, 10))
		}

		resp, err := req.Get(searchPath)
		if err != nil {
			return total, &types.FetchError{URL: searchPath, Err: err}
		}
		if resp.StatusCode() != http.StatusOK {
			return total, &types.FetchError{
				URL:        searchPath,
				StatusCode: resp.StatusCode(),
				Err:        fmt.Errorf("search %q: %s", query, strings.TrimSpace(resp.String())),
				Retryable:  resp.StatusCode() == http.StatusTooManyRequests,
			}
		}

		result := resp.Result().(*searchResponse)
		for _, st := range result.Statuses {
			text := st.FullText
			if text == "" {
				text = st.Text
			}
			if strings.Contains(strings.ToLower(text), needle) {
				total++
			}
		}

		m := nextMaxID.FindStringSubmatch(result.SearchMetadata.NextResults)
		if m == nil {
			break
		}
		next, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			break
		}
		maxID = next - 1
	}

	c.logger.Debug("mentions counted", "query", query, "count", total)
	return total, nil
}
