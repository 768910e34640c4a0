package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client is an HTTP client for the automation gateway
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// Config holds client configuration
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// LoadConfig loads gateway configuration from environment variables
func LoadConfig() *Config {
	timeout := 60 * time.Second
	if raw := os.Getenv("TWITTER_GATEWAY_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	return &Config{
		BaseURL:   getEnv("TWITTER_GATEWAY_URL", "http://localhost:8800"),
		AuthToken: os.Getenv("TWITTER_GATEWAY_TOKEN"),
		Timeout:   timeout,
	}
}

// NewClient creates a new gateway client. Transient transport failures
// (timeouts, 5xx) are retried by the underlying retryable transport; a
// response the gateway actually produced is never retried here.
func NewClient(config *Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.HTTPClient.Timeout = config.Timeout
	retryClient.Logger = nil

	return &Client{
		baseURL:    config.BaseURL,
		authToken:  config.AuthToken,
		httpClient: retryClient.StandardClient(),
	}
}

// ReadLastMentions fetches the latest mentions of the authenticated account
func (c *Client) ReadLastMentions(ctx context.Context, count int) ([]Tweet, error) {
	var resp struct {
		Mentions []Tweet `json:"mentions"`
	}
	path := fmt.Sprintf("/v1/mentions?count=%d", count)
	if err := c.get(ctx, "read_mentions", path, &resp); err != nil {
		return nil, err
	}
	return resp.Mentions, nil
}

// ReadLastTweets fetches the latest tweets from a user's profile
func (c *Client) ReadLastTweets(ctx context.Context, username string, count int) ([]Tweet, error) {
	var resp struct {
		Tweets []Tweet `json:"tweets"`
	}
	path := fmt.Sprintf("/v1/users/%s/tweets?count=%d", username, count)
	if err := c.get(ctx, "read_tweets", path, &resp); err != nil {
		return nil, err
	}
	return resp.Tweets, nil
}

// Reply posts a reply to a tweet and returns the new tweet's id
func (c *Client) Reply(ctx context.Context, tweetID, text string) (string, error) {
	var result PostResult
	body := map[string]string{"tweet_id": tweetID, "text": text}
	if err := c.post(ctx, "reply", "/v1/reply", body, &result); err != nil {
		return "", err
	}
	return result.TweetID, nil
}

// Quote posts a quote tweet and returns the new tweet's id
func (c *Client) Quote(ctx context.Context, tweetID, text string) (string, error) {
	var result PostResult
	body := map[string]string{"tweet_id": tweetID, "text": text}
	if err := c.post(ctx, "quote", "/v1/quote", body, &result); err != nil {
		return "", err
	}
	return result.TweetID, nil
}

// Post publishes a new tweet and returns its id
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	var result PostResult
	body := map[string]string{"text": text}
	if err := c.post(ctx, "post", "/v1/tweet", body, &result); err != nil {
		return "", err
	}
	return result.TweetID, nil
}

// Repost retweets a tweet
func (c *Client) Repost(ctx context.Context, tweetID string) error {
	body := map[string]string{"tweet_id": tweetID}
	return c.post(ctx, "repost", "/v1/retweet", body, nil)
}

func (c *Client) get(ctx context.Context, op, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &SourceError{Op: op, Code: "bad_request", Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &SourceError{Op: op, Code: "bad_request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return &SourceError{Op: op, Code: "bad_request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out interface{}) error {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &SourceError{Op: op, Code: "transport", Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &SourceError{Op: op, Code: "transport", Retryable: true, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var gatewayErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		code := fmt.Sprintf("http_%d", resp.StatusCode)
		if json.Unmarshal(respBody, &gatewayErr) == nil && gatewayErr.Code != "" {
			code = gatewayErr.Code
		}
		return &SourceError{
			Op:        op,
			Code:      code,
			Retryable: resp.StatusCode >= 500,
			Err:       fmt.Errorf("%s", resp.Status),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &SourceError{Op: op, Code: "bad_response", Err: err}
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
