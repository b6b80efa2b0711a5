package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public Open Trivia DB endpoint.
const DefaultBaseURL = "https://opentdb.com"

// Response codes returned by the API.
const (
	codeSuccess       = 0
	codeNoResults     = 1
	codeInvalidParam  = 2
	codeTokenNotFound = 3
	codeTokenEmpty    = 4
	codeRateLimit     = 5
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Retries  uint64
	RetryMin time.Duration
	UseToken bool
}

// Client fetches question batches from Open Trivia DB. By default it makes a single
// attempt per batch; Retries adds bounded exponential backoff for transient failures.
type Client struct {
	httpClient *http.Client
	baseURL    string
	retries    uint64
	retryMin   time.Duration
	useToken   bool

	sf    singleflight.Group
	mu    sync.Mutex
	token string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMin <= 0 {
		cfg.RetryMin = 500 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		retries:    cfg.Retries,
		retryMin:   cfg.RetryMin,
		useToken:   cfg.UseToken,
	}
}

type apiQuestion struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type questionsResponse struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type tokenResponse struct {
	ResponseCode int    `json:"response_code"`
	Token        string `json:"token"`
}

// FetchQuestions requests amount questions. Any failure, a non-zero response code, or
// an empty result maps to domain.ErrSourceUnavailable.
func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]domain.Question, error) {
	var questions []domain.Question
	op := func() error {
		var err error
		questions, err = c.fetchOnce(ctx, amount)
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryMin
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	return questions, nil
}

func (c *Client) fetchOnce(ctx context.Context, amount int) ([]domain.Question, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(amount))
	if c.useToken {
		token, err := c.sessionToken(ctx)
		if err != nil {
			return nil, err
		}
		query.Set("token", token)
	}

	var body questionsResponse
	if err := c.getJSON(ctx, "/api.php?"+query.Encode(), &body); err != nil {
		return nil, err
	}

	switch body.ResponseCode {
	case codeSuccess:
	case codeRateLimit:
		return nil, fmt.Errorf("rate limited")
	case codeTokenNotFound, codeTokenEmpty:
		c.resetToken()
		return nil, backoff.Permanent(fmt.Errorf("token rejected with code %d", body.ResponseCode))
	case codeNoResults, codeInvalidParam:
		return nil, backoff.Permanent(fmt.Errorf("no usable results (code %d)", body.ResponseCode))
	default:
		return nil, backoff.Permanent(fmt.Errorf("unexpected response code %d", body.ResponseCode))
	}
	if len(body.Results) == 0 {
		return nil, backoff.Permanent(errors.New("empty result set"))
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for _, r := range body.Results {
		questions = append(questions, domain.Question{
			Text:             r.Question,
			CorrectAnswer:    r.CorrectAnswer,
			IncorrectAnswers: r.IncorrectAnswers,
			Category:         r.Category,
			Difficulty:       domain.Difficulty(r.Difficulty),
			Type:             r.Type,
		})
	}
	return questions, nil
}

// sessionToken returns the cached API token, requesting one if needed. Concurrent
// callers share a single request.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	result, err, _ := c.sf.Do("token", func() (interface{}, error) {
		var body tokenResponse
		if err := c.getJSON(ctx, "/api_token.php?command=request", &body); err != nil {
			return "", err
		}
		if body.ResponseCode != codeSuccess || body.Token == "" {
			return "", fmt.Errorf("token request failed with code %d", body.ResponseCode)
		}
		c.mu.Lock()
		c.token = body.Token
		c.mu.Unlock()
		return body.Token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) resetToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("request %s: status %d", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return backoff.Permanent(fmt.Errorf("request %s: status %d", path, resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
