package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/prasanth-t0205/quiz-compiler/internal/model"
	"github.com/prasanth-t0205/quiz-compiler/internal/validate"
)

// Client talks to the assessment backend. It covers the three capabilities
// the session core consumes: entry authentication, test loading and attempt
// submission.
type Client struct {
	base  string
	http  *http.Client
	token string
	log   zerolog.Logger
}

// New creates a Client for the given base URL (e.g. "https://host/api").
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		log:  log.With().Str("component", "api_client").Logger(),
	}
}

// SetToken installs the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// TokenExpired peeks at the bearer token's exp claim without verifying the
// signature; verification is the server's job. A missing or unparsable
// token reports false so the server stays the authority.
func (c *Client) TokenExpired(now time.Time) bool {
	if c.token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Test    *model.Test     `json:"test,omitempty"`
	User    json.RawMessage `json:"user,omitempty"`
	Token   string          `json:"token,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// Entry is the result of authenticating a test code.
type Entry struct {
	Test  *model.Test
	User  json.RawMessage
	Token string
}

// AuthenticateTestCode resolves a candidate's test code into the test and
// user records that precede a session. A returned token is installed on the
// client for the rest of the attempt.
func (c *Client) AuthenticateTestCode(ctx context.Context, code string) (*Entry, error) {
	body := map[string]string{"testCode": code}
	env, err := c.do(ctx, http.MethodPost, "/tests/authenticate", body)
	if err != nil {
		return nil, err
	}
	if env.Test == nil {
		return nil, &APIError{Code: ErrInvalidTestCode, Message: env.Message}
	}
	if env.Token != "" {
		c.SetToken(env.Token)
	}
	return &Entry{Test: env.Test, User: env.User, Token: env.Token}, nil
}

// FetchTestForTaking loads the test payload for one session bootstrap. The
// payload is validated before it is handed to the controller.
func (c *Client) FetchTestForTaking(ctx context.Context, testID string) (*model.Test, error) {
	env, err := c.do(ctx, http.MethodGet, "/tests/take/"+url.PathEscape(testID), nil)
	if err != nil {
		return nil, err
	}
	if env.Test == nil {
		return nil, &APIError{Code: ErrTestNotFound, Message: env.Message}
	}
	if fields := validate.Struct(env.Test); fields != nil {
		c.log.Error().Interface("fields", fields).Str("test_id", testID).Msg("Test payload failed validation")
		return nil, &APIError{Code: ErrInvalidPayload, Message: "test payload is malformed"}
	}
	for i := range env.Test.Questions {
		q := &env.Test.Questions[i]
		if q.HasOptions() && len(q.Options) == 0 {
			c.log.Error().Str("question_id", q.ID).Str("type", string(q.Type)).Msg("Choice question arrived without options")
			return nil, &APIError{Code: ErrInvalidPayload, Message: "test payload is malformed"}
		}
	}
	return env.Test, nil
}

// SubmitAttempt transmits the finished attempt. The caller (submission
// gate) guarantees this is invoked at most once concurrently per attempt.
func (c *Client) SubmitAttempt(ctx context.Context, testCode string, sub *model.Submission) (*model.Receipt, error) {
	env, err := c.do(ctx, http.MethodPost, "/tests/code/"+url.PathEscape(testCode)+"/submit", sub)
	if err != nil {
		return nil, err
	}
	return &model.Receipt{Result: env.Result}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		// Non-JSON body, classify from the status alone.
		env = envelope{}
	}

	if resp.StatusCode >= 400 {
		return nil, c.statusError(resp.StatusCode, env.Message)
	}
	if !env.Success {
		return nil, &APIError{Code: ErrRejected, Message: env.Message, Status: resp.StatusCode}
	}
	return &env, nil
}

func (c *Client) statusError(status int, message string) *APIError {
	apiErr := &APIError{Status: status, Message: message}
	switch {
	case status == http.StatusNotFound:
		apiErr.Code = ErrTestNotFound
	case status == http.StatusForbidden, status == http.StatusUnauthorized:
		apiErr.Code = ErrTestNotAvailable
	case status == http.StatusRequestTimeout:
		apiErr.Code = ErrTimeout
		apiErr.Retryable = true
	case status >= 500:
		apiErr.Code = ErrServer
		apiErr.Retryable = true
	default:
		apiErr.Code = ErrRejected
	}
	return apiErr
}

// classifyTransport maps transport-level failures: timeouts are retryable,
// everything else at this level means the device cannot reach the backend.
func classifyTransport(err error) *APIError {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &APIError{Code: ErrTimeout, Message: err.Error(), Retryable: true}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Code: ErrTimeout, Message: err.Error(), Retryable: true}
	}
	return &APIError{Code: ErrOffline, Message: err.Error(), Retryable: true, Offline: true}
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
