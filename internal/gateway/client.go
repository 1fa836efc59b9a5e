package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ogulcanaydogan/fairness-check/internal/config"
)

// ErrPrediction marks a per-row failure: transport errors, timeouts, bad
// status codes, and responses without a usable binary prediction.
var ErrPrediction = errors.New("prediction failed")

const maxResponseBytes = 1 << 20

// Predictor is the contract the orchestrator consumes.
type Predictor interface {
	Predict(ctx context.Context, features any) (bool, error)
}

type Client struct {
	httpClient   *http.Client
	url          string
	method       string
	headers      map[string]string
	authToken    string
	timeout      time.Duration
	responseKeys []string
	limiter      *rate.Limiter
}

func New(cfg config.EndpointConfig) *Client {
	c := &Client{
		httpClient:   &http.Client{},
		url:          cfg.URL,
		method:       strings.ToUpper(cfg.Method),
		headers:      cfg.Headers,
		authToken:    cfg.AuthToken,
		timeout:      cfg.Timeout(),
		responseKeys: cfg.ResponseKeys,
	}
	if c.method == "" {
		c.method = http.MethodPost
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultTimeout
	}
	if len(c.responseKeys) == 0 {
		c.responseKeys = config.DefaultResponseKeys
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return c
}

// Predict sends one request and returns the binary prediction. There are
// no retries; the configured timeout bounds the whole round trip.
func (c *Client) Predict(ctx context.Context, features any) (bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("%w: rate limiter: %w", ErrPrediction, err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, features)
	if err != nil {
		return false, fmt.Errorf("%w: create request: %w", ErrPrediction, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: classifier request: %w", ErrPrediction, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("%w: read response: %w", ErrPrediction, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: classifier status %d: %s", ErrPrediction, resp.StatusCode, snippet(body))
	}
	pred, err := Extract(body, c.responseKeys)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPrediction, err)
	}
	return pred, nil
}

func (c *Client) newRequest(ctx context.Context, features any) (*http.Request, error) {
	var req *http.Request
	switch c.method {
	case http.MethodGet:
		u, err := url.Parse(c.url)
		if err != nil {
			return nil, err
		}
		value, err := queryValue(features)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("features", value)
		u.RawQuery = q.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
	default:
		payload, err := json.Marshal(map[string]any{"features": features})
		if err != nil {
			return nil, err
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

func queryValue(features any) (string, error) {
	if s, ok := features.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Extract reads the first present key of keys from a JSON object body and
// coerces it to a binary prediction.
func Extract(body []byte, keys []string) (bool, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return false, fmt.Errorf("response is not a JSON object: %s", snippet(body))
	}
	for _, k := range keys {
		v, ok := data[k]
		if !ok {
			continue
		}
		pred, err := Coerce(v)
		if err != nil {
			return false, fmt.Errorf("response key %q: %w", k, err)
		}
		return pred, nil
	}
	return false, fmt.Errorf("response has none of the keys %s: %s", strings.Join(keys, ", "), snippet(body))
}

// Coerce maps booleans, the numbers 0 and 1, and their string spellings to
// a prediction. Anything else is rejected rather than truncated.
func Coerce(v any) (bool, error) {
	switch vv := v.(type) {
	case bool:
		return vv, nil
	case json.Number:
		f, err := vv.Float64()
		if err != nil {
			return false, fmt.Errorf("prediction %q is not numeric", vv.String())
		}
		return binary(f, vv.String())
	case float64:
		return binary(vv, strconv.FormatFloat(vv, 'g', -1, 64))
	case string:
		s := strings.ToLower(strings.TrimSpace(vv))
		switch s {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false, fmt.Errorf("prediction %q is not binary", vv)
		}
		return binary(f, vv)
	case nil:
		return false, errors.New("prediction is null")
	default:
		return false, fmt.Errorf("prediction of type %T is not binary", v)
	}
}

func binary(f float64, raw string) (bool, error) {
	switch f {
	case 1:
		return true, nil
	case 0:
		return false, nil
	}
	return false, fmt.Errorf("prediction %s is not 0 or 1", raw)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
