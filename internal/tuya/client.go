package tuya

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const tokenPath = "/v1.0/token?grant_type=1"

// Client issues signed requests against the smart-plug cloud API. Tokens are
// fetched per logical operation, never cached: the vendor controls expiry and
// a fresh token per cycle avoids stale-token failures.
type Client struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

func New(baseURL, clientID, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		secret:   secret,
		http:     &http.Client{Timeout: timeout},
	}
}

// DataPoint is one code/value entry from a device status response. Values are
// kept raw here; decoding per code is the normalizer's job.
type DataPoint struct {
	Code  string          `json:"code"`
	Value json.RawMessage `json:"value"`
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Result  json.RawMessage `json:"result"`
}

// GetToken fetches a fresh bearer token. Failures come back as *AuthError.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, tokenPath, "", "")
	if err != nil {
		return "", &AuthError{Err: err}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", &AuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if !env.Success {
		return "", &AuthError{Code: env.Code, Msg: env.Msg, Body: string(raw)}
	}
	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", &AuthError{Err: fmt.Errorf("decode token result: %w", err)}
	}
	return result.AccessToken, nil
}

// GetStatus fetches the device's current telemetry data points. Failures come
// back as *APIError carrying the raw vendor body when one was received.
func (c *Client) GetStatus(ctx context.Context, deviceID, token string) ([]DataPoint, error) {
	path := fmt.Sprintf("/v1.0/devices/%s/status", deviceID)
	raw, err := c.do(ctx, http.MethodGet, path, token, "")
	if err != nil {
		return nil, &APIError{Op: "status", Err: err}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{Op: "status", Err: fmt.Errorf("decode status response: %w", err)}
	}
	if !env.Success {
		return nil, &APIError{Op: "status", Code: env.Code, Msg: env.Msg, Body: string(raw)}
	}
	var points []DataPoint
	if err := json.Unmarshal(env.Result, &points); err != nil {
		return nil, &APIError{Op: "status", Err: fmt.Errorf("decode status result: %w", err)}
	}
	return points, nil
}

// SendCommand sends one code/value command to the device. The call is
// at-most-once: a command toggles real hardware, so the client never retries.
func (c *Client) SendCommand(ctx context.Context, deviceID, token, code string, value any) (json.RawMessage, error) {
	path := fmt.Sprintf("/v1.0/devices/%s/commands", deviceID)
	body, err := json.Marshal(map[string]any{
		"commands": []map[string]any{{"code": code, "value": value}},
	})
	if err != nil {
		return nil, &APIError{Op: "command", Err: err}
	}
	raw, err := c.do(ctx, http.MethodPost, path, token, string(body))
	if err != nil {
		return nil, &APIError{Op: "command", Err: err}
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{Op: "command", Err: fmt.Errorf("decode command response: %w", err)}
	}
	if !env.Success {
		return nil, &APIError{Op: "command", Code: env.Code, Msg: env.Msg, Body: string(raw)}
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path, token, body string) ([]byte, error) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	req.Header.Set("client_id", c.clientID)
	req.Header.Set("sign", Sign(c.clientID, c.secret, method, path, token, body, ts))
	req.Header.Set("t", ts)
	req.Header.Set("sign_method", "HMAC-SHA256")
	if token != "" {
		req.Header.Set("access_token", token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return raw, nil
}
