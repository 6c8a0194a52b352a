package restbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

// Client talks to the hosted auth+data platform over HTTPS. It owns the
// process-local session cache; everything else in this package hangs off it.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  core.Logger

	pollInterval time.Duration

	mu           sync.RWMutex
	session      *auth.Session
	refreshToken string
	subscribers  []chan auth.SessionEvent
	polling      bool
}

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		baseURL:      conf.Backend.URL,
		apiKey:       conf.Backend.APIKey,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		pollInterval: conf.Backend.EventPollInterval,
	}
}

// apiError is a non-2xx platform response.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// do performs a JSON request; on 2xx the response body is decoded into out
// (when non-nil). Extra headers may be passed as alternating key/value pairs.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}, headers ...string) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(raw)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.bearerToken())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(auth.ErrBackendUnavailable, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.Wrapf(auth.ErrBackendUnavailable, "%s %s: status %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := string(raw)
		var payload struct {
			Message string `json:"message"`
			Msg     string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			if payload.Message != "" {
				msg = payload.Message
			} else if payload.Msg != "" {
				msg = payload.Msg
			}
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

// bearerToken returns the active session's access token, falling back to the
// service api key for anonymous calls.
func (c *Client) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return c.apiKey
}

func statusOf(err error) int {
	if apiErr, ok := errors.Cause(err).(*apiError); ok {
		return apiErr.Status
	}
	return 0
}
