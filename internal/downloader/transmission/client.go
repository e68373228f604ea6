package transmission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/vfaronov/httpheader"

	"github.com/arroyo-downloader/arroyo/internal/utils"
)

const sessionHeader = "X-Transmission-Session-Id"

// ErrUnauthorized is returned when the daemon rejects the credentials.
var ErrUnauthorized = errors.New("transmission rejected credentials")

// client speaks Transmission's JSON-RPC dialect.
type client struct {
	http     *http.Client
	url      string
	user     string
	password string

	mu        sync.Mutex
	sessionID string
}

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

// call runs method and decodes its arguments into out. A 409 answer carries
// a fresh session id and is retried once.
func (c *client) call(ctx context.Context, method string, args, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		resp, err := c.do(ctx, body)
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case http.StatusConflict:
			id := resp.Header.Get(sessionHeader)
			resp.Body.Close()
			if id == "" {
				return fmt.Errorf("409 without %s header", sessionHeader)
			}
			c.mu.Lock()
			c.sessionID = id
			c.mu.Unlock()
			utils.Debug("transmission: refreshed session id")
			continue
		case http.StatusUnauthorized:
			resp.Body.Close()
			return unauthorized(resp.Header)
		case http.StatusOK:
		default:
			resp.Body.Close()
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		var rpc rpcResponse
		err = json.NewDecoder(resp.Body).Decode(&rpc)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s response: %w", method, err)
		}
		if rpc.Result != "success" {
			return fmt.Errorf("%s: %s", method, rpc.Result)
		}
		if out == nil || len(rpc.Arguments) == 0 {
			return nil
		}
		return json.Unmarshal(rpc.Arguments, out)
	}
	return fmt.Errorf("%s: session handshake did not settle", method)
}

func (c *client) do(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.mu.Lock()
	if c.sessionID != "" {
		req.Header.Set(sessionHeader, c.sessionID)
	}
	c.mu.Unlock()
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// unauthorized describes the challenge the daemon answered with.
func unauthorized(h http.Header) error {
	challenges := httpheader.WWWAuthenticate(h)
	if len(challenges) == 0 {
		return ErrUnauthorized
	}
	parts := make([]string, 0, len(challenges))
	for _, c := range challenges {
		if c.Realm != "" {
			parts = append(parts, fmt.Sprintf("%s realm=%q", c.Scheme, c.Realm))
		} else {
			parts = append(parts, c.Scheme)
		}
	}
	return fmt.Errorf("%w (challenge: %s)", ErrUnauthorized, strings.Join(parts, ", "))
}
