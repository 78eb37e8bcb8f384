package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"storyview/internal/controller"
	"storyview/internal/playback"
)

// Client talks to a remote Server.
type Client struct {
	BaseURL string // e.g. http://localhost:8080
	Token   string
	HTTP    *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("bad status %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("bad status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Sessions lists the server's sessions.
func (c *Client) Sessions(ctx context.Context) ([]SessionInfo, error) {
	var infos []SessionInfo
	if err := c.do(ctx, http.MethodGet, "/sessions", &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Send emits a playback command on a session.
func (c *Client) Send(ctx context.Context, id string, cmd controller.Command) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/commands/"+cmd.String(), nil)
}

// Stream calls fn for every snapshot of a session until ctx ends, the
// server closes the stream or fn returns false.
func (c *Client) Stream(ctx context.Context, id string, fn func(playback.Snapshot) bool) error {
	u, err := url.Parse(c.BaseURL + "/sessions/" + url.PathEscape(id) + "/stream")
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	var opts *websocket.DialOptions
	if c.Token != "" {
		opts = &websocket.DialOptions{HTTPHeader: http.Header{"Authorization": {"Bearer " + c.Token}}}
	}
	conn, _, err := websocket.Dial(ctx, u.String(), opts)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		var snap playback.Snapshot
		if err := wsjson.Read(ctx, conn, &snap); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !fn(snap) {
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		}
	}
}
