// Package twitchapi contains minimal helpers to interact with Twitch Helix APIs
// for user id resolution and listing recent clips, using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// DefaultClipPageSize is the number of clips requested per fetch.
const DefaultClipPageSize = 20

// Clip is one published clip as returned by the Helix clips endpoint.
type Clip struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// HelixClient provides the methods needed for clip discovery.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client

	mu      sync.Mutex
	userIDs map[string]string
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// ResolveUserID resolves a login name to its user ID. The mapping is cached for
// the life of the process.
func (hc *HelixClient) ResolveUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	hc.mu.Lock()
	if id, ok := hc.userIDs[login]; ok {
		hc.mu.Unlock()
		return id, nil
	}
	hc.mu.Unlock()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitch.tv/helix/users", nil)
	q := req.URL.Query()
	q.Set("login", login)
	req.URL.RawQuery = q.Encode()
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := hc.do(ctx, req, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("user not found: %s", login)
	}
	hc.mu.Lock()
	if hc.userIDs == nil {
		hc.userIDs = make(map[string]string)
	}
	hc.userIDs[login] = body.Data[0].ID
	hc.mu.Unlock()
	return body.Data[0].ID, nil
}

// ListClips fetches clips created at or after startedAt for a broadcaster.
// Only the window start is sent; Helix defaults the end to now. Response order
// is preserved (newest first as Helix returns it).
func (hc *HelixClient) ListClips(ctx context.Context, broadcasterID string, startedAt time.Time, first int) ([]Clip, error) {
	if broadcasterID == "" {
		return nil, fmt.Errorf("broadcasterID empty")
	}
	if first <= 0 {
		first = DefaultClipPageSize
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.twitch.tv/helix/clips", nil)
	q := req.URL.Query()
	q.Set("broadcaster_id", broadcasterID)
	q.Set("started_at", startedAt.UTC().Format("2006-01-02T15:04:05Z"))
	q.Set("first", fmt.Sprintf("%d", first))
	req.URL.RawQuery = q.Encode()
	var body struct {
		Data []Clip `json:"data"`
	}
	if err := hc.do(ctx, req, &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// do performs an authenticated Helix request and decodes the JSON body into out.
// On a 401 it invalidates the cached app token, obtains a fresh one, and retries
// exactly once; if re-authentication fails the auth error is returned.
func (hc *HelixClient) do(ctx context.Context, req *http.Request, out any) error {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return err
	}
	resp, err := hc.send(req, tok)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		slog.Warn("helix returned 401, refreshing app token", slog.String("path", req.URL.Path))
		hc.AppTokenSource.Invalidate()
		tok, err = hc.AppTokenSource.Get(ctx)
		if err != nil {
			return fmt.Errorf("re-authentication after 401 failed: %w", err)
		}
		resp, err = hc.send(req, tok)
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("helix request failed: %s: %s", resp.Status, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (hc *HelixClient) send(req *http.Request, tok string) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Client-Id", hc.ClientID)
	r.Header.Set("Authorization", "Bearer "+tok)
	return hc.http().Do(r)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}
