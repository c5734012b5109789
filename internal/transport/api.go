// ABOUTME: Typed API methods for the feed server endpoints
// ABOUTME: Covers time, guids, item batches, user-state pull/push, deltas, and config files

package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/tim-projects/not-the-news-sub002/internal/models"
)

// UserStateSnapshot is the server's view of user state from GET
// /user-state. Scalars carries every settings key present in the payload
// beyond the structured fields; absent keys stay untouched locally.
type UserStateSnapshot struct {
	Hidden      []models.HiddenEntry
	Starred     []models.StarredEntry
	CurrentDeck []string
	HasDeck     bool
	Scalars     map[string]json.RawMessage
}

// DeltaAction is the direction of a set-valued state change.
type DeltaAction string

const (
	DeltaAdd    DeltaAction = "add"
	DeltaRemove DeltaAction = "remove"
)

// ServerTime fetches the server's authoritative clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	var out struct {
		Time string `json:"time"`
	}
	if _, err := c.requestJSON(ctx, http.MethodGet, "/time", nil, nil, nil, &out); err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, out.Time)
	if err != nil {
		return time.Time{}, &MalformedDataError{Op: "GET /time", Err: err}
	}
	return t, nil
}

// GUIDs fetches the full authoritative identifier set.
func (c *Client) GUIDs(ctx context.Context) ([]string, error) {
	var out []string
	if _, err := c.requestJSON(ctx, http.MethodGet, "/guids", nil, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ItemsByGUID resolves up to a batch of identifiers to full item
// records. Identifiers unknown to the server are simply absent from the
// result.
func (c *Client) ItemsByGUID(ctx context.Context, guids []string) (map[string]models.Item, error) {
	payload := struct {
		GUIDs []string `json:"guids"`
	}{GUIDs: guids}

	var out map[string]models.Item
	if _, err := c.requestJSON(ctx, http.MethodPost, "/items", nil, payload, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchUserState pulls the server's user state. When cursor is not empty
// it is sent as a conditional header; a not-modified answer returns
// (nil, "", true, nil).
func (c *Client) FetchUserState(ctx context.Context, cursor string) (*UserStateSnapshot, string, bool, error) {
	var header http.Header
	if cursor != "" {
		header = http.Header{"If-None-Match": []string{cursor}}
	}

	var out struct {
		UserState  map[string]json.RawMessage `json:"userState"`
		ServerTime string                     `json:"serverTime"`
	}
	notModified, err := c.requestJSON(ctx, http.MethodGet, "/user-state", nil, nil, header, &out)
	if err != nil {
		return nil, "", false, err
	}
	if notModified {
		return nil, "", true, nil
	}

	snap := &UserStateSnapshot{Scalars: make(map[string]json.RawMessage)}
	for key, raw := range out.UserState {
		switch key {
		case models.KeyHidden:
			if err := json.Unmarshal(raw, &snap.Hidden); err != nil {
				return nil, "", false, &MalformedDataError{Op: "GET /user-state (hidden)", Err: err}
			}
		case models.KeyStarred:
			if err := json.Unmarshal(raw, &snap.Starred); err != nil {
				return nil, "", false, &MalformedDataError{Op: "GET /user-state (starred)", Err: err}
			}
		case models.KeyCurrentDeck:
			if err := json.Unmarshal(raw, &snap.CurrentDeck); err != nil {
				return nil, "", false, &MalformedDataError{Op: "GET /user-state (currentDeck)", Err: err}
			}
			snap.HasDeck = true
		default:
			snap.Scalars[key] = raw
		}
	}
	return snap, out.ServerTime, false, nil
}

// PushUserState sends a keyed bundle of changed state values and returns
// the fresh server cursor.
func (c *Client) PushUserState(ctx context.Context, changes map[string]json.RawMessage) (string, error) {
	payload := struct {
		Changes map[string]json.RawMessage `json:"changes"`
	}{Changes: changes}

	var out struct {
		ServerTime string `json:"serverTime"`
	}
	if _, err := c.requestJSON(ctx, http.MethodPost, "/user-state", nil, payload, nil, &out); err != nil {
		return "", err
	}
	return out.ServerTime, nil
}

// StarredDelta sends a single add/remove change to the starred set.
func (c *Client) StarredDelta(ctx context.Context, id string, action DeltaAction, starredAt time.Time) error {
	payload := struct {
		ID        string `json:"id"`
		Action    string `json:"action"`
		StarredAt string `json:"starredAt,omitempty"`
	}{ID: id, Action: string(action)}
	if action == DeltaAdd {
		payload.StarredAt = starredAt.UTC().Format(time.RFC3339)
	}
	_, err := c.requestJSON(ctx, http.MethodPost, "/user-state/starred/delta", nil, payload, nil, nil)
	return err
}

// HiddenDelta sends a single add/remove change to the hidden set.
func (c *Client) HiddenDelta(ctx context.Context, id string, action DeltaAction, hiddenAt time.Time) error {
	payload := struct {
		ID       string `json:"id"`
		Action   string `json:"action"`
		HiddenAt string `json:"hiddenAt,omitempty"`
	}{ID: id, Action: string(action)}
	if action == DeltaAdd {
		payload.HiddenAt = hiddenAt.UTC().Format(time.RFC3339)
	}
	_, err := c.requestJSON(ctx, http.MethodPost, "/user-state/hidden/delta", nil, payload, nil, nil)
	return err
}

// LoadConfigFile fetches a server-side configuration file's content.
func (c *Client) LoadConfigFile(ctx context.Context, filename string) (string, error) {
	query := url.Values{"filename": []string{filename}}
	var out struct {
		Content string `json:"content"`
	}
	if _, err := c.requestJSON(ctx, http.MethodGet, "/load-config", query, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// SaveConfigFile writes a server-side configuration file.
func (c *Client) SaveConfigFile(ctx context.Context, filename, content string) error {
	query := url.Values{"filename": []string{filename}}
	payload := struct {
		Content string `json:"content"`
	}{Content: content}
	_, err := c.requestJSON(ctx, http.MethodPost, "/save-config", query, payload, nil, nil)
	return err
}
