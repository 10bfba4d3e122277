// Package client talks to the snapshot sync API and keeps a local fallback
// copy of unsaved data.
//
// A failed save is written to the local cache and the caller gets
// ErrSaveFailed, or ErrNotCached if the cache could not take it either. A
// failed load is reported as is; the cache is only read through
// CachedSnapshot.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/heartmarshall/fqclock-backend/internal/client/cache"
	"github.com/heartmarshall/fqclock-backend/internal/transport/rest"
)

var (
	ErrNoUser     = errors.New("no user logged in")
	ErrSaveFailed = errors.New("save failed, snapshot kept in local cache")
	ErrNotCached  = errors.New("save failed, local copy not written")
	ErrRemote     = errors.New("server rejected request")
)

type slotStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	PutMany(ctx context.Context, slots map[string]string) error
	Delete(ctx context.Context, names ...string) error
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	slots   slotStore
	log     *slog.Logger

	mu       sync.RWMutex
	username string
	userID   string
	token    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a Client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, slots slotStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		slots:   slots,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "client")
	return c
}

// Init restores the session from the cache. A cached username without a
// user id is logged in again. It returns nil when nobody is logged in.
func (c *Client) Init(ctx context.Context) (*User, error) {
	username, _, err := c.slots.Get(ctx, cache.SlotCurrentUser)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	userID, _, err := c.slots.Get(ctx, cache.SlotUserID)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	token, _, err := c.slots.Get(ctx, cache.SlotToken)
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	if username != "" && userID == "" {
		return c.Login(ctx, username)
	}

	c.mu.Lock()
	c.username, c.userID, c.token = username, userID, token
	c.mu.Unlock()

	if userID == "" {
		return nil, nil
	}
	return &User{ID: userID, Username: username}, nil
}

// CurrentUser returns the logged-in user, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.userID == "" {
		return nil
	}
	return &User{ID: c.userID, Username: c.username}
}

type loginRequest struct {
	Username string `json:"username"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Token string `json:"token"`
}

// Login resolves username on the server and stores the session locally.
func (c *Client) Login(ctx context.Context, username string) (*User, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{Username: username}, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("login: %w: %s", ErrRemote, resp.Message)
	}

	slots := map[string]string{
		cache.SlotCurrentUser: username,
		cache.SlotUserID:      resp.User.ID,
	}
	if resp.Token != "" {
		slots[cache.SlotToken] = resp.Token
	}
	if err := c.slots.PutMany(ctx, slots); err != nil {
		return nil, fmt.Errorf("login: store session: %w", err)
	}
	if resp.Token == "" {
		if err := c.slots.Delete(ctx, cache.SlotToken); err != nil {
			return nil, fmt.Errorf("login: drop stale token: %w", err)
		}
	}

	c.mu.Lock()
	c.username, c.userID, c.token = username, resp.User.ID, resp.Token
	c.mu.Unlock()

	c.log.InfoContext(ctx, "logged in", slog.String("user_id", resp.User.ID))
	return &User{ID: resp.User.ID, Username: resp.User.Username}, nil
}

// Logout forgets the session. Cached snapshot slots are kept.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.username, c.userID, c.token = "", "", ""
	c.mu.Unlock()

	if err := c.slots.Delete(ctx, cache.SlotCurrentUser, cache.SlotUserID, cache.SlotToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

type saveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Save replaces the server snapshot with tasks and reviews and returns the
// server's confirmation. On any failure the records are written verbatim to
// the local cache and the error wraps ErrSaveFailed. The cache write ignores
// ctx cancellation, since a missed deadline is a common reason to get here.
// If that write fails too the error wraps ErrNotCached instead. A nil
// collection is sent as empty.
func (c *Client) Save(ctx context.Context, tasks []Task, reviews []Review) (string, error) {
	userID := c.currentUserID()
	if userID == "" {
		return "", ErrNoUser
	}

	body := rest.SaveRequest{
		Tasks:   tasksToWire(tasks),
		Reviews: reviewsToWire(reviews),
	}

	var resp saveResponse
	err := c.do(ctx, http.MethodPost, "/api/save-data/"+url.PathEscape(userID), body, &resp)
	if err == nil && !resp.Success {
		err = fmt.Errorf("%w: %s", ErrRemote, resp.Message)
	}
	if err == nil {
		return resp.Message, nil
	}

	c.log.WarnContext(ctx, "save failed, writing local copy",
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
	if cacheErr := c.cacheSnapshot(context.WithoutCancel(ctx), tasks, reviews); cacheErr != nil {
		c.log.ErrorContext(ctx, "local copy not written",
			slog.String("user_id", userID),
			slog.String("error", cacheErr.Error()),
		)
		return "", fmt.Errorf("%w: %w", ErrNotCached, errors.Join(err, cacheErr))
	}
	return "", fmt.Errorf("%w: %w", ErrSaveFailed, err)
}

func (c *Client) cacheSnapshot(ctx context.Context, tasks []Task, reviews []Review) error {
	if tasks == nil {
		tasks = []Task{}
	}
	if reviews == nil {
		reviews = []Review{}
	}
	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("encode reviews: %w", err)
	}
	return c.slots.PutMany(ctx, map[string]string{
		cache.SlotTasks:   string(tasksJSON),
		cache.SlotReviews: string(reviewsJSON),
	})
}

type loadResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Tasks   []rest.TaskDTO   `json:"tasks"`
	Reviews []rest.ReviewDTO `json:"reviews"`
}

// Load fetches the server snapshot with dates in CanonicalTime form. It does
// not fall back to the cache.
func (c *Client) Load(ctx context.Context) (*Snapshot, error) {
	userID := c.currentUserID()
	if userID == "" {
		return nil, ErrNoUser
	}

	var resp loadResponse
	if err := c.do(ctx, http.MethodGet, "/api/user-data/"+url.PathEscape(userID), nil, &resp); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("load: %w: %s", ErrRemote, resp.Message)
	}

	return &Snapshot{
		Tasks:   tasksFromWire(resp.Tasks),
		Reviews: reviewsFromWire(resp.Reviews),
	}, nil
}

// CachedSnapshot returns whatever the last failed save left in the cache.
// Empty slots read as empty collections.
func (c *Client) CachedSnapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{Tasks: []Task{}, Reviews: []Review{}}

	if err := c.readSlot(ctx, cache.SlotTasks, &snap.Tasks); err != nil {
		return nil, err
	}
	if err := c.readSlot(ctx, cache.SlotReviews, &snap.Reviews); err != nil {
		return nil, err
	}
	return snap, nil
}

func (c *Client) readSlot(ctx context.Context, name string, dst any) error {
	raw, ok, err := c.slots.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("read cached %s: %w", name, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode cached %s: %w", name, err)
	}
	return nil
}

func (c *Client) currentUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// do sends a JSON request and decodes the JSON envelope. Error statuses
// still carry {success:false, message}, so only undecodable bodies fail here.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: status %d: decode response: %w", method, path, resp.StatusCode, err)
	}
	return nil
}
