package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aryan2621/tasker/internal/identity"
	"github.com/aryan2621/tasker/internal/model"
)

const (
	collectionTasks        = "tasks"
	collectionProgress     = "progress"
	collectionAchievements = "achievements"
	collectionStreaks      = "streaks"
)

// HTTPClient talks to the backend document API over JSON.
//
// Documents are written with PUT {base}/v1/{collection}/{docID}, listed with
// GET {base}/v1/{collection}?userId=..., and removed with DELETE on the
// document path. Pushes go record by record so one rejected document cannot
// fail the batch.
type HTTPClient struct {
	baseURL  string
	token    string
	client   *http.Client
	identity identity.Source
	logger   *log.Logger
}

// HTTPConfig holds client settings.
type HTTPConfig struct {
	// BaseURL of the document API, without trailing slash
	BaseURL string
	// Token sent as a bearer credential
	Token string
	// Timeout per request
	Timeout time.Duration
	// Logger for push/pull activity
	Logger *log.Logger
}

// NewHTTPClient creates a client bound to an identity source.
func NewHTTPClient(config HTTPConfig, source identity.Source) *HTTPClient {
	logger := config.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[remote] ", log.LstdFlags)
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		token:    config.Token,
		client:   &http.Client{Timeout: timeout},
		identity: source,
		logger:   logger,
	}
}

// SignedIn implements Client.
func (c *HTTPClient) SignedIn() bool {
	return c.identity.IsAuthenticated()
}

// PushTasks implements Client.
func (c *HTTPClient) PushTasks(ctx context.Context, tasks []*model.Task) ([]string, error) {
	var pushed []string
	for _, t := range tasks {
		if err := c.putDoc(ctx, collectionTasks, DocID(t.UserID, t.ID), TaskToDoc(t)); err != nil {
			c.logger.Printf("WARNING: push task %s failed: %v", t.ID, err)
			continue
		}
		pushed = append(pushed, t.ID)
	}
	return pushed, nil
}

// PullTasks implements Client.
func (c *HTTPClient) PullTasks(ctx context.Context, userID string) ([]*model.Task, error) {
	docs, err := c.listDocs(ctx, collectionTasks, userID)
	if err != nil {
		return nil, err
	}

	var tasks []*model.Task
	for _, d := range docs {
		t, err := TaskFromDoc(d)
		if err != nil {
			c.logger.Printf("WARNING: skipping malformed task document: %v", err)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// DeleteTask implements Client.
func (c *HTTPClient) DeleteTask(ctx context.Context, userID, taskID string) error {
	return c.deleteDoc(ctx, collectionTasks, DocID(userID, taskID))
}

// PushProgress implements Client.
func (c *HTTPClient) PushProgress(ctx context.Context, records []*model.TaskProgress) ([]string, error) {
	var pushed []string
	for _, p := range records {
		if err := c.putDoc(ctx, collectionProgress, DocID(p.UserID, p.ID), ProgressToDoc(p)); err != nil {
			c.logger.Printf("WARNING: push progress %s failed: %v", p.ID, err)
			continue
		}
		pushed = append(pushed, p.ID)
	}
	return pushed, nil
}

// PullProgress implements Client.
func (c *HTTPClient) PullProgress(ctx context.Context, userID string) ([]*model.TaskProgress, error) {
	docs, err := c.listDocs(ctx, collectionProgress, userID)
	if err != nil {
		return nil, err
	}

	var records []*model.TaskProgress
	for _, d := range docs {
		p, err := ProgressFromDoc(d)
		if err != nil {
			c.logger.Printf("WARNING: skipping malformed progress document: %v", err)
			continue
		}
		records = append(records, p)
	}
	return records, nil
}

// PushAchievements implements Client.
func (c *HTTPClient) PushAchievements(ctx context.Context, records []*model.Achievement) ([]string, error) {
	var pushed []string
	for _, a := range records {
		if err := c.putDoc(ctx, collectionAchievements, DocID(a.UserID, a.ID), AchievementToDoc(a)); err != nil {
			c.logger.Printf("WARNING: push achievement %s failed: %v", a.ID, err)
			continue
		}
		pushed = append(pushed, a.ID)
	}
	return pushed, nil
}

// PullAchievements implements Client.
func (c *HTTPClient) PullAchievements(ctx context.Context, userID string) ([]*model.Achievement, error) {
	docs, err := c.listDocs(ctx, collectionAchievements, userID)
	if err != nil {
		return nil, err
	}

	var records []*model.Achievement
	for _, d := range docs {
		a, err := AchievementFromDoc(d)
		if err != nil {
			c.logger.Printf("WARNING: skipping malformed achievement document: %v", err)
			continue
		}
		records = append(records, a)
	}
	return records, nil
}

// PushStreak implements Client. The streak document is keyed by bare user id.
func (c *HTTPClient) PushStreak(ctx context.Context, streak *model.UserStreak) error {
	return c.putDoc(ctx, collectionStreaks, streak.UserID, StreakToDoc(streak))
}

// PullStreak implements Client.
func (c *HTTPClient) PullStreak(ctx context.Context, userID string) (*model.UserStreak, error) {
	d, found, err := c.getDoc(ctx, collectionStreaks, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return StreakFromDoc(d)
}

func (c *HTTPClient) docURL(collection, docID string) string {
	return fmt.Sprintf("%s/v1/%s/%s", c.baseURL, collection, url.PathEscape(docID))
}

func (c *HTTPClient) putDoc(ctx context.Context, collection, docID string, d Doc) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.docURL(collection, docID), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) getDoc(ctx context.Context, collection, docID string) (Doc, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.docURL(collection, docID), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var d Doc
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, false, fmt.Errorf("failed to decode document: %w", err)
	}
	return d, true, nil
}

func (c *HTTPClient) listDocs(ctx context.Context, collection, userID string) ([]Doc, error) {
	u := fmt.Sprintf("%s/v1/%s?userId=%s", c.baseURL, collection, url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var docs []Doc
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode document list: %w", err)
	}
	return docs, nil
}

func (c *HTTPClient) deleteDoc(ctx context.Context, collection, docID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.docURL(collection, docID), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
