// Package rest is a task repository speaking the PostgREST dialect exposed by
// hosted Supabase projects.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/task-tracker/domain/task"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("postgrest status=%d code=%s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("postgrest status=%d: %s", e.Status, msg)
}

// Config holds the connection settings of a Client.
type Config struct {
	BaseURL string
	APIKey  string
	Table   string
	Timeout time.Duration
}

// Client implements task.Repository over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	table   string
	http    *http.Client
}

var _ task.Repository = (*Client)(nil)

// New creates a client. An empty table defaults to "tasks".
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	table := cfg.Table
	if table == "" {
		table = "tasks"
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		table:   table,
		http:    &http.Client{Timeout: timeout},
	}
}

// record is the row shape on the wire.
type record struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	DueDate   *task.Date      `json:"due_date"`
	Completed bool            `json:"completed"`
	IsDeleted bool            `json:"is_deleted"`
}

func (r record) toDomain() task.Task {
	return task.Task{
		ID:        rawID(r.ID),
		Title:     r.Title,
		DueDate:   r.DueDate,
		Completed: r.Completed,
		Deleted:   r.IsDeleted,
	}
}

// rawID accepts both numeric identity columns and uuid/text keys.
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

type insertBody struct {
	Title   string     `json:"title"`
	DueDate *task.Date `json:"due_date"`
}

func (c *Client) Insert(ctx context.Context, nt task.NewTask) (*task.Task, error) {
	var rows []record
	err := c.do(ctx, http.MethodPost, nil, insertBody{Title: nt.Title, DueDate: nt.DueDate}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("failed to insert task: empty representation")
	}

	t := rows[0].toDomain()
	return &t, nil
}

func (c *Client) ListActive(ctx context.Context) ([]task.Task, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("is_deleted", "eq.false")
	q.Set("order", "due_date.asc.nullslast")

	var rows []record
	if err := c.do(ctx, http.MethodGet, q, nil, &rows); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toDomain())
	}
	return tasks, nil
}

func (c *Client) SetCompleted(ctx context.Context, id string, completed bool) (*task.Task, error) {
	return c.patch(ctx, id, map[string]any{"completed": completed})
}

func (c *Client) SetDeleted(ctx context.Context, id string) (*task.Task, error) {
	return c.patch(ctx, id, map[string]any{"is_deleted": true})
}

func (c *Client) patch(ctx context.Context, id string, fields map[string]any) (*task.Task, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)

	var rows []record
	if err := c.do(ctx, http.MethodPatch, q, fields, &rows); err != nil {
		var apiErr *APIError
		// A malformed key (for example text against a bigint column) matches no row.
		if errors.As(err, &apiErr) && apiErr.Code == "22P02" {
			return nil, task.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, task.ErrNotFound
	}

	t := rows[0].toDomain()
	return &t, nil
}

func (c *Client) do(ctx context.Context, method string, query url.Values, body any, out any) error {
	target := c.baseURL + "/rest/v1/" + url.PathEscape(c.table)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(slurp, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(slurp))
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
