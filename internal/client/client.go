// Package client talks to the exchangedesk REST API and normalizes its
// responses into model types.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"exchangedesk/internal/model"
)

// APIError is a non-2xx response or an envelope with success=false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return "api: " + e.Message
	}
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    hc,
	}
}

// TaskQuery narrows GET /tasks.
type TaskQuery struct {
	ExchangeID *uuid.UUID
}

func (q TaskQuery) values() url.Values {
	v := url.Values{}
	if q.ExchangeID != nil {
		v.Set("exchange_id", q.ExchangeID.String())
	}
	return v
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]model.Task, error) {
	body, err := c.do(ctx, http.MethodGet, "/tasks", q.values(), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Task](body, "tasks", "data")
}

func (c *Client) GetTask(ctx context.Context, id uuid.UUID) (model.Task, error) {
	body, err := c.do(ctx, http.MethodGet, "/tasks/"+id.String(), nil, nil)
	if err != nil {
		return model.Task{}, err
	}
	return decodeOne[model.Task](body, "task", "data")
}

func (c *Client) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	body, err := c.do(ctx, http.MethodPost, "/tasks", nil, taskPayload(t))
	if err != nil {
		return model.Task{}, err
	}
	return decodeOne[model.Task](body, "task", "data")
}

func (c *Client) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	body, err := c.do(ctx, http.MethodPut, "/tasks/"+t.ID.String(), nil, taskPayload(t))
	if err != nil {
		return model.Task{}, err
	}
	return decodeOne[model.Task](body, "task", "data")
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+id.String(), nil, nil)
	return err
}

func (c *Client) GetExchange(ctx context.Context, id uuid.UUID) (model.Exchange, error) {
	body, err := c.do(ctx, http.MethodGet, "/exchanges/"+id.String(), nil, nil)
	if err != nil {
		return model.Exchange{}, err
	}
	return decodeOne[model.Exchange](body, "exchange", "data")
}

func (c *Client) ListParticipants(ctx context.Context, exchangeID uuid.UUID) ([]model.Participant, error) {
	body, err := c.do(ctx, http.MethodGet, "/exchanges/"+exchangeID.String()+"/participants", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Participant](body, "participants", "data")
}

// AddParticipant assigns a role on an exchange. A nil perms takes the
// role's defaults.
func (c *Client) AddParticipant(ctx context.Context, exchangeID uuid.UUID, p model.Participant, perms *model.Permissions) (model.Participant, error) {
	req := map[string]any{
		"name":  p.Name,
		"email": p.Email,
		"role":  p.Role,
	}
	if perms != nil {
		req["permissions"] = perms
	}
	body, err := c.do(ctx, http.MethodPost, "/exchanges/"+exchangeID.String()+"/participants", nil, req)
	if err != nil {
		return model.Participant{}, err
	}
	return decodeOne[model.Participant](body, "participant", "data")
}

func (c *Client) RemoveParticipant(ctx context.Context, exchangeID, participantID uuid.UUID) error {
	path := "/exchanges/" + exchangeID.String() + "/participants/" + participantID.String()
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

type taskRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	Status       model.TaskStatus   `json:"status,omitempty"`
	Priority     model.TaskPriority `json:"priority,omitempty"`
	DueDate      *time.Time         `json:"due_date"`
	AssigneeID   *uuid.UUID         `json:"assignee_id"`
	ExchangeID   *uuid.UUID         `json:"exchange_id,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	SubtaskCount int                `json:"subtask_count,omitempty"`
	SubtasksDone int                `json:"subtasks_done,omitempty"`
}

func taskPayload(t model.Task) taskRequest {
	return taskRequest{
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      t.DueDate,
		AssigneeID:   t.AssigneeID,
		ExchangeID:   t.ExchangeID,
		Tags:         t.Tags,
		SubtaskCount: t.SubtaskCount,
		SubtasksDone: t.SubtasksDone,
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data, resp.Status)}
	}
	return data, nil
}

func errorMessage(body []byte, fallback string) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return fallback
}
