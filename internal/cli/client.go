package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// WorkRequestResponse — work request из API.
type WorkRequestResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// CreatedResponse — результат создания work request.
type CreatedResponse struct {
	ID            string `json:"id"`
	EventID       string `json:"event_id"`
	CorrelationID string `json:"correlation_id"`
}

// --- Request types ---

// CreateWorkRequestRequest — создание work request.
type CreateWorkRequestRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		CorrelationID string `json:"correlation_id"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для HRM API.
type Client struct {
	baseURL       string
	correlationID string
	httpClient    *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithCorrelationID задаёт X-Correlation-Id для всех запросов клиента.
func (c *Client) WithCorrelationID(id string) *Client {
	c.correlationID = id
	return c
}

// --- Work requests ---

// CreateWorkRequest создаёт work request.
func (c *Client) CreateWorkRequest(req CreateWorkRequestRequest) (*CreatedResponse, error) {
	var created CreatedResponse
	err := c.post("/api/v1/work-requests", req, &created)
	return &created, err
}

// GetWorkRequest возвращает work request по ID.
func (c *Client) GetWorkRequest(id string) (*WorkRequestResponse, error) {
	var wr WorkRequestResponse
	err := c.get("/api/v1/work-requests/"+id, &wr)
	return &wr, err
}

// ListWorkRequests возвращает последние work requests.
func (c *Client) ListWorkRequests(limit int) ([]WorkRequestResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var items []WorkRequestResponse
	err := c.list("/api/v1/work-requests", params, &items)
	return items, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.correlationID != "" {
		req.Header.Set("X-Correlation-Id", c.correlationID)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	if er.Error.CorrelationID != "" {
		return fmt.Errorf("%s: %s (correlation id %s)", er.Error.Code, er.Error.Message, er.Error.CorrelationID)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
