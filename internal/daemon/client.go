package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/reflex-tools/rxdocs/internal/rpc"
)

// NotFoundError reports a lookup miss, as opposed to a daemon failure.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

type Client struct {
	socketPath string
	httpClient *http.Client
}

func NewClient(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return net.Dial("unix", socketPath)
				},
			},
			Timeout: 5 * time.Minute, // rebuilds over a large tree can be slow
		},
	}
}

// ConnectOrSpawn tries to connect to the daemon, spawning it if necessary.
func ConnectOrSpawn(socketPath string) (*Client, error) {
	client := NewClient(socketPath)

	if client.IsAvailable() {
		return client, nil
	}

	if err := Spawn(); err != nil {
		return nil, fmt.Errorf("spawning daemon: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
		if client.IsAvailable() {
			return client, nil
		}
	}

	return nil, fmt.Errorf("daemon did not start within 5 seconds")
}

func (c *Client) IsAvailable() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Rebuild runs a catalog rebuild, forwarding streamed progress lines to
// onProgress and returning the final result line.
func (c *Client) Rebuild(ctx context.Context, onProgress func(string)) (*rpc.RebuildResult, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", "http://unix/rebuild", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(body))
	}

	var result *rpc.RebuildResult
	dec := json.NewDecoder(resp.Body)
	for dec.More() {
		var line rpc.ProgressLine
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("decoding progress: %w", err)
		}
		switch line.Type {
		case "progress":
			if onProgress != nil {
				onProgress(line.Message)
			}
		case "result":
			if line.Result != nil {
				result = line.Result
			}
		}
	}

	if result == nil {
		return nil, fmt.Errorf("daemon closed the stream without a result")
	}
	return result, nil
}

func (c *Client) GetComponent(ctx context.Context, name string) (*rpc.ComponentResponse, error) {
	var resp rpc.ComponentResponse
	err := c.post(ctx, "/component", rpc.GetComponentRequest{Name: name}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetDocSection(ctx context.Context, name string) (*rpc.DocSectionResponse, error) {
	var resp rpc.DocSectionResponse
	err := c.post(ctx, "/doc", rpc.GetDocRequest{Name: name}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListComponents(ctx context.Context, category string) (*rpc.ListComponentsResponse, error) {
	var resp rpc.ListComponentsResponse
	err := c.post(ctx, "/components", rpc.ListComponentsRequest{Category: category}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDocSections(ctx context.Context, section string) (*rpc.ListDocsResponse, error) {
	var resp rpc.ListDocsResponse
	err := c.post(ctx, "/docs", rpc.ListDocsRequest{Section: section}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Categories(ctx context.Context) (*rpc.CategoriesResponse, error) {
	var resp rpc.CategoriesResponse
	err := c.get(ctx, "/categories", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Sections(ctx context.Context) (*rpc.SectionsResponse, error) {
	var resp rpc.SectionsResponse
	err := c.get(ctx, "/sections", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context) (*rpc.StatusResponse, error) {
	var resp rpc.StatusResponse
	err := c.get(ctx, "/status", &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	var resp map[string]string
	return c.post(ctx, "/shutdown", nil, &resp)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "http://unix"+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "http://unix"+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{Message: errorMessage(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// errorMessage extracts the error field from a daemon error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return string(body)
}
