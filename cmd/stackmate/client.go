package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// APIClient talks to a running stackmate daemon over HTTP.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a client for baseURL (e.g. http://127.0.0.1:8095/api).
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8095/api"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// IsReachable reports whether the daemon answers on the services endpoint.
func (c *APIClient) IsReachable() bool {
	resp, err := c.client.Get(c.baseURL + "/services")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

type messageResp struct {
	Message string `json:"message"`
	PID     int    `json:"pid,omitempty"`
}

// StartService starts a dev server via the daemon and returns its message.
func (c *APIClient) StartService(serviceType, projectPath, command string) (string, error) {
	body := map[string]string{
		"service_type": serviceType,
		"project_path": projectPath,
		"command":      command,
	}
	var out messageResp
	if err := c.postJSON("/services/start", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// StopService stops a tracked dev server via the daemon.
func (c *APIClient) StopService(serviceType, projectPath string) (string, error) {
	body := map[string]string{
		"service_type": serviceType,
		"project_path": projectPath,
	}
	var out messageResp
	if err := c.postJSON("/services/stop", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Services lists the daemon's running processes.
func (c *APIClient) Services() (interface{}, error) {
	var out interface{}
	if err := c.getJSON("/services", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DetectProject runs detection on the daemon host.
func (c *APIClient) DetectProject(path string) (interface{}, error) {
	var out interface{}
	if err := c.getJSON("/projects/detect?path="+url.QueryEscape(path), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProject scaffolds a project on the daemon host.
func (c *APIClient) CreateProject(path, name string, frontendPort, backendPort uint16) (string, error) {
	body := map[string]interface{}{
		"project_path":  path,
		"project_name":  name,
		"frontend_port": frontendPort,
		"backend_port":  backendPort,
	}
	var out messageResp
	if err := c.postJSON("/projects/create", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// History fetches recent lifecycle events from the daemon.
func (c *APIClient) History(limit int) (interface{}, error) {
	var out interface{}
	if err := c.getJSON(fmt.Sprintf("/history?limit=%d", limit), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *APIClient) postJSON(path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func (c *APIClient) getJSON(path string, out interface{}) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("API error: status %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errorResp.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
