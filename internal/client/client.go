// Package client talks to the directory REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coe-console/internal/directory"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the backend at baseURL, e.g. http://localhost:8080.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, http: httpClient}, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) FetchUsers(ctx context.Context) ([]directory.User, error) {
	var users []directory.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, "", &users); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	return users, nil
}

func (c *Client) FetchDepartments(ctx context.Context) ([]directory.Department, error) {
	var depts []directory.Department
	if err := c.do(ctx, http.MethodGet, "/api/departments", nil, "", &depts); err != nil {
		return nil, fmt.Errorf("fetch departments: %w", err)
	}
	return depts, nil
}

func (c *Client) UpdateUser(ctx context.Context, u directory.User) error {
	body, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/api/users/"+url.PathEscape(u.ID), bytes.NewReader(body), "application/json", nil); err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(id), nil, "", nil); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}

// UploadUsers posts csv as the multipart field "file". A 202 answer yields a
// result with Partial set and the skipped-row messages in Errors.
func (c *Client) UploadUsers(ctx context.Context, fileName, csv string) (directory.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return directory.UploadResult{}, err
	}
	if _, err := io.WriteString(fw, csv); err != nil {
		return directory.UploadResult{}, err
	}
	if err := mw.Close(); err != nil {
		return directory.UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-users", &buf)
	if err != nil {
		return directory.UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return directory.UploadResult{}, fmt.Errorf("upload users: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return directory.UploadResult{}, fmt.Errorf("upload users: %w", err)
	}

	var res directory.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return directory.UploadResult{}, fmt.Errorf("upload users: decode response: %w", err)
	}
	res.Partial = resp.StatusCode == http.StatusAccepted
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus turns a non-2xx response into an *APIError, preferring the
// backend's "error" text over its "message".
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &payload) == nil {
		switch {
		case payload.Error != "" && payload.Message != "":
			msg = payload.Message + ": " + payload.Error
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
