package todo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"todosmoke/pkg/logging"
)

const subsystem = "todo"

// Options configures a Client.
type Options struct {
	// BaseURL is the service root, e.g. http://todolist.apps.example.com
	BaseURL string
	// Encoding selects form or JSON request bodies.
	Encoding Encoding
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// Debug enables resty request/response tracing through pkg/logging.
	Debug bool
}

// Client talks to the todo service REST surface.
type Client struct {
	client   *resty.Client
	encoding Encoding
}

// NewClient creates a Client for the given options.
func NewClient(opts Options) (*Client, error) {
	baseURL, err := NormalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	encoding, err := ParseEncoding(string(opts.Encoding))
	if err != nil {
		return nil, err
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetLogger(restyLogger{}).
		SetDebug(opts.Debug)

	return &Client{
		client:   rc,
		encoding: encoding,
	}, nil
}

// NormalizeBaseURL validates raw as an absolute http(s) URL and strips trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// Create posts a new item. The service answers with a JSON array whose first
// element is the created item. The body is decoded even when the status is
// not a success; in that case the decoded item is returned together with a
// *StatusError.
func (c *Client) Create(ctx context.Context, description string, completed bool) (Item, error) {
	fields := map[string]interface{}{
		"description": description,
		"completed":   completed,
	}

	resp, err := c.request(ctx, fields).Post(PathTodo)
	if err != nil {
		return Item{}, fmt.Errorf("create todo: %w", err)
	}

	var statusErr error
	if IsSuccess(resp.StatusCode()) {
		logging.Info(subsystem, "Task created successfully: %q", description)
	} else {
		logging.Warn(subsystem, "Error creating task %q: status %d", description, resp.StatusCode())
		statusErr = &StatusError{Op: "create todo", StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	item, err := decodeCreated(resp.Body())
	if err != nil {
		if statusErr != nil {
			return Item{}, fmt.Errorf("%w: %v", statusErr, err)
		}
		return Item{}, fmt.Errorf("create todo: %w", err)
	}
	return item, statusErr
}

// Update sets the completion flag of an existing item. The result only
// depends on the status code; the body is ignored.
func (c *Client) Update(ctx context.Context, id int, completed bool) (bool, error) {
	fields := map[string]interface{}{
		"id":        id,
		"completed": completed,
	}

	resp, err := c.request(ctx, fields).Post(ItemPath(id))
	if err != nil {
		return false, fmt.Errorf("update todo %d: %w", id, err)
	}
	if !IsSuccess(resp.StatusCode()) {
		logging.Warn(subsystem, "Error updating task %d: status %d", id, resp.StatusCode())
		return false, &StatusError{Op: fmt.Sprintf("update todo %d", id), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	logging.Info(subsystem, "Task %d updated successfully", id)
	return true, nil
}

// List fetches the completed or incomplete collection. Like Create, the body
// is decoded regardless of the status code.
func (c *Client) List(ctx context.Context, completed bool) ([]Item, error) {
	path := ListPath(completed)

	resp, err := c.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}

	var statusErr error
	if IsSuccess(resp.StatusCode()) {
		logging.Debug(subsystem, "Got list of items from %s", path)
	} else {
		logging.Warn(subsystem, "Failed to get list of items from %s: status %d", path, resp.StatusCode())
		statusErr = &StatusError{Op: "list " + path, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}

	var items []Item
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		if statusErr != nil {
			return nil, fmt.Errorf("%w: %v", statusErr, err)
		}
		return nil, fmt.Errorf("decode %s response: %w", path, err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, statusErr
}

// Delete removes the item identified by item.ID.
func (c *Client) Delete(ctx context.Context, item Item) (bool, error) {
	resp, err := c.client.R().SetContext(ctx).Delete(ItemPath(item.ID))
	if err != nil {
		return false, fmt.Errorf("delete todo %d: %w", item.ID, err)
	}
	if !IsSuccess(resp.StatusCode()) {
		logging.Warn(subsystem, "Failed to delete item %d: status %d", item.ID, resp.StatusCode())
		return false, &StatusError{Op: fmt.Sprintf("delete todo %d", item.ID), StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	logging.Info(subsystem, "Deleted item %d", item.ID)
	return true, nil
}

// request builds a request carrying fields in the configured encoding.
func (c *Client) request(ctx context.Context, fields map[string]interface{}) *resty.Request {
	r := c.client.R().SetContext(ctx)
	if c.encoding == EncodingJSON {
		return r.SetHeader("Content-Type", "application/json").SetBody(fields)
	}
	form := make(map[string]string, len(fields))
	for k, v := range fields {
		form[k] = formValue(v)
	}
	return r.SetFormData(form)
}

func formValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

// decodeCreated decodes a create response. The service returns a one-element
// array; a bare object is accepted too.
func decodeCreated(body []byte) (Item, error) {
	var items []Item
	arrErr := json.Unmarshal(body, &items)
	if arrErr == nil {
		if len(items) == 0 {
			return Item{}, errors.New("decode create response: empty array")
		}
		return items[0], nil
	}

	var item Item
	if err := json.Unmarshal(body, &item); err != nil {
		return Item{}, fmt.Errorf("decode create response: %w", arrErr)
	}
	return item, nil
}

// restyLogger routes resty's internal logging into pkg/logging.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	logging.Error(subsystem, nil, strings.TrimSpace(format), v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	logging.Warn(subsystem, strings.TrimSpace(format), v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	logging.Debug(subsystem, strings.TrimSpace(format), v...)
}
