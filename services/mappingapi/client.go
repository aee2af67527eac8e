package mappingapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/curriculum/core"
	"github.com/trezcool/curriculum/core/mapping"
)

// Client talks to the mapping REST API. It is the mapping.Backend of an Editor.
type Client struct {
	baseURL string
	headers map[string]string
	rest    *rest.Client
}

var _ mapping.Backend = (*Client)(nil)

func NewClient(conf *core.Config) *Client {
	return NewClientWithHTTP(conf.Client.BaseURL, &http.Client{Timeout: conf.Client.Timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{"Accept": "application/json"},
		rest:    &rest.Client{HTTPClient: httpClient},
	}
}

func (c *Client) courseURL(courseID string, parts ...string) string {
	u := c.baseURL + "/api/course/" + url.PathEscape(courseID)
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

func (c *Client) do(ctx context.Context, method rest.Method, u string, in, out interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: u,
		Headers: make(map[string]string, len(c.headers)+1),
	}
	for k, v := range c.headers {
		req.Headers[k] = v
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, u)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return newStatusError(res)
	}
	if out != nil {
		if err = json.Unmarshal([]byte(res.Body), out); err != nil {
			return errors.Wrap(err, "decoding response body")
		}
	}
	return nil
}

// newStatusError reads {"error": "..."} or a field error map off a failed response.
func newStatusError(res *rest.Response) *mapping.StatusError {
	serr := &mapping.StatusError{Code: res.StatusCode}

	var body map[string]interface{}
	if err := json.Unmarshal([]byte(res.Body), &body); err != nil {
		serr.Message = strings.TrimSpace(res.Body)
		return serr
	}
	if msg, ok := body["error"].(string); ok {
		serr.Message = msg
		return serr
	}
	fields := make([]string, 0, len(body))
	for k, v := range body {
		if s, ok := v.(string); ok {
			fields = append(fields, k+": "+s)
		}
	}
	sort.Strings(fields)
	serr.Message = strings.Join(fields, "; ")
	return serr
}

// FetchMapping gets the outcomes and both sparse lists of a course.
func (c *Client) FetchMapping(ctx context.Context, courseID string) (mapping.Mapping, error) {
	var m mapping.Mapping
	if err := c.do(ctx, rest.Get, c.courseURL(courseID, "mapping"), nil, &m); err != nil {
		return mapping.Mapping{}, err
	}
	if m.Outcomes == nil {
		m.Outcomes = []string{}
	}
	return m, nil
}

// ReplaceMapping overwrites the whole mapping set of a course.
func (c *Client) ReplaceMapping(ctx context.Context, courseID string, payload mapping.Payload) error {
	return c.do(ctx, rest.Post, c.courseURL(courseID, "mapping"), payload, nil)
}

// SetOutcomes (re)defines the outcomes of a course, creating it when needed.
func (c *Client) SetOutcomes(ctx context.Context, courseID string, so mapping.SetOutcomes) (mapping.Course, error) {
	var course mapping.Course
	if err := c.do(ctx, rest.Put, c.courseURL(courseID, "outcomes"), so, &course); err != nil {
		return mapping.Course{}, err
	}
	return course, nil
}

func (c *Client) ListCourses(ctx context.Context) ([]mapping.CourseSummary, error) {
	var courses []mapping.CourseSummary
	if err := c.do(ctx, rest.Get, c.baseURL+"/api/courses", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
