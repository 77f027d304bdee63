// Package upstream implements the data-access contract against the
// original REST API (/usuarios/, /tickets/, /contenedores/, ...).
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/domain"
)

// Client performs JSON requests against the upstream API. Failures are
// reported, never retried.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fiber.Client
	logger  *zap.Logger
}

// NewClient builds a Client rooted at baseURL (e.g. http://host:8000/api).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http: &fiber.Client{
			UserAgent:   "port-ticket-service",
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
		},
		logger: logger,
	}
}

func (c *Client) agent(method, uri string) *fiber.Agent {
	switch method {
	case fiber.MethodPost:
		return c.http.Post(uri)
	case fiber.MethodPut:
		return c.http.Put(uri)
	case fiber.MethodPatch:
		return c.http.Patch(uri)
	case fiber.MethodDelete:
		return c.http.Delete(uri)
	default:
		return c.http.Get(uri)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	a := c.agent(method, uri)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	if body != nil {
		a.JSON(body)
	}

	start := time.Now()
	status, payload, errs := a.Bytes()
	c.logger.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstreamFailure, method, path, errors.Join(errs...))
	}
	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		return &domain.UpstreamError{Status: status, Body: string(payload)}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", domain.ErrUpstreamFailure, method, path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, fiber.MethodGet, path, query, nil, out)
}

// Ping checks that the upstream API answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/roles/", nil, nil)
}
