package aishe

import (
	"context"
	"net/http"
	"strings"
)

// Server endpoints.
const (
	HealthEndpoint = "/health"
	AskEndpoint    = "/api/v1/ask"
)

// Client calls the AISHE endpoints through an Executor and validates every
// payload it receives. It does no caching.
type Client struct {
	executor  *Executor
	validator *Validator
}

// NewClient creates a client. A nil validator selects DefaultValidator.
func NewClient(executor *Executor, validator *Validator) *Client {
	if validator == nil {
		validator = DefaultValidator()
	}
	return &Client{executor: executor, validator: validator}
}

// Health checks the server's health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	data, err := c.executor.Execute(ctx, http.MethodGet, HealthEndpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.validator.DecodeHealth(data)
}

// Ask sends question, trimmed, to the ask endpoint.
func (c *Client) Ask(ctx context.Context, question string) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, NewClientError("", ErrEmptyQuestion)
	}
	data, err := c.executor.Execute(ctx, http.MethodPost, AskEndpoint, questionRequest{Question: question})
	if err != nil {
		return nil, err
	}
	return c.validator.DecodeAnswer(data)
}
