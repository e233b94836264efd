package aishe

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorFamily(t *testing.T) {
	client := NewClientError("bad input", ErrEmptyQuestion)
	service := &ServiceError{Method: "POST", StatusCode: 503}
	unreachable := &UnreachableError{Method: "GET", Timeout: 2 * time.Second, Err: context.DeadlineExceeded}

	for _, err := range []error{client, service, unreachable} {
		assert.ErrorIs(t, err, ErrClient, "%T should belong to the client error family", err)
	}

	assert.NotErrorIs(t, client, ErrService)
	assert.NotErrorIs(t, client, ErrUnreachable)
	assert.ErrorIs(t, client, ErrEmptyQuestion)

	assert.ErrorIs(t, service, ErrService)
	assert.NotErrorIs(t, service, ErrUnreachable)

	assert.ErrorIs(t, unreachable, ErrUnreachable)
	assert.NotErrorIs(t, unreachable, ErrService)
}

func TestErrorFamily_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("orchestrator: ask: %w", &ServiceError{Method: "POST", StatusCode: 500})

	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 500, svcErr.StatusCode)
	assert.ErrorIs(t, err, ErrService)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "POST request failed! Status: 500", (&ServiceError{Method: "POST", StatusCode: 500}).Error())
	assert.Equal(t, "GET request failed! Status: 404: Not Found",
		(&ServiceError{Method: "GET", StatusCode: 404, Detail: "Not Found"}).Error())
	assert.Equal(t, "GET request timed out after 120000ms",
		(&UnreachableError{Method: "GET", Timeout: 120 * time.Second}).Error())
	assert.Equal(t, "question cannot be empty", NewClientError("", ErrEmptyQuestion).Error())
	assert.Equal(t, "decode: corrupt cache entry", NewClientError("decode", ErrCorruptCacheEntry).Error())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "", Kind(errors.New("other")))
	assert.Equal(t, "client", Kind(NewClientError("x", nil)))
	assert.Equal(t, "service", Kind(&ServiceError{Method: "GET", StatusCode: 500}))
	assert.Equal(t, "unreachable", Kind(&UnreachableError{Method: "GET"}))
}
