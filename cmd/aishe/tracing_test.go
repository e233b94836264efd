package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracer_None(t *testing.T) {
	tracer, shutdown, err := newTracer("none", nil)
	require.NoError(t, err)
	assert.Nil(t, tracer)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracer_StdoutWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer, shutdown, err := newTracer("stdout", &buf)
	require.NoError(t, err)
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "aishe.ask")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name": "aishe.ask"`)
}

func TestNewTracer_Unknown(t *testing.T) {
	_, _, err := newTracer("jaeger", nil)
	assert.Error(t, err)
}
