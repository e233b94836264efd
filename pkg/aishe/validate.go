package aishe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const healthSchema = `{
  "type": "object",
  "required": ["status", "ollama_accessible"],
  "properties": {
    "status": {"type": "string"},
    "ollama_accessible": {"type": "boolean"},
    "message": {"type": ["string", "null"]}
  }
}`

const answerSchema = `{
  "type": "object",
  "required": ["answer", "sources", "processing_time"],
  "properties": {
    "answer": {"type": "string"},
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["number", "title", "url"],
        "properties": {
          "number": {"type": "integer"},
          "title": {"type": "string"},
          "url": {"type": "string"}
        }
      }
    },
    "processing_time": {"type": "number"}
  }
}`

// Validator performs structural checks on health and answer payloads:
// presence and JSON type of every required field, nothing semantic.
// It is safe for concurrent use.
type Validator struct {
	health *gojsonschema.Schema
	answer *gojsonschema.Schema
}

// NewValidator compiles the payload schemas.
func NewValidator() (*Validator, error) {
	health, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(healthSchema))
	if err != nil {
		return nil, fmt.Errorf("validator: compile health schema: %w", err)
	}
	answer, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(answerSchema))
	if err != nil {
		return nil, fmt.Errorf("validator: compile answer schema: %w", err)
	}
	return &Validator{health: health, answer: answer}, nil
}

var defaultValidator = mustValidator()

func mustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// DefaultValidator returns the package-level validator.
func DefaultValidator() *Validator { return defaultValidator }

// IsHealth reports whether data is a well-formed health payload.
func (v *Validator) IsHealth(data []byte) bool { return v.ValidateHealth(data) == nil }

// IsAnswer reports whether data is a well-formed answer payload.
func (v *Validator) IsAnswer(data []byte) bool { return v.ValidateAnswer(data) == nil }

// ValidateHealth returns a description of every structural problem in data.
func (v *Validator) ValidateHealth(data []byte) error { return validate(v.health, data) }

// ValidateAnswer returns a description of every structural problem in data.
func (v *Validator) ValidateAnswer(data []byte) error { return validate(v.answer, data) }

func validate(schema *gojsonschema.Schema, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("data is not valid JSON")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

// DecodeAnswer validates and decodes an answer fetched from the network.
func (v *Validator) DecodeAnswer(data []byte) (*AnswerResult, error) {
	return v.decodeAnswer(data, ErrMalformedResponse)
}

// DecodeCachedAnswer validates and decodes an answer replayed from a cache.
// Failures wrap ErrCorruptCacheEntry so they are never confused with a bad
// fresh fetch.
func (v *Validator) DecodeCachedAnswer(data []byte) (*AnswerResult, error) {
	return v.decodeAnswer(data, ErrCorruptCacheEntry)
}

func (v *Validator) decodeAnswer(data []byte, cause error) (*AnswerResult, error) {
	if err := v.ValidateAnswer(data); err != nil {
		return nil, NewClientError(err.Error(), cause)
	}
	var answer AnswerResult
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, NewClientError(fmt.Sprintf("decode answer: %v", err), cause)
	}
	if answer.Sources == nil {
		answer.Sources = []Source{}
	}
	return &answer, nil
}

// DecodeHealth validates and decodes a health payload.
func (v *Validator) DecodeHealth(data []byte) (*HealthStatus, error) {
	if err := v.ValidateHealth(data); err != nil {
		return nil, NewClientError(err.Error(), ErrMalformedResponse)
	}
	var health HealthStatus
	if err := json.Unmarshal(data, &health); err != nil {
		return nil, NewClientError(fmt.Sprintf("decode health: %v", err), ErrMalformedResponse)
	}
	return &health, nil
}
