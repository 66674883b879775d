package wolfram

import (
	"fmt"
	"io"

	"github.com/u296/wolframalpha-api/pkg/wolfram/raw"
)

// Parse decodes and normalizes a full-results JSON document.
//
// It either returns a complete result or fails with a *SchemaViolation; a partially
// populated result is never returned. A document that carries an upstream error still
// parses successfully and exposes it through QueryResult.Error.
func Parse(data []byte) (*QueryResult, error) {
	doc, err := raw.Parse(data)
	if err != nil {
		return nil, err
	}
	result, err := normalizeQueryResult(doc.QueryResult, "queryresult")
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ParseReader reads r to the end and parses it.
func ParseReader(r io.Reader) (*QueryResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(data)
}
