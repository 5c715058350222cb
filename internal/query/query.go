// Package query runs jq expressions over rendered workflow documents.
package query

import (
	"context"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/rendis/wfkit/pkg/generate"
	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/tree"
)

// Engine evaluates jq expressions. Compiled programs are cached and safe
// to reuse across goroutines.
type Engine struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewEngine creates a new jq engine.
func NewEngine() *Engine {
	return &Engine{cache: make(map[string]*gojq.Code)}
}

// Input builds the query input for a set of rendered files: an object
// keyed by file name holding each document.
func Input(files []generate.File) map[string]any {
	out := make(map[string]any, len(files))
	for _, f := range files {
		out[f.Name] = tree.Plain(f.Tree)
	}
	return out
}

// Run evaluates expression against input and returns every output.
func (e *Engine) Run(ctx context.Context, expression string, input any) ([]any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq expression")
	}

	code, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	iter := code.RunWithContext(ctx, plain(input))

	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"jq evaluation failed for %q: %s", expression, err.Error()).
				WithCause(err).
				WithDetails(map[string]any{"expression": expression})
		}
		results = append(results, val)
	}
	return results, nil
}

// First is Run returning only the first output, or nil.
func (e *Engine) First(ctx context.Context, expression string, input any) (any, error) {
	results, err := e.Run(ctx, expression, input)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// plain turns rendered trees into the map/slice shapes gojq accepts.
func plain(input any) any {
	switch x := input.(type) {
	case *tree.Map:
		return tree.Plain(x)
	case []generate.File:
		return Input(x)
	}
	return input
}

// getOrCompile returns a cached compiled code or compiles and caches a new one.
func (e *Engine) getOrCompile(expression string) (*gojq.Code, error) {
	e.mu.RLock()
	if code, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if code, ok := e.cache[expression]; ok {
		return code, nil
	}

	q, err := gojq.Parse(expression)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	code, err := gojq.Compile(q,
		// no $ENV: queries only see the documents
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = code
	return code, nil
}
