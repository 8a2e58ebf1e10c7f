package scanner

import (
	"context"
	"errors"
	"fmt"

	"VaultXIngest/internal/domain"
)

// ErrMissingAPIKey is returned by adapters whose upstream requires a key that is not configured.
var ErrMissingAPIKey = errors.New("api key not configured")

// NewsSource fetches news from one upstream and maps it into RawNews records.
type NewsSource interface {
	Name() string
	FetchNews(ctx context.Context) ([]domain.RawNews, error)
}

// ToolSource fetches tool listings from one upstream.
type ToolSource interface {
	Name() string
	FetchTools(ctx context.Context) ([]domain.RawTool, error)
}

// Registry keeps news and tool adapters by name.
type Registry struct {
	news  map[string]NewsSource
	tools map[string]ToolSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{news: map[string]NewsSource{}, tools: map[string]ToolSource{}}
}

// RegisterNews adds or replaces a news adapter.
func (r *Registry) RegisterNews(src NewsSource) {
	r.news[src.Name()] = src
}

// RegisterTools adds or replaces a tool adapter.
func (r *Registry) RegisterTools(src ToolSource) {
	r.tools[src.Name()] = src
}

// ResolveNews returns a news adapter by name or an error if it is absent.
func (r *Registry) ResolveNews(name string) (NewsSource, error) {
	if src, ok := r.news[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("news source %s is not registered", name)
}

// ResolveTools returns a tool adapter by name or an error if it is absent.
func (r *Registry) ResolveTools(name string) (ToolSource, error) {
	if src, ok := r.tools[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("tool source %s is not registered", name)
}

// Outcome is what one adapter contributed to a collection pass.
// Skipped marks an adapter that did not run, such as one without its API key;
// Err then holds the reason.
type Outcome struct {
	Source  string
	Count   int
	Skipped bool
	Err     error
}
