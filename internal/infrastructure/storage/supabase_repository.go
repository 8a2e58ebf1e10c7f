package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"VaultXIngest/internal/domain"
	"VaultXIngest/internal/ports"
)

// SupabaseRepository talks to the PostgREST API exposed by Supabase.
type SupabaseRepository struct {
	baseURL string
	key     string
	tables  Tables
	http    *http.Client
	now     func() time.Time
}

var (
	_ ports.NewsRepository = (*SupabaseRepository)(nil)
	_ ports.ToolRepository = (*SupabaseRepository)(nil)
	_ ports.RunLocker      = (*SupabaseRepository)(nil)
)

// NewSupabaseRepository wires the project URL and service role key.
func NewSupabaseRepository(projectURL, serviceKey string, tables Tables, client *http.Client) *SupabaseRepository {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SupabaseRepository{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1/",
		key:     serviceKey,
		tables:  tables.withDefaults(),
		http:    client,
		now:     time.Now,
	}
}

func (s *SupabaseRepository) NewsExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, s.tables.News, id)
}

func (s *SupabaseRepository) ToolExists(ctx context.Context, id string) (bool, error) {
	return s.exists(ctx, s.tables.Tools, id)
}

func (s *SupabaseRepository) exists(ctx context.Context, table, id string) (bool, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "id")
	var rows []struct {
		ID string `json:"id"`
	}
	if _, err := s.do(ctx, http.MethodGet, table, q, nil, nil, &rows); err != nil {
		return false, fmt.Errorf("query %s exists: %w", table, err)
	}
	return len(rows) > 0, nil
}

func (s *SupabaseRepository) InsertNews(ctx context.Context, item domain.NewsItem) error {
	if _, err := s.do(ctx, http.MethodPost, s.tables.News, nil, nil, newsToRow(item), nil); err != nil {
		return fmt.Errorf("insert news: %w", err)
	}
	return nil
}

func (s *SupabaseRepository) UpdateNews(ctx context.Context, item domain.NewsItem) error {
	row := newsToRow(item)
	row.CreatedAt = ""
	return s.patchByID(ctx, s.tables.News, item.ID, row)
}

func (s *SupabaseRepository) InsertTool(ctx context.Context, item domain.ToolItem) error {
	if _, err := s.do(ctx, http.MethodPost, s.tables.Tools, nil, nil, toolToRow(item), nil); err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

func (s *SupabaseRepository) UpdateTool(ctx context.Context, item domain.ToolItem) error {
	row := toolToRow(item)
	row.CreatedAt = ""
	return s.patchByID(ctx, s.tables.Tools, item.ID, row)
}

func (s *SupabaseRepository) patchByID(ctx context.Context, table, id string, row any) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if _, err := s.do(ctx, http.MethodPatch, table, q, nil, row, nil); err != nil {
		return fmt.Errorf("update %s %s: %w", table, id, err)
	}
	return nil
}

// Counts reads exact row counts from the Content-Range header.
func (s *SupabaseRepository) Counts(ctx context.Context) (news, tools int, err error) {
	if news, err = s.count(ctx, s.tables.News); err != nil {
		return 0, 0, err
	}
	if tools, err = s.count(ctx, s.tables.Tools); err != nil {
		return 0, 0, err
	}
	return news, tools, nil
}

func (s *SupabaseRepository) count(ctx context.Context, table string) (int, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	header := http.Header{"Prefer": {"count=exact"}}
	resp, err := s.do(ctx, http.MethodGet, table, q, header, nil, nil)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	cr := resp.Get("Content-Range")
	_, total, ok := strings.Cut(cr, "/")
	if !ok {
		return 0, fmt.Errorf("count %s: missing content range", table)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("count %s: bad content range %q", table, cr)
	}
	return n, nil
}

type lockRow struct {
	Name       string `json:"name"`
	Holder     string `json:"holder"`
	AcquiredAt int64  `json:"acquired_at"`
}

// TryLock seeds the lock row then claims it with a conditional PATCH.
func (s *SupabaseRepository) TryLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	seed := http.Header{"Prefer": {"resolution=ignore-duplicates"}}
	if _, err := s.do(ctx, http.MethodPost, lockTable, nil, seed, lockRow{Name: name}, nil); err != nil {
		return false, fmt.Errorf("seed lock: %w", err)
	}

	now := s.now()
	q := url.Values{}
	q.Set("name", "eq."+name)
	q.Set("or", fmt.Sprintf(`(holder.eq."",holder.eq.%s,acquired_at.lt.%d)`, holder, now.Add(-ttl).Unix()))
	var claimed []lockRow
	header := http.Header{"Prefer": {"return=representation"}}
	body := lockRow{Name: name, Holder: holder, AcquiredAt: now.Unix()}
	if _, err := s.do(ctx, http.MethodPatch, lockTable, q, header, body, &claimed); err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return len(claimed) == 1, nil
}

func (s *SupabaseRepository) Unlock(ctx context.Context, name, holder string) error {
	q := url.Values{}
	q.Set("name", "eq."+name)
	q.Set("holder", "eq."+holder)
	if _, err := s.do(ctx, http.MethodPatch, lockTable, q, nil, lockRow{Name: name}, nil); err != nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

func (s *SupabaseRepository) do(ctx context.Context, method, table string, q url.Values, header http.Header, payload, v any) (http.Header, error) {
	target := s.baseURL + table
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.Header, nil
}
