package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"VaultXIngest/internal/config"
	"VaultXIngest/internal/scanner"
)

func jsonServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewsAPIRequiresKey(t *testing.T) {
	t.Parallel()

	src := NewNewsAPI(config.SourceConfig{Name: "newsapi", BaseURL: "http://127.0.0.1:1"}, nil)
	_, err := src.FetchNews(context.Background())
	require.ErrorIs(t, err, scanner.ErrMissingAPIKey)
}

func TestNewsAPIFetch(t *testing.T) {
	t.Parallel()

	var gotKey, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(`{"status":"ok","articles":[
			{"source":{"name":"Wire"},"author":"","title":"OpenAI ships","description":"A model","url":"https://a","urlToImage":"https://img","publishedAt":"2026-10-01T08:00:00Z"},
			{"source":{"name":"Wire"},"author":"Bob","title":"Second","description":"","content":"Fallback body","url":"https://b","publishedAt":"2026-10-01T09:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	src := NewNewsAPI(config.SourceConfig{Name: "newsapi", BaseURL: srv.URL, APIKey: "k", Query: "ai"}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k", gotKey)
	require.Equal(t, "ai", gotQuery)
	require.Len(t, items, 2)

	require.Equal(t, "OpenAI ships", items[0].Title)
	require.Equal(t, "Wire", items[0].Author)
	require.Equal(t, "https://img", items[0].ImageURL)
	require.Equal(t, time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())
	require.Equal(t, "Fallback body", items[1].Content)
	require.Equal(t, "newsapi", items[1].Source)
	require.Nil(t, items[0].Engagement)
}

func TestNewsAPIErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","message":"bad key"}`))
	}))
	defer srv.Close()

	src := NewNewsAPI(config.SourceConfig{Name: "newsapi", BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	_, err := src.FetchNews(context.Background())
	require.ErrorContains(t, err, "401")
}

func TestRedditSkipsLinkAndStickiedPosts(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		require.Equal(t, "/r/artificial/hot.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Rules","selftext":"read me","stickied":true}},
			{"data":{"title":"Link post","selftext":"","url":"https://x"}},
			{"data":{"title":"Discussion on agents","selftext":"What do you think?","permalink":"/r/artificial/comments/1/x/","author":"u1","created_utc":1790000000,"score":42,"thumbnail":"self"}}
		]}}`))
	}))
	defer srv.Close()

	src := NewReddit(config.SourceConfig{Name: "reddit", BaseURL: srv.URL, Options: map[string]string{"subreddits": "artificial"}}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Equal(t, userAgent, gotUA)
	require.Len(t, items, 1)

	item := items[0]
	require.Equal(t, "Discussion on agents", item.Title)
	require.Equal(t, srv.URL+"/r/artificial/comments/1/x/", item.URL)
	require.Empty(t, item.ImageURL)
	require.NotNil(t, item.Engagement)
	require.Equal(t, 42, *item.Engagement)
	require.Equal(t, int64(1790000000), item.PublishedAt.Unix())
}

func TestHackerNewsFiltersAIStories(t *testing.T) {
	t.Parallel()

	routes := map[string]string{
		"/v0/topstories.json": `[1,2,3,4,5]`,
		"/v0/item/1.json":     `{"id":1,"type":"story","title":"Show HN: A faster LLM server","url":"https://llm.example","by":"pg","time":1790000000,"score":120}`,
		"/v0/item/2.json":     `{"id":2,"type":"story","title":"Rust 2.0 released","url":"https://rust.example","time":1790000000}`,
		"/v0/item/3.json":     `{"id":3,"type":"story","title":"Ask HN: machine learning jobs?","text":"<p>Hiring?</p>","by":"x","score":7}`,
		"/v0/item/4.json":     `{"id":4,"type":"job","title":"AI startup hiring","time":1790000000}`,
		"/v0/item/5.json":     `{"id":5,"type":"story","title":"Said no to the plan","time":1790000000}`,
	}
	srv := jsonServer(t, routes)

	src := NewHackerNews(config.SourceConfig{Name: "hackernews", BaseURL: srv.URL, Options: map[string]string{"rps": "1000"}}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "Show HN: A faster LLM server", items[0].Title)
	require.Equal(t, "Show HN: A faster LLM server", items[0].Content)
	require.Equal(t, "https://llm.example", items[0].URL)
	require.Equal(t, 120, *items[0].Engagement)
	require.Equal(t, int64(1790000000), items[0].PublishedAt.Unix())

	require.Equal(t, "<p>Hiring?</p>", items[1].Content)
	require.Equal(t, "https://news.ycombinator.com/item?id=3", items[1].URL)
	require.True(t, items[1].PublishedAt.IsZero(), "missing time must not become 1970")
}

func TestRedditMissingCreatedLeavesZeroTime(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Undated post","selftext":"body","permalink":"/r/ml/1/"}}
		]}}`))
	}))
	defer srv.Close()

	src := NewReddit(config.SourceConfig{Name: "reddit", BaseURL: srv.URL, Options: map[string]string{"subreddits": "ml"}}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].PublishedAt.IsZero())
}

func TestHackerNewsAllItemsFailing(t *testing.T) {
	t.Parallel()

	srv := jsonServer(t, map[string]string{"/v0/topstories.json": `[10,11]`})
	src := NewHackerNews(config.SourceConfig{Name: "hackernews", BaseURL: srv.URL, Options: map[string]string{"rps": "1000"}}, srv.Client())
	_, err := src.FetchNews(context.Background())
	require.Error(t, err)
}

func TestAIRelated(t *testing.T) {
	t.Parallel()

	require.True(t, aiRelated("New AI chip"))
	require.True(t, aiRelated("Deep Learning at scale"))
	require.False(t, aiRelated("Maintaining a fair schedule"))
	require.False(t, aiRelated("Email is dead"))
}

func TestDevToFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/articles", r.URL.Path)
		require.Equal(t, "ml", r.URL.Query().Get("tag"))
		_, _ = w.Write([]byte(`[{"title":"Build an agent","description":"Step by step","url":"https://dev.to/a","cover_image":"https://c","published_at":"2026-09-01T10:00:00Z","positive_reactions_count":13,"user":{"name":"Dana"}}]`))
	}))
	defer srv.Close()

	src := NewDevTo(config.SourceConfig{Name: "devto", BaseURL: srv.URL, Options: map[string]string{"tag": "ml"}}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Dana", items[0].Author)
	require.Equal(t, 13, *items[0].Engagement)
	require.Equal(t, "https://c", items[0].ImageURL)
}

const rssFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Lab</title>
<item><title>Research update</title><link>https://lab/1</link><description>New results</description><pubDate>Mon, 05 Oct 2026 10:00:00 GMT</pubDate></item>
<item><title>Second post</title><link>https://lab/2</link><description>More</description></item>
<item><title>Third post</title><link>https://lab/3</link><description>Even more</description></item>
</channel></rss>`

func TestRSSPartialFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	src := NewRSS(config.SourceConfig{Name: "rss", Limit: 2, Feeds: []string{srv.URL + "/broken", srv.URL + "/feed"}}, srv.Client())
	items, err := src.FetchNews(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "Research update", items[0].Title)
	require.Equal(t, "New results", items[0].Content)
	require.Equal(t, time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC), items[0].PublishedAt)
	require.True(t, items[1].PublishedAt.IsZero())
}

func TestRSSAllFeedsFailing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewRSS(config.SourceConfig{Name: "rss", Feeds: []string{srv.URL + "/a"}}, srv.Client())
	_, err := src.FetchNews(context.Background())
	require.Error(t, err)
}

func TestGitHubFetch(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/search/repositories", r.URL.Path)
		require.Equal(t, "stars", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{"items":[
			{"name":"langchain","description":"Build LLM apps","html_url":"https://github.com/x/langchain","homepage":"https://langchain.dev","stargazers_count":90000},
			{"name":"old","description":"gone","html_url":"https://github.com/x/old","archived":true},
			{"name":"whisper","description":"Speech recognition","html_url":"https://github.com/x/whisper","homepage":"","stargazers_count":5000}
		]}`))
	}))
	defer srv.Close()

	src := NewGitHub(config.SourceConfig{Name: "github", BaseURL: srv.URL, APIKey: "tok"}, srv.Client())
	tools, err := src.FetchTools(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, tools, 2)
	require.Equal(t, "https://langchain.dev", tools[0].Website)
	require.Equal(t, 90000, tools[0].Popularity)
	require.Equal(t, "https://github.com/x/whisper", tools[1].Website)
}

func TestGitHubWithoutToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	tools, err := NewGitHub(config.SourceConfig{Name: "github", BaseURL: srv.URL}, srv.Client()).FetchTools(context.Background())
	require.NoError(t, err)
	require.Empty(t, tools)
	require.Empty(t, gotAuth)
}

func TestHuggingFaceFetch(t *testing.T) {
	t.Parallel()

	srv := jsonServer(t, map[string]string{
		"/api/spaces": `[
			{"id":"acme/image-studio","likes":800,"cardData":{"title":"Image Studio","short_description":"Generate images"}},
			{"id":"acme/voice-lab","likes":20,"cardData":{}}
		]`,
	})

	tools, err := NewHuggingFace(config.SourceConfig{Name: "huggingface", BaseURL: srv.URL}, srv.Client()).FetchTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	require.Equal(t, "Image Studio", tools[0].Name)
	require.Equal(t, srv.URL+"/spaces/acme/image-studio", tools[0].Website)
	require.Equal(t, 800, tools[0].Popularity)
	require.Equal(t, "voice-lab", tools[1].Name)
	require.Empty(t, tools[1].Description)
}

func TestBuildRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, _, _, err := Build(config.SourcesConfig{News: []config.SourceConfig{{Name: "x", Type: "gopher"}}}, nil)
	require.Error(t, err)
}

func TestBuildSkipsDisabled(t *testing.T) {
	t.Parallel()

	reg, news, tools, err := Build(config.SourcesConfig{
		News: []config.SourceConfig{
			{Type: "devto"},
			{Name: "off", Type: "reddit", Disabled: true},
		},
		Tools: []config.SourceConfig{{Name: "gh", Type: "github"}},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"devto"}, news)
	require.Equal(t, []string{"gh"}, tools)

	_, err = reg.ResolveNews("off")
	require.Error(t, err)
	_, err = reg.ResolveTools("gh")
	require.NoError(t, err)
}

func TestGetJSONNonSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = fmt.Fprint(w, strings.Repeat("x", 1000))
	}))
	defer srv.Close()

	var v any
	err := getJSON(context.Background(), srv.Client(), srv.URL, nil, &v)
	require.ErrorContains(t, err, "429")
	require.Less(t, len(err.Error()), 400)
}
