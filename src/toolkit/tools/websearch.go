package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/SohailShaikh7860/ai-agent-cli/src/toolkit"
)

// Tool name constant
const WebSearchName = "web_search"

const webSearchPrompt = `Searches the web for a query and returns the top results.

WHEN TO USE THIS TOOL:
- Use when you need current information that may not be in your training data
- Helpful for looking up documentation, news, or facts

HOW TO USE:
- Provide the search query
- Optionally limit the number of results (default 5, max 10)

LIMITATIONS:
- Results are summaries with links, not full page contents
- Some queries may return no results`

const (
	maxResponseSize   = 5 * 1024 * 1024 // 5MB
	defaultMaxResults = 5
)

// searchEndpoint is a var so tests can point it at a local server.
var searchEndpoint = "https://html.duckduckgo.com/html/"

// WebSearchInput represents the parameters for web_search
type WebSearchInput struct {
	Query      string `json:"query" required:"true" description:"The search query"`
	MaxResults int    `json:"max_results,omitempty" description:"Maximum number of results to return (default 5, max 10)"`
}

// SearchResult is a single search hit
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// WebSearchOutput represents the response from web_search
type WebSearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// WebSearchTool returns the web_search tool definition
func WebSearchTool() (toolkit.Tool, error) {
	return toolkit.NewGenericTool(WebSearchName, webSearchPrompt, webSearchHandler)
}

func webSearchHandler(ctx context.Context, input WebSearchInput) (WebSearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return WebSearchOutput{}, fmt.Errorf("query parameter is required")
	}

	maxResults := input.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	} else if maxResults > 10 {
		maxResults = 10
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	searchURL := searchEndpoint + "?q=" + url.QueryEscape(input.Query)
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return WebSearchOutput{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ai-agent-cli/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return WebSearchOutput{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WebSearchOutput{}, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return WebSearchOutput{}, fmt.Errorf("failed to read response: %w", err)
	}

	results, err := parseSearchResults(strings.NewReader(string(body)), maxResults)
	if err != nil {
		return WebSearchOutput{}, err
	}

	return WebSearchOutput{
		Query:   input.Query,
		Results: results,
	}, nil
}

// parseSearchResults extracts results from the search page HTML.
func parseSearchResults(r io.Reader, maxResults int) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search page: %w", err)
	}

	converter := md.NewConverter("", true, nil)

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if title == "" || href == "" {
			return true
		}

		snippet := ""
		if html, err := sel.Find(".result__snippet").First().Html(); err == nil {
			// Snippets carry <b> highlight tags; markdown keeps the emphasis
			// readable in a terminal.
			snippet = strings.TrimSpace(converter.Convert(mustSelection(html)))
		}

		results = append(results, SearchResult{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: snippet,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// resolveRedirect unwraps the search engine's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}

func mustSelection(html string) *goquery.Selection {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return new(goquery.Selection)
	}
	return doc.Selection
}
