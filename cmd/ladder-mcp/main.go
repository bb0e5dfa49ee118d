// Command ladder-mcp exposes the Ladder scraping API as an MCP stdio server,
// so agent clients can fetch pages through the tier escalation ladder.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Ladder API request model.
type scrapeRequest struct {
	URL          string `json:"url"`
	StartTier    int    `json:"start_tier,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	ExtractMode  string `json:"extract_mode,omitempty"`
}

// scrapeResponse mirrors the Ladder API response model.
type scrapeResponse struct {
	Success  bool   `json:"success"`
	Content  string `json:"content"`
	Tier     int    `json:"tier"`
	TierName string `json:"tier_name"`
	Metadata *struct {
		Title     string `json:"title"`
		SourceURL string `json:"source_url"`
	} `json:"metadata"`
	Tokens *struct {
		OriginalEstimate int     `json:"original_estimate"`
		CleanedEstimate  int     `json:"cleaned_estimate"`
		SavingsPercent   float64 `json:"savings_percent"`
	} `json:"tokens"`
	Error *struct {
		Code                     string `json:"code"`
		Message                  string `json:"message"`
		RequiresLocalEnvironment bool   `json:"requires_local_environment"`
		SuggestedAction          string `json:"suggested_action"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("LADDER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("LADDER_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "LADDER_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"ladder",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeURLTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Fetch a web page and return cleaned content (markdown/text/html). Automatically escalates through fetching tiers (plain HTTP, headless browser, stealth, undetected, interactive) when the page blocks the request."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to fetch"),
		),
		mcp.WithNumber("start_tier",
			mcp.Description("Tier to start the ladder at: 0 (Direct HTTP, default) through 4 (Interactive). Higher tiers cost more but defeat stronger bot protection."),
		),
		mcp.WithString("extract_mode",
			mcp.Description("Content extraction mode: 'readability' (default, extracts main article) or 'raw' (full page HTML)"),
			mcp.Enum("readability", "raw"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: 'markdown' (default), 'text' (plain text), or 'html'"),
			mcp.Enum("markdown", "text", "html"),
		),
	)

	s.AddTool(scrapeURLTool, handleScrapeURL(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeURL(apiURL, apiKey string) server.ToolHandlerFunc {
	// The interactive tier can legitimately hold a request for many
	// minutes while a human completes a login.
	client := &http.Client{Timeout: 20 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:          url,
			StartTier:    request.GetInt("start_tier", 0),
			ExtractMode:  request.GetString("extract_mode", ""),
			OutputFormat: request.GetString("output_format", ""),
		}

		body, err := json.Marshal(reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal request: %v", err)), nil
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/v1/scrape", bytes.NewReader(body))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-API-Key", apiKey)

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !scrapeResp.Success {
			errMsg := "scrape failed"
			if e := scrapeResp.Error; e != nil {
				errMsg = fmt.Sprintf("[%s] %s", e.Code, e.Message)
				if e.SuggestedAction != "" {
					errMsg += "\nSuggested action: " + e.SuggestedAction
				}
				if e.RequiresLocalEnvironment {
					errMsg += "\nThis page needs a local (non-serverless) environment to fetch."
				}
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		// Build result with metadata header.
		var result string
		if scrapeResp.Metadata != nil {
			m := scrapeResp.Metadata
			result = fmt.Sprintf("Title: %s\nSource: %s\nFetched via: %s (tier %d)\n\n",
				m.Title, m.SourceURL, scrapeResp.TierName, scrapeResp.Tier)
		}
		result += scrapeResp.Content

		if scrapeResp.Tokens != nil {
			t := scrapeResp.Tokens
			result += fmt.Sprintf("\n\n---\nTokens: %d (saved %.0f%% from original %d)",
				t.CleanedEstimate, t.SavingsPercent, t.OriginalEstimate)
		}

		return mcp.NewToolResultText(result), nil
	}
}
