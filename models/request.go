package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target page to fetch. Required.
	URL string `json:"url" binding:"required,url"`

	// StartTier is the tier the attempt ladder begins at (0-4).
	// Default: 0 (cheapest). The engine escalates from here on block signals.
	StartTier int `json:"start_tier,omitempty" binding:"omitempty,min=0,max=4"`

	// Headers are extra HTTP headers applied by the tier executors.
	Headers map[string]string `json:"headers,omitempty"`

	// OutputFormat controls the response body format.
	// Allowed: "markdown" (default), "html", "text".
	OutputFormat string `json:"output_format,omitempty" binding:"omitempty,oneof=markdown html text"`

	// ExtractMode controls content extraction.
	// "readability" (default): extract main article content.
	// "raw": return the full fetched HTML unprocessed.
	ExtractMode string `json:"extract_mode,omitempty" binding:"omitempty,oneof=readability raw"`

	// MaxAge enables the response cache: a cached result younger than
	// MaxAge milliseconds is returned without fetching. 0 disables caching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.OutputFormat == "" {
		r.OutputFormat = "markdown"
	}
	if r.ExtractMode == "" {
		r.ExtractMode = "readability"
	}
}
