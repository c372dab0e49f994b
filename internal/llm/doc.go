// Package llm wraps an OpenRouter-style chat completion API and normalizes
// the free-text responses models return.
//
// The client retries transient transport failures with exponential backoff.
// The normalizer turns raw model output, which may be fenced, double-fenced,
// JSON, or YAML, into a generic mapping; it never fails loudly, callers treat
// a nil mapping as "no data".
package llm
