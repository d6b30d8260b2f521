// Package token counts tokens in rendered map text. The default counter
// is a fast character-ratio estimator; exact counting is available via
// tiktoken encodings.
package token

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates or counts tokens in text.
type Counter interface {
	Count(text string) int
	Name() string
}

// ApproxName selects the sampling estimator.
const ApproxName = "approx"

// NewCounter returns a counter by name: "approx" for the sampling
// estimator, otherwise a tiktoken encoding name such as "cl100k_base".
func NewCounter(name string) (Counter, error) {
	if name == "" || name == ApproxName {
		return ApproxCounter{}, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown tokenizer %q: %w", name, err)
	}
	return &TiktokenCounter{name: name, enc: enc}, nil
}

// ApproxCounter estimates tokens at roughly four characters each. Large
// texts are sampled line-wise and extrapolated by character ratio.
type ApproxCounter struct{}

// Name returns the counter name.
func (ApproxCounter) Name() string { return ApproxName }

// Count estimates the token count of text.
func (ApproxCounter) Count(text string) int {
	if len(text) < 200 {
		return charEstimate(text)
	}

	lines := strings.SplitAfter(text, "\n")
	numLines := len(lines)
	step := numLines / 100
	if step < 1 {
		step = 1
	}

	var sb strings.Builder
	for i := 0; i < numLines; i += step {
		sb.WriteString(lines[i])
	}
	sample := sb.String()
	if len(sample) == 0 {
		return 0
	}

	ratio := float64(charEstimate(sample)) / float64(len(sample))
	return int(ratio * float64(len(text)))
}

// charEstimate is the base heuristic: one token per four characters.
func charEstimate(text string) int {
	return len(text) / 4
}

// TiktokenCounter counts tokens exactly with a tiktoken encoding.
type TiktokenCounter struct {
	name string
	enc  *tiktoken.Tiktoken
}

// Name returns the encoding name.
func (c *TiktokenCounter) Name() string { return c.name }

// Count returns the exact token count of text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
