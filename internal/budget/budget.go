// Package budget fits a ranked item list into a token budget by binary
// searching over prefix lengths.
package budget

import "math"

// CostFn renders the first n items and returns the text and its token
// count. It is called with n in [1, N].
type CostFn func(n int) (text string, tokens int)

// Result is the best prefix found by Fit.
type Result struct {
	PrefixLen int
	Text      string
	Tokens    int
}

// earlyStopRatio ends the search once the best rendering is this close
// to the budget.
const earlyStopRatio = 0.95

// Fit binary-searches prefix lengths [0, n] for the largest-by-token
// rendering that does not exceed maxTokens. The initial midpoint assumes
// roughly 25 tokens per item to shorten convergence; iterations are
// bounded by log2(n) plus a small constant.
func Fit(n int, maxTokens int, cost CostFn) Result {
	if n <= 0 || maxTokens <= 0 {
		return Result{}
	}

	lo, hi := 0, n
	middle := maxTokens / 25
	if middle > n {
		middle = n
	}
	if middle < 1 {
		middle = 1
	}

	best := Result{}
	maxIterations := int(math.Log2(float64(n))) + 5

	for iter := 0; lo <= hi && iter < maxIterations; iter++ {
		if middle < 1 {
			lo = middle + 1
			middle = (lo + hi) / 2
			continue
		}

		text, tokens := cost(middle)

		if tokens <= maxTokens {
			if tokens > best.Tokens {
				best = Result{PrefixLen: middle, Text: text, Tokens: tokens}
			}
			// Fits: try including more items
			lo = middle + 1
		} else {
			// Too big: try including fewer items
			hi = middle - 1
		}

		middle = (lo + hi) / 2

		if float64(best.Tokens) > earlyStopRatio*float64(maxTokens) {
			break
		}
	}

	return best
}
