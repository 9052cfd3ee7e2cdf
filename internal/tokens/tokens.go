// Package tokens approximates model token counts for budget planning.
//
// The estimate is a deliberate proxy, not the target model's real tokenizer:
// roughly one token per 3.5 characters of normalized text. It runs slightly
// conservative for English prose so chunk budgets err on the safe side.
package tokens

import (
	"math"
	"strings"
	"unicode/utf8"
)

// charsPerToken is the approximation ratio. Typical English text runs about
// 4 characters per token; 3.5 leaves headroom for formatting and special
// tokens.
const charsPerToken = 3.5

// Estimate returns the approximate token count for text.
func Estimate(text string) int {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")

	charCount := utf8.RuneCountInString(text)

	return int(math.Ceil(float64(charCount) / charsPerToken))
}
