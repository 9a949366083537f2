package tokencount

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	once sync.Once
	enc  tokenizer.Codec
)

// Estimate returns an approximate token count for text using the cl100k
// encoding. Used when a message arrives without provider-reported usage.
// Falls back to a length/4 heuristic if the encoder cannot be loaded.
func Estimate(text string) int {
	once.Do(func() {
		enc, _ = tokenizer.Get(tokenizer.Cl100kBase)
	})
	if enc == nil {
		return (len(text) + 3) / 4
	}
	ids, _, err := enc.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}
