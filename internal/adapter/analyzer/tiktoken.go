package analyzer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var setLoaderOnce sync.Once

// BPETokenizer counts tokens with the byte-pair encoding used by the
// embedding model. Encodings are loaded from the embedded offline tables, so
// no network access is needed.
type BPETokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewBPETokenizer loads the named encoding, e.g. "cl100k_base".
func NewBPETokenizer(encoding string) (*BPETokenizer, error) {
	setLoaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %s: %w", encoding, err)
	}
	return &BPETokenizer{enc: enc}, nil
}

func (t *BPETokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
