package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportrag/config"
	"supportrag/internal/adapter/analyzer"
)

func TestPipelineTokenizer(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		encoding string
		wantBPE  bool
		wantErr  bool
	}{
		{name: "bpe", kind: "tiktoken", encoding: "cl100k_base", wantBPE: true},
		{name: "default kind is bpe", kind: "", encoding: "cl100k_base", wantBPE: true},
		{name: "unknown encoding falls back", kind: "tiktoken", encoding: "no_such_encoding"},
		{name: "words", kind: "words"},
		{name: "unsupported", kind: "sentencepiece", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Chunk.Tokenizer = tt.kind
			cfg.Chunk.Encoding = tt.encoding
			p := &pipeline{cfg: cfg}

			tok, err := p.tokenizer()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tok)

			_, isBPE := tok.(*analyzer.BPETokenizer)
			assert.Equal(t, tt.wantBPE, isBPE)
			if !tt.wantBPE {
				assert.IsType(t, &analyzer.Tokenizer{}, tok)
			}
			assert.Positive(t, tok.CountTokens("reset the admin password"))
		})
	}
}
