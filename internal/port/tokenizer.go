package port

// Tokenizer counts tokens the way the embedding model does.
type Tokenizer interface {
	CountTokens(text string) int
}
