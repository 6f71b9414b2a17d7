package domain

import (
	"encoding/json"
	"strconv"
)

// Block labels produced by document converters.
const (
	LabelTitle         = "title"
	LabelSectionHeader = "section_header"
	LabelText          = "text"
	LabelListItem      = "list_item"
)

// Chunk types.
const (
	ChunkTypeFullText = "full_text"
	ChunkTypeSection  = "section"
)

// AssetRecord is the provenance of one downloaded document, keyed by LocalPath.
type AssetRecord struct {
	LocalPath     string `json:"-"`
	SourcePageURL string `json:"source_url"`
	AssetURL      string `json:"pdf_url"`
}

// AssetMapping maps local_path to its provenance.
type AssetMapping map[string]AssetRecord

// Merge copies every record of other into m. Colliding local paths are
// overwritten by other.
func (m AssetMapping) Merge(other AssetMapping) {
	for path, rec := range other {
		rec.LocalPath = path
		m[path] = rec
	}
}

// Block is one unit of text in a converted document.
type Block struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// IsHeader reports whether the block opens a new section.
func (b Block) IsHeader() bool {
	return b.Label == LabelSectionHeader
}

// DocumentOrigin describes the converted source file.
type DocumentOrigin struct {
	MimeType string `json:"mimetype"`
	Filename string `json:"filename"`
}

// ConvertedDocument is the structural model returned by a converter.
type ConvertedDocument struct {
	SchemaName string         `json:"schema_name"`
	Version    string         `json:"version"`
	Name       string         `json:"name"`
	Origin     DocumentOrigin `json:"origin"`
	Blocks     []Block        `json:"-"`
}

// Section is a header and the content blocks that follow it.
type Section struct {
	Header  string   `json:"header"`
	Content []string `json:"content"`
}

type DocumentContent struct {
	FullText string    `json:"full_text"`
	Sections []Section `json:"sections"`
	RawTexts []string  `json:"raw_texts"`
}

type DocumentMetadata struct {
	Filename       string            `json:"filename"`
	DocMetadata    ConvertedDocument `json:"doc_metadata"`
	ProcessingTime string            `json:"processing_time"`
	WordCount      int               `json:"word_count"`
	SectionCount   int               `json:"section_count"`
}

// DecomposedDocument is a downloaded document split into text and sections.
type DecomposedDocument struct {
	LocalPath     string           `json:"filepath"`
	SourcePageURL string           `json:"source_url"`
	AssetURL      string           `json:"pdf_url"`
	Content       DocumentContent  `json:"content"`
	Metadata      DocumentMetadata `json:"metadata"`
}

type BatchMetadata struct {
	TotalDocuments int    `json:"total_pdfs"`
	ProcessingTime string `json:"processing_time"`
	SuccessRate    string `json:"success_rate"`
}

// ProcessedBatch is the decomposition artifact.
type ProcessedBatch struct {
	Metadata  BatchMetadata                 `json:"metadata"`
	Documents map[string]DecomposedDocument `json:"processed_pdfs"`
}

// ChunkMetadata traces a chunk back to its document and position.
type ChunkMetadata struct {
	SourceURL      string            `json:"source_url"`
	PDFURL         string            `json:"pdf_url"`
	Filename       string            `json:"filename"`
	LocalPath      string            `json:"filepath"`
	TotalSections  int               `json:"total_sections"`
	TotalWords     int               `json:"total_words"`
	DocMetadata    ConvertedDocument `json:"doc_metadata"`
	ProcessingTime string            `json:"processing_time"`
	ChunkType      string            `json:"chunk_type"`
	SectionHeader  string            `json:"section_header,omitempty"`
	SectionIndex   *int              `json:"section_index,omitempty"`
	ChunkIndex     int               `json:"chunk_index"`
	TotalChunks    int               `json:"total_chunks"`
	ChunkWords     int               `json:"chunk_words"`
	ChunkTokens    int               `json:"chunk_tokens"`
}

// Chunk is a token-bounded slice of document text.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Payload flattens the chunk into the map stored alongside its vector.
func (c Chunk) Payload() (map[string]any, error) {
	data, err := json.Marshal(c.Metadata)
	if err != nil {
		return nil, err
	}
	payload := make(map[string]any)
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	payload["text"] = c.Text
	return payload, nil
}

// PointID is either a sequential integer or a UUID string.
type PointID struct {
	Num  uint64
	UUID string
}

func NumericID(n uint64) PointID { return PointID{Num: n} }

func UUIDPointID(s string) PointID { return PointID{UUID: s} }

func (id PointID) String() string {
	if id.UUID != "" {
		return id.UUID
	}
	return strconv.FormatUint(id.Num, 10)
}

func (id PointID) MarshalJSON() ([]byte, error) {
	if id.UUID != "" {
		return json.Marshal(id.UUID)
	}
	return json.Marshal(id.Num)
}

func (id *PointID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = PointID{UUID: s}
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = PointID{Num: n}
	return nil
}

// IndexedPoint is the unit persisted in the vector index.
type IndexedPoint struct {
	ID      PointID        `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// SearchResult is one ranked hit from the vector index.
type SearchResult struct {
	ID      PointID        `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Text returns the chunk text stored in the payload.
func (r SearchResult) Text() string {
	s, _ := r.Payload["text"].(string)
	return s
}

// PayloadString returns a string payload field, or "".
func (r SearchResult) PayloadString(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}
