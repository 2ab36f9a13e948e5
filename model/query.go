package model

// Response statuses. The envelope shape stays stable across all of them.
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusSystemError = "system_error"
)

// Output formats accepted in QueryRequest.Format.
const (
	FormatSimple   = "simple"
	FormatEnhanced = "enhanced"
)

// ErrSystem marks failures that did not come from the knowledge base as a
// machine-readable error code.
const ErrSystem = "SystemError"

// QueryRequest is the incoming query payload.
type QueryRequest struct {
	Prompt string `json:"prompt"`
	Format string `json:"format,omitempty"` // "simple" or "enhanced" (default)
}

// StructuredFields holds the values opportunistically extracted from a single
// passage. Latitude and longitude are either both set or both nil.
type StructuredFields struct {
	Title     string   `json:"title,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// HasCoordinates reports whether a valid coordinate pair was extracted.
func (f StructuredFields) HasCoordinates() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// StructuredResult is a passage's extracted fields augmented with retrieval
// metadata.
type StructuredResult struct {
	StructuredFields

	Index  int     `json:"index"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// RawResult is the truncated preview of a retrieved passage.
type RawResult struct {
	Index   int     `json:"index"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// RetrievalEnvelope carries the normalized outcome of a knowledge-base
// retrieval. A non-empty Error is the authoritative failure signal regardless
// of Message content.
type RetrievalEnvelope struct {
	Message           string             `json:"message"`
	StructuredResults []StructuredResult `json:"structured_results"`
	RawResults        []RawResult        `json:"raw_results"`
	Error             string             `json:"error,omitempty"`
}

// QueryResponse is the uniform response envelope returned for every request.
type QueryResponse struct {
	Result          string             `json:"result"`
	Status          string             `json:"status"`
	KnowledgeBaseID string             `json:"knowledge_base_id"`
	StructuredData  []StructuredResult `json:"structured_data,omitempty"`
	RawResults      []RawResult        `json:"raw_results,omitempty"`
	// pointer so a successful zero-result response still serializes count: 0
	Count *int   `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}

// CountOf returns n as a response count value.
func CountOf(n int) *int { return &n }
