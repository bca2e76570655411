// Package envelope provides the response wrapper shared by the CLI's JSON
// output and the HTTP API. Every result is wrapped in a consistent envelope
// carrying a success flag, the payload, warnings and an optional error,
// plus metadata about graph confidence, store provenance and truncation.
package envelope

// ConfidenceTier summarizes how much the graph behind a result can be trusted.
type ConfidenceTier string

const (
	// TierHigh means the overall graph confidence is at least 0.8.
	TierHigh ConfidenceTier = "high"
	// TierMedium means at least 0.6.
	TierMedium ConfidenceTier = "medium"
	// TierLow covers everything below 0.6.
	TierLow ConfidenceTier = "low"
	// TierUnknown is used when the store holds no records.
	TierUnknown ConfidenceTier = "unknown"
)

// ConfidenceFactor explains one component of the confidence score.
type ConfidenceFactor struct {
	Factor string  `json:"factor"` // e.g. "connection_confidence", "file_coverage"
	Status string  `json:"status"`
	Impact float64 `json:"impact"`
}

// Confidence describes result quality.
type Confidence struct {
	Score   float64            `json:"score"`
	Tier    ConfidenceTier     `json:"tier"`
	Reasons []string           `json:"reasons,omitempty"`
	Factors []ConfidenceFactor `json:"factors,omitempty"`
}

// Provenance describes which store produced the result.
type Provenance struct {
	StoreDir    string `json:"storeDir"`
	Components  int    `json:"components"`
	Connections int    `json:"connections"`
	ScannedAt   string `json:"scannedAt,omitempty"` // RFC 3339
}

// Freshness describes how current the stored graph is.
type Freshness struct {
	Age         string `json:"age,omitempty"` // e.g. "2h0m0s"
	StaleReason string `json:"staleReason,omitempty"`
}

// Truncation describes result trimming.
type Truncation struct {
	IsTruncated bool   `json:"isTruncated"`
	Shown       int    `json:"shown,omitempty"`
	Total       int    `json:"total,omitempty"`
	Reason      string `json:"reason,omitempty"` // "max-paths", "max-nodes"
}

// CacheInfo describes whether the graph was served from the engine cache.
type CacheInfo struct {
	Hit bool   `json:"hit"`
	Age string `json:"age,omitempty"`
}

// Meta holds response metadata.
type Meta struct {
	Confidence *Confidence `json:"confidence,omitempty"`
	Provenance *Provenance `json:"provenance,omitempty"`
	Freshness  *Freshness  `json:"freshness,omitempty"`
	Truncation *Truncation `json:"truncation,omitempty"`
	Cache      *CacheInfo  `json:"cache,omitempty"`
}

// SuggestedCall is a recommended follow-up command.
type SuggestedCall struct {
	Command string                 `json:"command"` // "trace", "subgraph", "coverage", ...
	Params  map[string]interface{} `json:"params,omitempty"`
	Reason  string                 `json:"reason,omitempty"`
}

// Warning is a non-fatal issue attached to a result, such as a corrupt
// record file skipped while loading.
type Warning struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Response is the envelope. Error may be set alongside a valid Data payload;
// Success is false whenever Error is set.
type Response struct {
	Success            bool            `json:"success"`
	SchemaVersion      string          `json:"schemaVersion"`
	Data               interface{}     `json:"data"`
	Meta               *Meta           `json:"meta,omitempty"`
	Warnings           []Warning       `json:"warnings,omitempty"`
	Error              *string         `json:"error,omitempty"`
	ErrorCode          string          `json:"errorCode,omitempty"`
	SuggestedNextCalls []SuggestedCall `json:"suggestedNextCalls,omitempty"`
}

// CurrentSchemaVersion is bumped whenever the envelope shape changes.
const CurrentSchemaVersion = "1.0"
