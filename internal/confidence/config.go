// Package confidence grades raw detector hits.
//
// Every detector shares the same pipeline: a line-level filter (comments,
// example strings, ordinary string literals), a file-role modifier, an
// import-corroboration check and a final clamp against the floor. The
// numbers live in Config so callers and tests can override them.
package confidence

// Config holds the confidence floor and every penalty the scorer applies.
type Config struct {
	// Floor is the minimum final confidence for a hit to be kept.
	Floor float64 `json:"floor" mapstructure:"floor"`

	// StringPenalty applies to hits inside an ordinary string literal.
	StringPenalty float64 `json:"stringPenalty" mapstructure:"stringPenalty"`

	// DocPenalty applies to documentation and markdown files.
	DocPenalty float64 `json:"docPenalty" mapstructure:"docPenalty"`

	// GeneratedPenalty applies to generated, minified and declaration files.
	GeneratedPenalty float64 `json:"generatedPenalty" mapstructure:"generatedPenalty"`

	// ConfigPenalty applies to generic JSON/YAML/TOML files.
	ConfigPenalty float64 `json:"configPenalty" mapstructure:"configPenalty"`

	// MissingImportPenalty applies when a hit declares import signatures
	// and the file imports none of them.
	MissingImportPenalty float64 `json:"missingImportPenalty" mapstructure:"missingImportPenalty"`
}

// DefaultConfig returns the standard scoring configuration
func DefaultConfig() Config {
	return Config{
		Floor:                0.5,
		StringPenalty:        0.3,
		DocPenalty:           0.4,
		GeneratedPenalty:     0.3,
		ConfigPenalty:        0.1,
		MissingImportPenalty: 0.2,
	}
}

// Band is a coarse confidence bucket used in reports
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandOf buckets a confidence value: high >= 0.8, medium >= 0.6, low otherwise.
func BandOf(v float64) Band {
	switch {
	case v >= 0.8:
		return BandHigh
	case v >= 0.6:
		return BandMedium
	default:
		return BandLow
	}
}

// Clamp limits v to [0,1]
func Clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
