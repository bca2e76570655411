// Package architecture defines the persisted architecture graph model:
// components, the connections between them, and the helpers that derive
// stable identifiers and merge repeated detections of the same fact.
package architecture

import "time"

// ComponentType classifies what kind of architectural unit a component is
type ComponentType string

const (
	TypePackage   ComponentType = "package"
	TypeFramework ComponentType = "framework"
	TypeService   ComponentType = "service"
	TypeDatabase  ComponentType = "database"
	TypeQueue     ComponentType = "queue"
	TypeLLM       ComponentType = "llm"
	TypePrompt    ComponentType = "prompt"
	TypeInfra     ComponentType = "infra"
	TypeFile      ComponentType = "file"
	TypeOther     ComponentType = "other"
)

// ComponentTypes lists every component type in display order
var ComponentTypes = []ComponentType{
	TypePackage, TypeFramework, TypeService, TypeDatabase, TypeQueue,
	TypeLLM, TypePrompt, TypeInfra, TypeFile, TypeOther,
}

// ParseComponentType converts a string to a ComponentType, defaulting to other
func ParseComponentType(s string) ComponentType {
	for _, t := range ComponentTypes {
		if string(t) == s {
			return t
		}
	}
	return TypeOther
}

// Layer is the architectural tier a component belongs to
type Layer string

const (
	LayerFrontend Layer = "frontend"
	LayerBackend  Layer = "backend"
	LayerDatabase Layer = "database"
	LayerQueue    Layer = "queue"
	LayerInfra    Layer = "infra"
	LayerExternal Layer = "external"
	LayerShared   Layer = "shared"
)

// Layers lists every layer in display order
var Layers = []Layer{
	LayerFrontend, LayerBackend, LayerDatabase, LayerQueue,
	LayerInfra, LayerExternal, LayerShared,
}

// LookupLayer finds a layer by name
func LookupLayer(s string) (Layer, bool) {
	for _, l := range Layers {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// Status is the lifecycle state of a component
type Status string

const (
	StatusActive     Status = "active"
	StatusOutdated   Status = "outdated"
	StatusDeprecated Status = "deprecated"
	StatusVulnerable Status = "vulnerable"
	StatusUnused     Status = "unused"
	StatusRemoved    Status = "removed"
)

// ConnectionType is the kind of relationship a connection represents
type ConnectionType string

const (
	ConnServiceCall         ConnectionType = "service-call"
	ConnImports             ConnectionType = "imports"
	ConnObserves            ConnectionType = "observes"
	ConnConformsTo          ConnectionType = "conforms-to"
	ConnStores              ConnectionType = "stores"
	ConnPublishes           ConnectionType = "publishes"
	ConnConsumes            ConnectionType = "consumes"
	ConnHosts               ConnectionType = "hosts"
	ConnRequiresEntitlement ConnectionType = "requires-entitlement"
	ConnPromptLocation      ConnectionType = "prompt-location"
	ConnPromptUsage         ConnectionType = "prompt-usage"
	ConnDependsOn           ConnectionType = "depends-on"
)

// Classification is a coarse purpose tag on a connection
type Classification string

const (
	ClassProduction Classification = "production"
	ClassTest       Classification = "test"
	ClassAdmin      Classification = "admin"
	ClassAnalytics  Classification = "analytics"
	ClassDevOnly    Classification = "dev-only"
	ClassMigration  Classification = "migration"
	ClassUnknown    Classification = "unknown"
)

// Classifications lists every connection classification
var Classifications = []Classification{
	ClassProduction, ClassTest, ClassAdmin, ClassAnalytics,
	ClassDevOnly, ClassMigration, ClassUnknown,
}

// LookupClassification finds a classification by name
func LookupClassification(s string) (Classification, bool) {
	for _, c := range Classifications {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Role describes what a component is for and where it sits
type Role struct {
	Purpose  string `json:"purpose"`
	Layer    Layer  `json:"layer"`
	Critical bool   `json:"critical"`
}

// Source records how a component was detected
type Source struct {
	Method     string   `json:"method"`
	Files      []string `json:"files"`
	Confidence float64  `json:"confidence"`
}

// Component is a detected architectural unit
type Component struct {
	ID        string                 `json:"component_id"`
	Name      string                 `json:"name"`
	Type      ComponentType          `json:"type"`
	Role      Role                   `json:"role"`
	Source    Source                 `json:"source"`
	Status    Status                 `json:"status"`
	Tags      []string               `json:"tags,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// MetaPromptContent is the metadata key detectors use for full prompt
// text. The store moves it into prompts.json and keeps only the preview on
// the component record.
const MetaPromptContent = "prompt_content"

// Location is a position in source code
type Location struct {
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Function string `json:"function,omitempty"`
}

// Endpoint is one side of a connection
type Endpoint struct {
	ComponentID string    `json:"component_id"`
	Location    *Location `json:"location,omitempty"`
}

// CodeReference points at the code that produced a connection
type CodeReference struct {
	File      string `json:"file"`
	Symbol    string `json:"symbol,omitempty"`
	LineStart int    `json:"line_start,omitempty"`
	LineEnd   int    `json:"line_end,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// Semantic carries inferred meaning for a connection
type Semantic struct {
	Classification Classification `json:"classification,omitempty"`
}

// Connection is a directed, typed edge between two components
type Connection struct {
	ID            string         `json:"connection_id"`
	From          Endpoint       `json:"from"`
	To            Endpoint       `json:"to"`
	Type          ConnectionType `json:"connection_type"`
	CodeReference CodeReference  `json:"code_reference"`
	Description   string         `json:"description,omitempty"`
	DetectedFrom  string         `json:"detected_from,omitempty"`
	Confidence    float64        `json:"confidence"`
	Semantic      *Semantic      `json:"semantic,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ClassificationOf returns the connection's classification, or unknown when unset
func (c *Connection) ClassificationOf() Classification {
	if c.Semantic == nil || c.Semantic.Classification == "" {
		return ClassUnknown
	}
	return c.Semantic.Classification
}

// IsExternal reports whether the component lives outside the project
func (c *Component) IsExternal() bool {
	return c.Role.Layer == LayerExternal
}
