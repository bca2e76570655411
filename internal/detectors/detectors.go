package detectors

import (
	"archgraph/internal/detect"
)

// Catalog is the full set of signatures the built-in detectors use
type Catalog struct {
	Services   []*Signature
	Databases  []*Signature
	Queues     []*Signature
	LLMs       []*Signature
	Frameworks []*Signature

	// Custom are user signatures loaded with LoadSignatures
	Custom []*Signature
}

// DefaultCatalog returns the built-in signature tables
func DefaultCatalog() *Catalog {
	return &Catalog{
		Services:   services(),
		Databases:  databases(),
		Queues:     queues(),
		LLMs:       llms(),
		Frameworks: frameworks(),
	}
}

// All returns every signature in table order
func (c *Catalog) All() []*Signature {
	var out []*Signature
	for _, group := range [][]*Signature{c.Services, c.Databases, c.Queues, c.LLMs, c.Frameworks, c.Custom} {
		out = append(out, group...)
	}
	return out
}

// Descriptors returns the built-in detectors backed by c
func (c *Catalog) Descriptors() []detect.Descriptor {
	all := c.All()
	ds := []detect.Descriptor{
		patternDescriptor("services", c.Services),
		patternDescriptor("databases", c.Databases),
		patternDescriptor("queues", c.Queues),
		patternDescriptor("llm", c.LLMs),
		patternDescriptor("frameworks", c.Frameworks),
		promptDescriptor(c.LLMs),
		packageDescriptor(all),
		infraDescriptor(all),
		entitlementDescriptor(),
	}
	if len(c.Custom) > 0 {
		ds = append(ds, patternDescriptor("custom", c.Custom))
	}
	return ds
}

// Register adds the detectors backed by c to reg
func (c *Catalog) Register(reg *detect.Registry) error {
	for _, d := range c.Descriptors() {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a registry with the built-in detectors and the given
// user signatures.
func Default(custom ...*Signature) *detect.Registry {
	c := DefaultCatalog()
	c.Custom = custom
	reg := detect.NewRegistry()
	reg.MustRegister(c.Descriptors()...)
	return reg
}
