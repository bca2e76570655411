package storage

import (
	stderrors "errors"
	"io/fs"

	"archgraph/internal/architecture"
	"archgraph/internal/paths"
)

// PromptRecord is the full text of one extracted prompt
type PromptRecord struct {
	Name    string `json:"name"`
	File    string `json:"file,omitempty"`
	Content string `json:"content"`
}

// extractPrompt moves prompt text out of c's metadata into prompts and
// returns the lean copy that gets persisted.
func (s *Store) extractPrompt(c *architecture.Component, prompts map[string]PromptRecord) *architecture.Component {
	content, ok := c.Metadata[architecture.MetaPromptContent].(string)
	if !ok {
		return c
	}
	rec := PromptRecord{Name: c.Name, Content: content}
	if len(c.Source.Files) > 0 {
		rec.File = c.Source.Files[0]
	}
	prompts[c.ID] = rec

	lean := *c
	lean.Metadata = make(map[string]interface{}, len(c.Metadata)-1)
	for k, v := range c.Metadata {
		if k != architecture.MetaPromptContent {
			lean.Metadata[k] = v
		}
	}
	if len(lean.Metadata) == 0 {
		lean.Metadata = nil
	}
	return &lean
}

// Prompts loads prompts.json keyed by component ID. A missing file is empty.
func (s *Store) Prompts() (map[string]PromptRecord, error) {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()
	return s.readPrompts()
}

func (s *Store) readPrompts() (map[string]PromptRecord, error) {
	m, err := readJSON[map[string]PromptRecord](s.layout.File(paths.PromptsFile))
	if stderrors.Is(err, fs.ErrNotExist) {
		return map[string]PromptRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if *m == nil {
		return map[string]PromptRecord{}, nil
	}
	return *m, nil
}

func (s *Store) mergePrompts(incoming map[string]PromptRecord) error {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()

	current, err := s.readPrompts()
	if err != nil {
		s.logger.Warn("Rebuilding unreadable prompts file", "error", err.Error())
		current = map[string]PromptRecord{}
	}
	for id, rec := range incoming {
		current[id] = rec
	}
	_, err = writeJSONIfChanged(s.layout.File(paths.PromptsFile), current)
	return err
}

func (s *Store) deletePrompt(id string) error {
	s.promptsMu.Lock()
	defer s.promptsMu.Unlock()

	current, err := s.readPrompts()
	if err != nil {
		return err
	}
	if _, ok := current[id]; !ok {
		return nil
	}
	delete(current, id)
	_, err = writeJSONIfChanged(s.layout.File(paths.PromptsFile), current)
	return err
}
