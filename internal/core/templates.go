package core

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTemplateNotFound is returned for an unknown template ID.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExists is returned when a template name is already taken.
	ErrTemplateExists = errors.New("template already exists")
)

// TemplateMatchThreshold is the minimum share of a template's column names
// that must appear in a source for MatchTemplates to suggest it.
const TemplateMatchThreshold = 0.5

// ImportTemplate is a named, reusable set of import options.
type ImportTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Reader    string    `json:"reader,omitempty"`
	Mode      string    `json:"mode"`
	Settings  string    `json:"settings"`
	Options   Options   `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TemplateMatch pairs a template with how well it fits a source's columns.
type TemplateMatch struct {
	Template   ImportTemplate `json:"template"`
	MatchScore float64        `json:"matchScore"`
}

// CreateTemplate stores opts under a unique name. reader may be empty to
// leave the reader choice to the file extension.
func (s *Service) CreateTemplate(name, reader string, opts Options) (*ImportTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	if reader != "" {
		if _, ok := Reader(reader); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownReader, reader)
		}
	}

	settings, err := renderSettings(opts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	t := &ImportTemplate{
		ID:        uuid.New().String(),
		Name:      name,
		Reader:    reader,
		Mode:      opts.Mode.String(),
		Settings:  settings,
		Options:   opts,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.templates {
		if strings.EqualFold(existing.Name, name) {
			return nil, fmt.Errorf("%w: '%s'", ErrTemplateExists, name)
		}
	}
	s.templates[t.ID] = t

	s.audit.add(AuditEntry{Action: ActionTemplateCreate, Column: -1, NewValue: name})
	out := *t
	return &out, nil
}

// GetTemplate retrieves a template by ID.
func (s *Service) GetTemplate(id string) (*ImportTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	out := *t
	return &out, nil
}

// ListTemplates returns every template sorted by name.
func (s *Service) ListTemplates() []ImportTemplate {
	s.mu.RLock()
	list := make([]ImportTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		list = append(list, *t)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// UpdateTemplate replaces a template's options, keeping its name and ID.
func (s *Service) UpdateTemplate(id string, opts Options) (*ImportTemplate, error) {
	settings, err := renderSettings(opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	t.Options = opts
	t.Mode = opts.Mode.String()
	t.Settings = settings
	t.UpdatedAt = time.Now()
	out := *t
	return &out, nil
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.templates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	delete(s.templates, id)
	s.audit.add(AuditEntry{Action: ActionTemplateDelete, Column: -1, OldValue: t.Name})
	return nil
}

// MatchTemplates suggests templates whose explicit column names fit the
// given source columns, best match first.
func (s *Service) MatchTemplates(columns []string) []TemplateMatch {
	var matches []TemplateMatch
	for _, t := range s.ListTemplates() {
		score := matchTemplateColumns(columns, strings.Fields(t.Options.ColumnNames))
		if score >= TemplateMatchThreshold {
			matches = append(matches, TemplateMatch{Template: t, MatchScore: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}

// matchTemplateColumns returns the share of template names found in columns.
func matchTemplateColumns(columns, names []string) float64 {
	if len(names) == 0 {
		return 0
	}

	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.ToLower(strings.TrimSpace(c))] = true
	}

	matched := 0
	for _, n := range names {
		if have[strings.ToLower(n)] {
			matched++
		}
	}
	return float64(matched) / float64(len(names))
}

func renderSettings(opts Options) (string, error) {
	var buf bytes.Buffer
	if err := SaveSettings(&buf, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}
