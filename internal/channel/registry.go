package channel

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrChannelExists   = errors.New("channel already registered")
	ErrChannelNil      = errors.New("channel adapter is nil")
	ErrInvalidMetadata = errors.New("invalid channel metadata")
	ErrUnknownChannel  = errors.New("unknown channel")
)

// Metadata describes a registered adapter.
type Metadata struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	MaxSymbols  int    `json:"max_symbols" yaml:"max_symbols"`
}

type entry struct {
	meta    Metadata
	adapter Adapter
}

// Registry stores adapters by stable identifier.
type Registry struct {
	items map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]entry)}
}

// ValidateMetadata checks required fields and the id format: lowercase
// letters and digits separated by single '.', '-' or '_'.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	if id == "" || strings.TrimSpace(meta.Name) == "" || strings.TrimSpace(meta.Description) == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds an adapter; MaxSymbols is filled in from the adapter.
func (r *Registry) Register(meta Metadata, adapter Adapter) error {
	if adapter == nil {
		return ErrChannelNil
	}
	if err := ValidateMetadata(meta); err != nil {
		return err
	}
	meta.ID = strings.TrimSpace(meta.ID)
	if _, ok := r.items[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrChannelExists, meta.ID)
	}
	meta.MaxSymbols = adapter.MaxSymbols()
	r.items[meta.ID] = entry{meta: meta, adapter: adapter}
	return nil
}

func (r *Registry) Resolve(id string) (Adapter, error) {
	e, ok := r.items[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, id)
	}
	return e.adapter, nil
}

// ListMetadata returns metadata ordered by id.
func (r *Registry) ListMetadata() []Metadata {
	list := make([]Metadata, 0, len(r.items))
	for _, e := range r.items {
		list = append(list, e.meta)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func isValidID(id string) bool {
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if isSep && (i == 0 || i == len(id)-1 || lastSep) {
			return false
		}
		lastSep = isSep
	}
	return id != ""
}
