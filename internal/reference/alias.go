package reference

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// AliasTable maps a canonical country name to alternate surface forms
type AliasTable map[string][]string

const aliasSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "array",
		"items": {"type": "string", "minLength": 1}
	}
}`

var aliasSchema = jsonschema.MustCompileString("country_aliases.schema.json", aliasSchemaJSON)

// LoadAliases reads and validates an alias JSON file
func LoadAliases(path string) (AliasTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	aliases, err := ParseAliases(data)
	if err != nil {
		return nil, fmt.Errorf("alias file %s: %w", path, err)
	}
	return aliases, nil
}

// ParseAliases validates data against the alias schema and decodes it
func ParseAliases(data []byte) (AliasTable, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse aliases: %w", err)
	}
	if err := aliasSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("validate aliases: %w", err)
	}

	var aliases AliasTable
	if err := json.Unmarshal(data, &aliases); err != nil {
		return nil, fmt.Errorf("decode aliases: %w", err)
	}
	return aliases, nil
}

// Resolver maps normalized surface forms to normalized canonical names.
// Built once, then read-only.
type Resolver struct {
	index map[string]string
}

// NewResolver registers every canonical name under itself and every alias under
// its canonical name. Canonical names take precedence over aliases; an alias
// claimed by two different countries resolves to nothing.
func NewResolver(aliases AliasTable) *Resolver {
	index := make(map[string]string)
	canonical := make(map[string]bool)

	for name := range aliases {
		key := Normalize(name)
		index[key] = key
		canonical[key] = true
	}

	ambiguous := make(map[string]bool)
	for name, forms := range aliases {
		target := Normalize(name)
		for _, form := range forms {
			key := Normalize(form)
			if canonical[key] || ambiguous[key] {
				continue
			}
			if existing, ok := index[key]; ok && existing != target {
				delete(index, key)
				ambiguous[key] = true
				continue
			}
			index[key] = target
		}
	}

	return &Resolver{index: index}
}

// Resolve returns the normalized canonical name for a mention, if known
func (r *Resolver) Resolve(mention string) (string, bool) {
	if r == nil {
		return "", false
	}
	canonical, ok := r.index[Normalize(mention)]
	return canonical, ok
}

// Canonicals returns the normalized canonical names known to the resolver
func (r *Resolver) Canonicals() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, v := range r.index {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
