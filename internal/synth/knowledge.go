package synth

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/mind-engage/quizgenix/internal/quiz"
)

//go:embed catalog.json
var embeddedCatalog []byte

//go:embed catalog.schema.json
var catalogSchema []byte

// KnowledgeStore is a read-only table of curated templates keyed by
// (domain, difficulty). Absent pairs yield an empty slice.
type KnowledgeStore interface {
	Templates(domain quiz.Domain, difficulty quiz.Difficulty) []quiz.Template
	Version() string
}

type catalogKey struct {
	domain     quiz.Domain
	difficulty quiz.Difficulty
}

// Catalog is the default KnowledgeStore. It is immutable after loading.
type Catalog struct {
	version string
	table   map[catalogKey][]quiz.Template
}

type catalogFile struct {
	Version string `json:"version"`
	Entries []struct {
		Domain     quiz.Domain     `json:"domain"`
		Difficulty quiz.Difficulty `json:"difficulty"`
		Templates  []quiz.Template `json:"templates"`
	} `json:"entries"`
}

// DefaultCatalog loads the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(embeddedCatalog)
}

// LoadCatalogFile loads an external catalog, e.g. from KNOWLEDGE_PATH.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return LoadCatalog(data)
}

// LoadCatalog validates data against the catalog schema and indexes it.
func LoadCatalog(data []byte) (*Catalog, error) {
	if err := validateCatalog(data); err != nil {
		return nil, err
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c := &Catalog{version: f.Version, table: map[catalogKey][]quiz.Template{}}
	for _, e := range f.Entries {
		k := catalogKey{e.Domain, e.Difficulty}
		for _, t := range e.Templates {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("catalog %s/%s: %w", e.Domain, e.Difficulty, err)
			}
			c.table[k] = append(c.table[k], t.Clone())
		}
	}
	return c, nil
}

func (c *Catalog) Version() string { return c.version }

// Templates returns copies of the curated templates for the pair.
func (c *Catalog) Templates(domain quiz.Domain, difficulty quiz.Difficulty) []quiz.Template {
	src := c.table[catalogKey{domain, difficulty}]
	out := make([]quiz.Template, len(src))
	for i, t := range src {
		out[i] = t.Clone()
	}
	return out
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func validateCatalog(data []byte) error {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal(catalogSchema, &def); err != nil {
			schemaErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://catalog.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	if schemaErr != nil {
		return schemaErr
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("invalid catalog JSON: %w", err)
	}
	if err := compiledSchema.Validate(parsed); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}
