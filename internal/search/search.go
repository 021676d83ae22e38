// Package search provides full-text lookup of tags by name and attributes.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/nibzard/tagtree/internal/tags"
)

// DefaultLimit caps results when Search is called with limit <= 0.
const DefaultLimit = 10

// Hit is one matching tag.
type Hit struct {
	Name  string
	Score float64
}

// Index is an in-memory snapshot of a tag store. It does not follow later
// changes to the store; rebuild it instead.
type Index struct {
	index bleve.Index
}

// tagDocument is what gets indexed for each tag.
type tagDocument struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Parent string `json:"parent"`
	Attrs  string `json:"attrs"`
}

func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	doc.AddFieldMappingsAt("name", kw)
	doc.AddFieldMappingsAt("parent", kw)
	doc.AddFieldMappingsAt("label", text)
	doc.AddFieldMappingsAt("attrs", text)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

// Build indexes every non-special tag of s.
func Build(s *tags.Store) (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}

	batch := idx.NewBatch()
	for _, t := range s.AllTags() {
		if tags.IsProtected(t) {
			continue
		}
		if err := batch.Index(t.Name(), newDocument(t)); err != nil {
			idx.Close()
			return nil, fmt.Errorf("index tag %q: %w", t.Name(), err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		idx.Close()
		return nil, fmt.Errorf("index tags: %w", err)
	}
	return &Index{index: idx}, nil
}

func newDocument(t *tags.Tag) tagDocument {
	doc := tagDocument{
		Name:  t.Name(),
		Label: strings.TrimPrefix(t.Name(), tags.Sigil),
	}
	if p := t.Parent(); p != nil {
		doc.Parent = p.Name()
	}
	var parts []string
	for _, k := range t.AttributeNames(true) {
		if k == tags.AttrParent {
			continue
		}
		v, _ := t.Attribute(k)
		parts = append(parts, k, v)
	}
	doc.Attrs = strings.Join(parts, " ")
	return doc
}

// Len returns the number of indexed tags.
func (x *Index) Len() (uint64, error) {
	return x.index.DocCount()
}

// Search returns tags matching text, best first. Text containing ':', '*'
// or '"' is parsed as a bleve query string, e.g. "parent:@work".
func (x *Index) Search(text string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{Name: h.ID, Score: h.Score})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Name < hits[j].Name
	})
	return hits, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

func buildQuery(text string) query.Query {
	text = strings.TrimSpace(text)
	if text == "" {
		return bleve.NewMatchAllQuery()
	}
	if strings.ContainsAny(text, `:*"`) {
		return bleve.NewQueryStringQuery(text)
	}

	match := bleve.NewMatchQuery(text)

	label := strings.ToLower(strings.TrimPrefix(text, tags.Sigil))
	prefix := bleve.NewPrefixQuery(label)
	prefix.SetField("label")

	return bleve.NewDisjunctionQuery(match, prefix)
}
