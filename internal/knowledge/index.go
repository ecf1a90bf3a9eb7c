// Package knowledge indexes local travel-guide documents for the research
// agent's retrieve tool.
package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Excerpt is one retrieved guide passage.
type Excerpt struct {
	Source  string  `json:"source"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index provides full-text search over guide documents.
type Index struct {
	index bleve.Index
	path  string
}

// Open creates or opens the guide index at indexPath. A corrupted index is
// deleted and recreated rather than failing startup.
func Open(indexPath string) (*Index, error) {
	index, err := bleve.Open(indexPath)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create guide index: %w", err)
		}
	} else if err != nil {
		if index != nil {
			index.Close()
		}
		if rmErr := os.RemoveAll(indexPath); rmErr != nil {
			return nil, fmt.Errorf("failed to remove corrupted guide index: %w", rmErr)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to recreate guide index: %w", err)
		}
	}

	return &Index{index: index, path: indexPath}, nil
}

// Close releases the underlying index.
func (ix *Index) Close() error {
	return ix.index.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Analyzer = keyword.Name
	sourceField.Store = true
	sourceField.Index = true
	docMapping.AddFieldMappingsAt("source", sourceField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = standard.Name
	titleField.Store = true
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	textField.Store = true
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexDocument chunks a guide document by paragraph and indexes each chunk.
// Re-indexing a document replaces its previous chunks.
func (ix *Index) IndexDocument(source, title, text string) error {
	if err := ix.DeleteDocument(source); err != nil {
		return err
	}

	for i, chunk := range splitParagraphs(text) {
		id := fmt.Sprintf("%s#%d", source, i)
		doc := map[string]any{
			"source": source,
			"title":  title,
			"text":   chunk,
		}
		if err := ix.index.Index(id, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", id, err)
		}
	}
	return nil
}

// IndexFile reads and indexes one guide file; the file name becomes the title.
func (ix *Index) IndexFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read guide %s: %w", path, err)
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ix.IndexDocument(path, title, string(data))
}

// IndexDir walks a directory and indexes every markdown or text guide in it.
func (ix *Index) IndexDir(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !isGuideFile(path) {
			return nil
		}
		return ix.IndexFile(path)
	})
}

// DeleteDocument removes all chunks of a document from the index.
func (ix *Index) DeleteDocument(source string) error {
	query := bleve.NewTermQuery(source)
	query.SetField("source")
	req := bleve.NewSearchRequest(query)
	req.Size = 1000
	res, err := ix.index.Search(req)
	if err != nil {
		return fmt.Errorf("failed to find chunks of %s: %w", source, err)
	}
	for _, hit := range res.Hits {
		if err := ix.index.Delete(hit.ID); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the top k guide excerpts matching the query.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Excerpt, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = k
	req.Fields = []string{"source", "title", "text"}

	res, err := ix.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("guide search failed: %w", err)
	}

	excerpts := make([]Excerpt, 0, len(res.Hits))
	for _, hit := range res.Hits {
		e := Excerpt{Score: hit.Score}
		if v, ok := hit.Fields["source"].(string); ok {
			e.Source = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			e.Title = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			e.Snippet = v
		}
		excerpts = append(excerpts, e)
	}
	return excerpts, nil
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isGuideFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt":
		return true
	}
	return false
}
