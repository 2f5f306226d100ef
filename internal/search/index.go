package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/znasser/storefront/internal/models"
)

// ProductIndex mirrors catalog products into an Elasticsearch index. It
// satisfies the catalog service's indexer port.
type ProductIndex struct {
	ES        *elasticsearch.Client
	IndexName string
}

func (x *ProductIndex) name() string {
	if x.IndexName == "" {
		return "product"
	}
	return x.IndexName
}

func (x *ProductIndex) Index(ctx context.Context, p models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("search: encode product: %w", err)
	}

	res, err := x.ES.Index(
		x.name(),
		&buf,
		x.ES.Index.WithContext(ctx),
		x.ES.Index.WithDocumentID(fmt.Sprint(p.ID)),
	)
	if err != nil {
		return fmt.Errorf("search: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("search: index product %d: %s", p.ID, res.Status())
	}
	return nil
}

// Delete removes the document; a missing document is fine.
func (x *ProductIndex) Delete(ctx context.Context, id uint) error {
	res, err := x.ES.Delete(
		x.name(),
		fmt.Sprint(id),
		x.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("search: delete product %d: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: delete product %d: %s", id, res.Status())
	}
	return nil
}
