package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/require"
)

func fakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

const searchResponse = `{
	"hits": {
		"total": {"value": 2},
		"hits": [
			{"_source": {"id": 7, "name": "Linen Shirt", "slug": "linen-shirt", "price": 10}},
			{"_source": {"id": 9, "name": "Linen Trousers", "slug": "linen-trousers", "price": 18.5}}
		]
	}
}`

func TestProductsDecodesHits(t *testing.T) {
	var gotPath, gotBody string
	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchResponse))
	})

	total, products, err := Products(context.Background(), es, "product", "linen", 0, 10)
	require.NoError(t, err)

	require.Equal(t, "/product/_search", gotPath)
	require.Contains(t, gotBody, `"linen"`)
	require.Contains(t, gotBody, "multi_match")

	require.Equal(t, int64(2), total)
	require.Len(t, products, 2)
	require.Equal(t, uint(7), products[0].ID)
	require.Equal(t, "Linen Shirt", products[0].Name)
	require.Equal(t, "linen-shirt", products[0].Slug)
	require.InDelta(t, 18.5, products[1].Price, 1e-9)
}

func TestProductsPropagatesBackendError(t *testing.T) {
	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	})

	_, _, err := Products(context.Background(), es, "product", "linen", 0, 10)
	require.Error(t, err)
}

func TestProductsPaginationInBody(t *testing.T) {
	var gotBody string
	es := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":{"total":{"value":0},"hits":[]}}`))
	})

	_, products, err := Products(context.Background(), es, "product", "linen", 20, 10)
	require.NoError(t, err)
	require.Empty(t, products)
	require.Contains(t, gotBody, `"from":20`)
	require.Contains(t, gotBody, `"size":10`)
}
