package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stylevault/backend/internal/telemetry"
)

// IndexItems is the wardrobe item search index
const IndexItems = "wardrobe_items"

// Client wraps the Elasticsearch client with wardrobe-specific functionality.
// The server runs fine without it: handlers fall back to Postgres search
// when the client is nil.
type Client struct {
	es *elasticsearch.Client
}

// ItemSearchHit is one item returned from the search index
type ItemSearchHit struct {
	ID          string  `json:"id"`
	Score       float64 `json:"score"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Brand       string  `json:"brand"`
}

// NewClient creates a new Elasticsearch client
func NewClient() (*Client, error) {
	esURL := os.Getenv("ELASTICSEARCH_URL")
	if esURL == "" {
		esURL = "http://localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
		Transport: telemetry.NewTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{es: es}

	// Verify connection
	if _, err = es.Info(); err != nil {
		return nil, fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}

	return client, nil
}

// InitializeIndices creates the item index with its mapping
func (c *Client) InitializeIndices(ctx context.Context) error {
	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "keyword"},
				"user_id":     map[string]interface{}{"type": "keyword"},
				"category":    map[string]interface{}{"type": "keyword"},
				"subcategory": map[string]interface{}{"type": "text"},
				"name":        map[string]interface{}{"type": "text"},
				"description": map[string]interface{}{"type": "text"},
				"brand":       map[string]interface{}{"type": "text"},
				"colors":      map[string]interface{}{"type": "keyword"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}

	return c.createIndex(ctx, IndexItems, mapping)
}

func (c *Client) createIndex(ctx context.Context, indexName string, mapping map[string]interface{}) error {
	res, err := c.es.Indices.Exists([]string{indexName})
	if err != nil {
		return fmt.Errorf("failed to check if index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	res, err = c.es.Indices.Create(indexName,
		c.es.Indices.Create.WithBody(bytes.NewReader(mappingJSON)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error creating index: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// IndexItem indexes a wardrobe item document for search
func (c *Client) IndexItem(ctx context.Context, itemID string, doc map[string]interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal item document: %w", err)
	}

	res, err := c.es.Index(IndexItems, bytes.NewReader(body),
		c.es.Index.WithDocumentID(itemID),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index item: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("error response [%s]", res.Status())
		}
		return fmt.Errorf("error indexing item: [%s] %v", res.Status(), errResp["error"])
	}

	return nil
}

// DeleteItem removes an item from the search index
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	res, err := c.es.Delete(IndexItems, itemID,
		c.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to delete item from index: %w", err)
	}
	defer res.Body.Close()

	// 404 means the item was never indexed, which is fine
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting item from index: [%s]", res.Status())
	}

	return nil
}

// SearchItems searches a single user's wardrobe by free text
func (c *Client) SearchItems(ctx context.Context, userID, query string, limit, offset int) ([]ItemSearchHit, int, error) {
	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"user_id": userID}},
				},
				"should": []map[string]interface{}{
					{
						"match": map[string]interface{}{
							"name": map[string]interface{}{
								"query":     query,
								"boost":     2.0,
								"fuzziness": "AUTO",
							},
						},
					},
					{
						"match": map[string]interface{}{
							"brand": map[string]interface{}{
								"query":     query,
								"boost":     1.5,
								"fuzziness": "AUTO",
							},
						},
					},
					{
						"match": map[string]interface{}{
							"subcategory": map[string]interface{}{
								"query":     query,
								"fuzziness": "AUTO",
							},
						},
					},
					{
						"match": map[string]interface{}{
							"description": map[string]interface{}{
								"query": query,
								"boost": 0.5,
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
		"sort": []map[string]interface{}{
			{"_score": map[string]interface{}{"order": "desc"}},
		},
		"from": offset,
		"size": limit,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(IndexItems),
		c.es.Search.WithBody(bytes.NewReader(queryJSON)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		var errResp map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&errResp); err != nil {
			return nil, 0, fmt.Errorf("error response [%s]", res.Status())
		}
		return nil, 0, fmt.Errorf("error searching items: [%s] %v", res.Status(), errResp["error"])
	}

	var searchResp struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string                 `json:"_id"`
				Score  float64                `json:"_score"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	hits := make([]ItemSearchHit, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		item := ItemSearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if name, ok := hit.Source["name"].(string); ok {
			item.Name = name
		}
		if category, ok := hit.Source["category"].(string); ok {
			item.Category = category
		}
		if subcategory, ok := hit.Source["subcategory"].(string); ok {
			item.Subcategory = subcategory
		}
		if brand, ok := hit.Source["brand"].(string); ok {
			item.Brand = brand
		}
		hits = append(hits, item)
	}

	return hits, searchResp.Hits.Total.Value, nil
}

// ItemDocument builds the search document for an item
func ItemDocument(id, userID, category, subcategory, name, description, brand string, colors []string, createdAt interface{}) map[string]interface{} {
	return map[string]interface{}{
		"id":          id,
		"user_id":     userID,
		"category":    category,
		"subcategory": subcategory,
		"name":        name,
		"description": description,
		"brand":       brand,
		"colors":      colors,
		"created_at":  createdAt,
	}
}
