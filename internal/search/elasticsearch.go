package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"saggita/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type Config struct {
	Enabled    bool
	URL        string
	Username   string
	Password   string
	Index      string
	MaxRetries int
}

// Client indexes roster entries for full-text search in the admin panel.
// The roster store stays the source of truth; a missing or stale index only
// degrades search, never correctness.
type Client struct {
	client *elasticsearch.Client
	config Config
}

func NewClient(cfg Config) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &Client{client: es, config: cfg}

	if err := client.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

func (c *Client) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	mapping := map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]interface{}{
				"analyzer": map[string]interface{}{
					"name_analyzer": map[string]interface{}{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":         map[string]interface{}{"type": "long"},
				"first_name": map[string]interface{}{"type": "text", "analyzer": "name_analyzer"},
				"last_name":  map[string]interface{}{"type": "text", "analyzer": "name_analyzer"},
				"email":      map[string]interface{}{"type": "text", "analyzer": "name_analyzer"},
				"phone":      map[string]interface{}{"type": "keyword"},
				"source":     map[string]interface{}{"type": "keyword"},
				"is_active":  map[string]interface{}{"type": "boolean"},
			},
		},
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal index mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  bytes.NewReader(body),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation returned error: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

type studentDoc struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Source    string  `json:"source"`
	IsActive  bool    `json:"is_active"`
}

// IndexStudent upserts one roster entry into the index
func (c *Client) IndexStudent(ctx context.Context, s *models.Student) error {
	doc := studentDoc{
		ID:        s.ID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Phone:     s.Phone,
		Source:    s.Source,
		IsActive:  s.IsActive,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal student doc: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(s.ID, 10),
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index student: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing returned error: %s", res.String())
	}
	return nil
}

// SearchStudentIDs returns ids of roster entries matching the query,
// best match first
func (c *Client) SearchStudentIDs(ctx context.Context, query string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 60
	}

	searchBody := map[string]interface{}{
		"size":    limit,
		"_source": []string{"id"},
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"first_name^2", "last_name^3", "email", "phone"},
				"fuzziness": "AUTO",
			},
		},
	}

	body, err := json.Marshal(searchBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search returned error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source studentDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

// BulkIndex reindexes a batch of students, used by cmd/sync-index
func (c *Client) BulkIndex(ctx context.Context, students []models.Student) error {
	var buf bytes.Buffer
	for i := range students {
		s := &students[i]
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`,
			c.config.Index, strconv.FormatInt(s.ID, 10))
		buf.WriteString(meta)
		buf.WriteByte('\n')

		doc, err := json.Marshal(studentDoc{
			ID:        s.ID,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			Email:     s.Email,
			Phone:     s.Phone,
			Source:    s.Source,
			IsActive:  s.IsActive,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal student doc: %w", err)
		}
		buf.Write(doc)
		buf.WriteByte('\n')
	}

	req := esapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("bulk index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index returned error: %s", res.String())
	}
	return nil
}
