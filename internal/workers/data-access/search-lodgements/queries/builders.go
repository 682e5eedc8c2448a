package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// LodgementQuery defines the structure of a search request
type LodgementQuery struct {
	Index       string
	QueryType   string
	Filters     map[string]interface{}
	LodgementID string
	QueueID     int64
	Pagination  struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, lq LodgementQuery) (*esapi.SearchRequest, error) {
	if lq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch lq.QueryType {
	case "lodgement_index":
		queryBody = buildLodgementSearchQuery(lq)
	case "similar_lodgements":
		queryBody = buildSimilarLodgementsQuery(lq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, lq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{lq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &lq.Pagination.From,
		Size:   &lq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildLodgementSearchQuery builds the main lodgement search query dynamically
func buildLodgementSearchQuery(lq LodgementQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search over the address fields
	if keywords, ok := lq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"address^3", "block^2", "notes"},
				"type":   "best_fields",
			},
		})
	}

	// Queue filter, explicit filter wins over the request-level queue
	if queueID, ok := asInt64(lq.Filters["queueId"]); ok && queueID > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"queue_id": queueID},
		})
	} else if lq.QueueID > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"queue_id": lq.QueueID},
		})
	}

	// Unit size filter (1 for 1+1, 2 for 2+1)
	if size, ok := asInt64(lq.Filters["size"]); ok && size > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"size": size},
		})
	}

	if lodgementType, ok := asInt64(lq.Filters["lodgementType"]); ok && lodgementType > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"lodgement_type": lodgementType},
		})
	}

	if onlyAvailable, ok := lq.Filters["onlyAvailable"].(bool); ok && onlyAvailable {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"is_available": true},
		})
	}

	// A unit is free by the given date when its busy-until marker is at
	// or before it, or was never set.
	if freeBy, ok := lq.Filters["freeBy"].(string); ok && freeBy != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"range": map[string]interface{}{
							"busy_until": map[string]interface{}{"lte": freeBy},
						},
					},
					map[string]interface{}{
						"bool": map[string]interface{}{
							"must_not": []interface{}{
								map[string]interface{}{
									"exists": map[string]interface{}{"field": "busy_until"},
								},
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		})
	}

	// District filter
	if districts, ok := lq.Filters["districts"].([]interface{}); ok && len(districts) > 0 {
		terms := make([]string, 0, len(districts))
		for _, d := range districts {
			if s, ok := d.(string); ok {
				terms = append(terms, s)
			}
		}
		if len(terms) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"terms": map[string]interface{}{"district": terms},
			})
		}
	}

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Sorting logic
	if sortBy, ok := lq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "busy_until":
			query["sort"] = []map[string]interface{}{{"busy_until": "asc"}}
		case "address":
			query["sort"] = []map[string]interface{}{{"address.keyword": "asc"}}
		}
	}

	return query
}

// buildSimilarLodgementsQuery builds a "units like this one" query
func buildSimilarLodgementsQuery(lq LodgementQuery) map[string]interface{} {
	if lq.LodgementID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"address", "block", "notes"},
				"like": []map[string]interface{}{
					{"_index": lq.Index, "_id": lq.LodgementID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

// asInt64 accepts the numeric shapes JSON decoding can hand us.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}
