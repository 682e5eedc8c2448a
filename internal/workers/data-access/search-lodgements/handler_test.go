package searchlodgements

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lodgement-workers/internal/common/logger"
)

func createTestConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// stubTransport serves canned responses so no cluster is needed.
type stubTransport struct {
	status   int
	body     string
	requests []*http.Request
}

func (s *stubTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	header := http.Header{}
	header.Set("X-Elastic-Product", "Elasticsearch")
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}

func createStubClient(t *testing.T, transport *stubTransport) *elasticsearch.Client {
	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return esClient
}

const searchResponse = `{
	"took": 4,
	"hits": {
		"total": {"value": 2, "relation": "eq"},
		"max_score": 1.7,
		"hits": [
			{"_id": "ldg-1", "_source": {"address": "Block A No 3", "size": 2, "queue_id": 9}},
			{"_id": "ldg-2", "_source": {"address": "Block B No 7", "size": 2, "queue_id": 9}}
		]
	}
}`

func TestExecute_LodgementIndexSearch(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		IndexName: "lodgements",
		QueryType: "lodgement_index",
		QueueID:   9,
		Filters: map[string]interface{}{
			"keywords": "block",
			"size":     float64(2),
		},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(2), output.TotalHits)
	assert.Equal(t, 1.7, output.MaxScore)
	require.Len(t, output.Data, 2)
	assert.Equal(t, "Block A No 3", output.Data[0]["address"])

	require.Len(t, transport.requests, 1)
	assert.Contains(t, transport.requests[0].URL.Path, "lodgements")
}

func TestExecute_SimilarLodgements(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		IndexName:   "lodgements",
		QueryType:   "similar_lodgements",
		LodgementID: "ldg-1",
		Filters:     map[string]interface{}{},
	}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(2), output.TotalHits)
}

func TestExecute_UnknownQueryType(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		IndexName: "lodgements",
		QueryType: "bogus",
		Filters:   map[string]interface{}{},
	}

	_, err := handler.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "SEARCH_QUERY_FAILED", handler.mapErrorToCode(err))
	assert.Empty(t, transport.requests)
}

func TestExecute_MissingIndex(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		QueryType: "lodgement_index",
		Filters:   map[string]interface{}{},
	}

	_, err := handler.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "INDEX_NOT_FOUND", handler.mapErrorToCode(err))
}

func TestExecute_SearchError(t *testing.T) {
	transport := &stubTransport{status: http.StatusBadRequest, body: `{"error": "bad query"}`}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		IndexName: "lodgements",
		QueryType: "lodgement_index",
		Filters:   map[string]interface{}{},
	}

	_, err := handler.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, "SEARCH_QUERY_FAILED", handler.mapErrorToCode(err))
	assert.Equal(t, int32(3), handler.getRetryCount(err))
}

func TestExecute_NilInput(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	_, err := handler.Execute(context.Background(), nil)
	require.Error(t, err)
}

func TestExecute_PaginationForwarded(t *testing.T) {
	transport := &stubTransport{status: http.StatusOK, body: searchResponse}
	handler := NewHandler(createTestConfig(), createStubClient(t, transport), createTestLogger(t))

	input := &Input{
		IndexName:  "lodgements",
		QueryType:  "lodgement_index",
		Filters:    map[string]interface{}{},
		Pagination: &Pagination{From: 40, Size: 10},
	}

	_, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)

	require.Len(t, transport.requests, 1)
	query := transport.requests[0].URL.Query()
	assert.Equal(t, "40", query.Get("from"))
	assert.Equal(t, "10", query.Get("size"))
}
