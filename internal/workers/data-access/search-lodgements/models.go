// internal/workers/data-access/search-lodgements/models.go
package searchlodgements

// Input carries the search request taken from the process variables.
type Input struct {
	IndexName   string                 `json:"indexName"`
	QueryType   string                 `json:"queryType"`
	Filters     map[string]interface{} `json:"filters"`
	LodgementID string                 `json:"lodgementId,omitempty"`
	QueueID     int64                  `json:"queueId,omitempty"`
	Pagination  *Pagination            `json:"pagination,omitempty"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// Output mirrors the raw search response shape the process expects.
type Output struct {
	Data      []map[string]interface{} `json:"data"`
	TotalHits int64                    `json:"totalHits"`
	MaxScore  float64                  `json:"maxScore"`
	Took      int64                    `json:"took"`
}
