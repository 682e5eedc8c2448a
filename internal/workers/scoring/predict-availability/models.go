// internal/workers/scoring/predict-availability/models.go
package predictavailability

type Input struct {
	QueueID int64 `json:"queueId"`
	// ApplicationID narrows the output to one applicant's estimate.
	ApplicationID int64 `json:"applicationId,omitempty"`
}

type AvailabilityEstimate struct {
	ApplicationID int64 `json:"applicationId"`
	// EstimatedDate is RFC 3339, empty when no unit is in sight.
	EstimatedDate string `json:"estimatedDate,omitempty"`
	// Message is the human rendering, for example "in 1 years, 2 months and
	// 10 days" or "No available lodgements."
	Message string `json:"message"`
}

type Output struct {
	QueueID   int64                  `json:"queueId"`
	Estimates []AvailabilityEstimate `json:"estimates"`
}
