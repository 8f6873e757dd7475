// Package model defines the types shared by the ingestion and extraction pipeline.
package model

// QueryCategory groups generated search queries by the angle they search from.
type QueryCategory string

const (
	QueryRecentUpdates    QueryCategory = "recent-updates"
	QueryDiscoveries      QueryCategory = "discoveries"
	QueryTechnicalReports QueryCategory = "technical-reports"
	QueryProjectStages    QueryCategory = "project-stages"
	QueryRegional         QueryCategory = "regional"
	QueryMajorCompanies   QueryCategory = "major-companies"
)

// SearchQuery is a single generated search. Commodity is empty when the
// query is not commodity-specific.
type SearchQuery struct {
	Text      string        `json:"text"`
	Category  QueryCategory `json:"category"`
	Commodity string        `json:"commodity,omitempty"`
}
