package domain

// RefusalMessage is the fixed answer returned when no thought survives
// verification. The refusal is the enforcement point for the
// never-answer-without-evidence guarantee, so the string is a constant.
const RefusalMessage = "I don't know. The wiki does not contain enough verified information to answer this question."

// OffTopicMessage is returned when retrieval finds nothing and the query
// does not appear to concern the corpus at all.
const OffTopicMessage = "This question does not appear to be about the wiki's subject area, so I can't answer it from the wiki."

// QueryResult is the complete response for one query. Every query yields
// exactly one QueryResult; no failure mode escapes as a fault.
type QueryResult struct {
	Query           string      `json:"query"`
	Answer          string      `json:"answer"`
	Confidence      float64     `json:"confidence"`
	NodesExplored   int         `json:"nodes_explored"`
	Sources         []string    `json:"sources"`
	Graph           GraphExport `json:"graph"`
	QueriesMade     []string    `json:"queries_made,omitempty"`
	ChunksRetrieved int         `json:"chunks_retrieved"`

	// Degraded reports that at least one expert was unavailable for part
	// of the query, so verification coverage was partial.
	Degraded bool   `json:"degraded,omitempty"`
	Error    string `json:"error,omitempty"`
}
