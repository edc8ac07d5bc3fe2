package domain

// QueryRequest is an incoming chat query
type QueryRequest struct {
	Query     string `json:"query" validate:"required,max=2000"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the answer with its citations. Sources may be empty
// when the model answered without retrieving content; an empty list is
// never padded with fabricated citations.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}
