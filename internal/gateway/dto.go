package gateway

// PublishResponse is the acknowledgement returned to the caller.
type PublishResponse struct {
	Status   string `json:"status"`
	RepoURL  string `json:"repo_url"`
	PagesURL string `json:"pages_url"`
}

// EvaluationRecord is the full result relayed to evaluation_url.
type EvaluationRecord struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
