package server

// ScanRequest asks for a single URL to be scanned and scored.
type ScanRequest struct {
	URL string `json:"url" example:"http://192.168.0.1/paypal/login"`
}

// BatchRequest starts a background job over several URLs.
type BatchRequest struct {
	URLs []string `json:"urls" example:"[\"https://example.com\",\"http://paypa1.com/login\"]"`
}

// BlocklistRequest adds or updates a blocklist entry.
type BlocklistRequest struct {
	Host    string   `json:"host" example:"evil.example"`
	Score   float64  `json:"score" example:"4"`
	Threats []string `json:"threats" example:"[\"Known phishing host\"]"`
	Source  string   `json:"source" example:"manual"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
