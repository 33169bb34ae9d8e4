package model

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}

type ConvertRequest struct {
	Text   string `json:"text"`
	Format string `json:"format"`
	Model  string `json:"model,omitempty"`
}

type TranslateRequest struct {
	Text  string `json:"text"`
	Lang  string `json:"lang"`
	Model string `json:"model,omitempty"`
}

// ConvertResponse is shared by /convert (HTML) and /translate (plain text).
type ConvertResponse struct {
	ConvertedText string `json:"convertedText"`
}
