package models

// ChatRequest is the JSON body posted to the chat endpoint
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the envelope returned by the chat endpoint.
// A success envelope carries Status and Response; a failure envelope
// carries Error.
type ChatResponse struct {
	Status   string `json:"status,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IsSuccess reports whether the envelope carries the success marker
func (r *ChatResponse) IsSuccess() bool {
	return r != nil && r.Status == StatusSuccess
}

// Text returns the assistant reply
func (r *ChatResponse) Text() string {
	if r == nil {
		return ""
	}
	return r.Response
}
