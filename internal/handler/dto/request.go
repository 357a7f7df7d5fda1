package dto

// SubmitTaskRequest represents the request body for POST /tasks.
type SubmitTaskRequest struct {
	Handler string `json:"handler"`
	Request string `json:"request"`
}
