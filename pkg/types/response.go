package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type PageMeta struct {
	NextCursor string `json:"next_cursor,omitempty"`
}

type PageEnvelope struct {
	Data any      `json:"data"`
	Meta PageMeta `json:"meta"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
