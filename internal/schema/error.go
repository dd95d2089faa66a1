package schema

import "encoding/json"

// APIErrorDetail is one entry of the backend's 422 validation error body.
type APIErrorDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// APIError is the structured body the backend returns on HTTP 422.
type APIError struct {
	Detail []APIErrorDetail `json:"detail"`
}

// DecodeAPIError attempts to decode a 422 response body. A body that is not
// a structured error yields an error; callers are expected to swallow it and
// surface the original transport failure instead.
func DecodeAPIError(body []byte) (*APIError, error) {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return nil, err
	}
	return &apiErr, nil
}

// First returns the first detail entry, or a zero entry with the given
// fallback message when the detail list is empty.
func (e *APIError) First(fallback string) APIErrorDetail {
	if len(e.Detail) == 0 {
		return APIErrorDetail{Msg: fallback}
	}
	return e.Detail[0]
}
