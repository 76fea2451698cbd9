package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pushp314/crova-storefront/internal/apperrors"
)

// errorBody mirrors the error shapes the Crova API returns. Most endpoints
// use {"message": "..."}; some older ones use {"error": "..."}. Validation
// failures carry a per-field map under "errors".
type errorBody struct {
	Message string            `json:"message"`
	ErrMsg  string            `json:"error"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"errors"`
}

// parseResponseError reads the body of a non-2xx response and translates it
// into an AppError carrying the server's message and the matching sentinel.
func parseResponseError(resp *http.Response, method, path string) error {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s %s returned status %d (failed to read body: %w)", method, path, resp.StatusCode, err)
	}

	message := http.StatusText(resp.StatusCode)
	code := ""
	var fields map[string]string

	var body errorBody
	if json.Unmarshal(bodyBytes, &body) == nil {
		switch {
		case body.Message != "":
			message = body.Message
		case body.ErrMsg != "":
			message = body.ErrMsg
		}
		code = body.Code
		fields = body.Fields
	}

	if code == "" {
		code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
	}

	return &apperrors.AppError{
		Code:    code,
		Message: message,
		Status:  resp.StatusCode,
		Fields:  fields,
		Err:     apperrors.SentinelForStatus(resp.StatusCode),
	}
}
