package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/HarryOhm33/We-Hack/pkg/errors"
)

type remoteError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError converts a non-2xx response into an application error.
// The remote error message is preserved when the body follows the standard
// error envelope.
func ParseResponseError(status int, body []byte) error {
	var remote remoteError
	message := ""
	if err := json.Unmarshal(body, &remote); err == nil {
		message = remote.Error.Message
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFoundMsg(message, http.StatusNotFound)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return apperrors.InvalidInput(message)
	default:
		return apperrors.Internal(fmt.Errorf("upstream returned %d: %s", status, message))
	}
}
