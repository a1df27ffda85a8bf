package analyzer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nginly/nginx-analyze-ci/pkg/cache"
	"github.com/nginly/nginx-analyze-ci/pkg/errors"
	"github.com/nginly/nginx-analyze-ci/pkg/report"
)

// Messages shown for analyzer failures.
const (
	MsgInvalidKey    = "Invalid or missing API key"
	MsgQuotaExceeded = "Usage limit exceeded for this billing period."
	MsgInvalidJSON   = "Invalid JSON response from server"
	unknownTier      = "unknown"
)

// QuotaExceededError is returned for 402 Payment Required.
type QuotaExceededError struct {
	// Message is the server's explanation, or MsgQuotaExceeded.
	Message string
	// Usage and Limit are nil when the server did not report them.
	Usage *float64
	Limit *float64
	Tier  string
}

func (e *QuotaExceededError) Error() string {
	msg := e.Message
	if e.Usage != nil && e.Limit != nil {
		tier := e.Tier
		if tier == "" {
			tier = unknownTier
		}
		msg += fmt.Sprintf(" (%s/%s used, tier: %s)", formatNumber(*e.Usage), formatNumber(*e.Limit), tier)
	}
	return msg
}

// Unwrap exposes the QUOTA_EXCEEDED code to errors.Is.
func (e *QuotaExceededError) Unwrap() error {
	return errors.New(errors.ErrCodeQuotaExceeded, "%s", e.Error())
}

type errorBody struct {
	Error *string  `json:"error"`
	Usage *float64 `json:"usage"`
	Limit *float64 `json:"limit"`
	Tier  *string  `json:"tier"`
}

func decodeResponse(status int, data []byte) (*report.Result, error) {
	switch {
	case status == http.StatusUnauthorized:
		return nil, errors.New(errors.ErrCodeUnauthorized, MsgInvalidKey)
	case status == http.StatusPaymentRequired:
		return nil, quotaError(data)
	case status < 200 || status > 299:
		err := errors.New(errors.ErrCodeServer, "%s", serverMessage(data, status))
		switch status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return nil, cache.Retryable(err)
		}
		return nil, err
	}

	res, err := report.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidResponse, err, MsgInvalidJSON)
	}
	return res, nil
}

func quotaError(data []byte) *QuotaExceededError {
	e := &QuotaExceededError{Message: MsgQuotaExceeded}
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return e
	}
	if body.Error != nil {
		e.Message = *body.Error
	}
	e.Usage, e.Limit = body.Usage, body.Limit
	if body.Tier != nil {
		e.Tier = *body.Tier
	}
	return e
}

func serverMessage(data []byte, status int) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error != nil {
		return *body.Error
	}
	return fmt.Sprintf("Server error: %d", status)
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
