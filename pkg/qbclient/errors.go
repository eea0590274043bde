// qbclient/errors.go
package qbclient

import (
	"encoding/json"
	"fmt"
)

// APIError is a non-200 or malformed response from a provider endpoint. The
// raw status and body are retained for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("QuickBooks API returned status %d with malformed body: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("QuickBooks API returned status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

// GraphQLResponse is the standard {data, errors} GraphQL envelope.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// HasErrors reports whether the response carried structured errors.
func (r *GraphQLResponse) HasErrors() bool { return len(r.Errors) > 0 }

// GraphQLError is a single entry of the errors array. The provider nests its
// machine-readable code at extensions.errorCode.errorCode.
type GraphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		ErrorCode struct {
			ErrorCode string `json:"errorCode"`
		} `json:"errorCode"`
	} `json:"extensions"`
}

// Code returns the provider's structured error code, or "" if absent.
func (e GraphQLError) Code() string { return e.Extensions.ErrorCode.ErrorCode }

func (e GraphQLError) Error() string {
	if code := e.Code(); code != "" {
		return fmt.Sprintf("%s: %s", code, e.Message)
	}
	return e.Message
}
