package profileapi

import (
	"encoding/json"
	"fmt"
)

// APIError captures normalized profile service response details.
type APIError struct {
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
	Raw         map[string]any
}

func (e *APIError) Error() string {
	if e == nil {
		return "profile api error"
	}

	scope := "profile api"
	if e.Operation != "" {
		scope = fmt.Sprintf("profile api %s", e.Operation)
	}

	if e.Description != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Description)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s failed: status %d", scope, e.Status)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata returns the error details as a map suitable for error decoration.
func (e *APIError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}
	if len(e.Raw) > 0 {
		meta["raw"] = e.Raw
	}

	return meta
}

func apiError(operation string, status int, code, description string, err error, raw map[string]any) *APIError {
	return &APIError{
		Operation:   operation,
		Status:      status,
		Code:        code,
		Description: description,
		Err:         err,
		Raw:         raw,
	}
}

// serviceErrorBody matches the error shape the backend returns on failures.
type serviceErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseServiceError(body []byte) (code, description string, raw map[string]any) {
	var parsed serviceErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", nil
	}

	description = parsed.Error
	if description == "" {
		description = parsed.Message
	}
	if description == "" {
		return "", "", nil
	}

	return "service_error", description, map[string]any{"body": string(body)}
}
