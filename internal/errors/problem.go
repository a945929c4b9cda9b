package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// NewDatasetUnavailableProblem reports a dataset whose source file or URL
// could not be read. The dashboard stays up; only views backed by the
// dataset degrade.
func NewDatasetUnavailableProblem(dataset, instance, traceID string) *ProblemDetails {
	return NewProblemDetails(
		http.StatusServiceUnavailable,
		TypeDatasetUnavailable,
		"Dataset Unavailable",
		fmt.Sprintf("The source for dataset %q could not be read. Check that the file exists in the datasets directory.", dataset),
		instance,
	).WithExtension("dataset", dataset).
		WithExtension("trace_id", traceID)
}

// NewMalformedCurrencyProblem reports a currency cell that survived
// cleaning but could not be parsed.
func NewMalformedCurrencyProblem(column, value, instance, traceID string) *ProblemDetails {
	return NewProblemDetails(
		http.StatusUnprocessableEntity,
		TypeMalformedCurrency,
		"Malformed Currency Value",
		fmt.Sprintf("Column %q holds a value that cannot be parsed as currency: %q", column, value),
		instance,
	).WithExtension("column", column).
		WithExtension("value", value).
		WithExtension("trace_id", traceID)
}
