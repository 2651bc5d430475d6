// Package jsonapi provides JSON:API specification compliant response types and builders.
// See https://jsonapi.org for the full specification.
package jsonapi

// Document represents a JSON:API top-level document.
// A document MUST contain at least one of: data, errors, or meta.
type Document struct {
	Data    any      `json:"data,omitempty"`
	Errors  []Error  `json:"errors,omitempty"`
	Meta    Meta     `json:"meta,omitempty"`
	Links   *Links   `json:"links,omitempty"`
	JSONAPI *JSONAPI `json:"jsonapi,omitempty"`
}

// Resource represents a JSON:API resource object.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Links      *ResourceLinks `json:"links,omitempty"`
	Meta       Meta           `json:"meta,omitempty"`
}

// Links represents pagination and navigation links.
type Links struct {
	Self  string `json:"self,omitempty"`
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	Prev  string `json:"prev,omitempty"`
	Next  string `json:"next,omitempty"`
}

// ResourceLinks represents links within a resource object.
type ResourceLinks struct {
	Self string `json:"self,omitempty"`
}

// Error represents a JSON:API error object.
type Error struct {
	ID     string       `json:"id,omitempty"`
	Status string       `json:"status"`
	Code   string       `json:"code"`
	Title  string       `json:"title"`
	Detail string       `json:"detail,omitempty"`
	Source *ErrorSource `json:"source,omitempty"`
	Meta   Meta         `json:"meta,omitempty"`
}

// ErrorSource indicates the source of an error.
type ErrorSource struct {
	Pointer   string `json:"pointer,omitempty"`   // JSON pointer to offending field
	Parameter string `json:"parameter,omitempty"` // Query parameter that caused error
	Header    string `json:"header,omitempty"`    // Header that caused error
}

// Meta represents arbitrary metadata.
type Meta map[string]any

// JSONAPI represents the JSON:API version object.
type JSONAPI struct {
	Version string `json:"version"`
}

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Version is the JSON:API specification version.
const Version = "1.1"
