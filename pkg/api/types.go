package api

import "time"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// SchemaSummary is one entry of the schema listing.
type SchemaSummary struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Fields int    `json:"fields"`
}

// EncodeRequest carries field values keyed by field name. Fields that are
// left out encode as zero.
type EncodeRequest struct {
	Values map[string]interface{} `json:"values"`
}

// PutFrameRequest names the schema to encode Values with before storing.
type PutFrameRequest struct {
	Schema string                 `json:"schema"`
	Values map[string]interface{} `json:"values"`
}

// EncodeResponse carries an encoded record as lowercase hex.
type EncodeResponse struct {
	Schema  string `json:"schema"`
	Size    int    `json:"size"`
	Payload string `json:"payload"`
}

// DecodeRequest carries a hex payload and the offset the record starts at.
type DecodeRequest struct {
	Payload string `json:"payload"`
	Start   int    `json:"start,omitempty"`
}

// DecodeResponse carries decoded field values.
type DecodeResponse struct {
	Schema string                 `json:"schema"`
	Values map[string]interface{} `json:"values"`
}

// FrameResponse describes a stored frame. Values is omitted when the
// frame's schema is no longer known.
type FrameResponse struct {
	ID        string                 `json:"id"`
	Schema    string                 `json:"schema"`
	Timestamp time.Time              `json:"timestamp"`
	Size      int                    `json:"size"`
	Payload   string                 `json:"payload"`
	Values    map[string]interface{} `json:"values,omitempty"`
}

// FrameSummary is one entry of the frame listing.
type FrameSummary struct {
	ID        string    `json:"id"`
	Schema    string    `json:"schema"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
}
