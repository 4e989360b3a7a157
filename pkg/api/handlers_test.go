package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/segmentio/ksuid"
)

// telemetryHex is {id: 1, flag: 2, samples: [10 -1 0 7 1000]}
const telemetryHex = "00000001" + "02" + "000a" + "ffff" + "0000" + "0007" + "03e8"

// dataAs re-decodes response.Data into v
func dataAs(t *testing.T, response APIResponse, v interface{}) {
	t.Helper()
	data, err := json.Marshal(response.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
}

func TestServer_handleListSchemas(t *testing.T) {
	server := setupTestServer(t)

	w, response := doRequest(t, server.Handler(), "GET", "/api/v1/schemas", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var summaries []SchemaSummary
	dataAs(t, response, &summaries)
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 schema, got %d", len(summaries))
	}
	if summaries[0] != (SchemaSummary{Name: "telemetry", Size: 15, Fields: 3}) {
		t.Errorf("Unexpected summary: %+v", summaries[0])
	}
}

func TestServer_handleGetSchema(t *testing.T) {
	server := setupTestServer(t)
	h := server.Handler()

	w, response := doRequest(t, h, "GET", "/api/v1/schemas/telemetry", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var layout struct {
		Size   int `json:"size"`
		Fields []struct {
			Name   string `json:"name"`
			Offset int    `json:"offset"`
			Size   int    `json:"size"`
		} `json:"fields"`
	}
	dataAs(t, response, &layout)
	if layout.Size != 15 || len(layout.Fields) != 3 {
		t.Fatalf("Unexpected layout: %+v", layout)
	}
	if layout.Fields[2].Name != "samples" || layout.Fields[2].Offset != 5 || layout.Fields[2].Size != 10 {
		t.Errorf("Unexpected samples field: %+v", layout.Fields[2])
	}

	w, response = doRequest(t, h, "GET", "/api/v1/schemas/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if response.Success || response.Error == "" {
		t.Errorf("Expected an error response, got %+v", response)
	}
}

func TestServer_handleEncode(t *testing.T) {
	server := setupTestServer(t)
	h := server.Handler()

	tests := []struct {
		name           string
		path           string
		body           interface{}
		expectedStatus int
		expectedHex    string
	}{
		{
			name: "full record",
			path: "/api/v1/schemas/telemetry/encode",
			body: EncodeRequest{Values: map[string]interface{}{
				"id": 1, "flag": 2, "samples": []int{10, -1, 0, 7, 1000},
			}},
			expectedStatus: http.StatusOK,
			expectedHex:    telemetryHex,
		},
		{
			name:           "missing fields encode as zero",
			path:           "/api/v1/schemas/telemetry/encode",
			body:           EncodeRequest{Values: map[string]interface{}{"flag": "255"}},
			expectedStatus: http.StatusOK,
			expectedHex:    "00000000" + "ff" + strings.Repeat("00", 10),
		},
		{
			name:           "value out of range",
			path:           "/api/v1/schemas/telemetry/encode",
			body:           EncodeRequest{Values: map[string]interface{}{"flag": 256}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown field",
			path:           "/api/v1/schemas/telemetry/encode",
			body:           EncodeRequest{Values: map[string]interface{}{"speed": 1}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown request key",
			path:           "/api/v1/schemas/telemetry/encode",
			body:           map[string]interface{}{"value": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown schema",
			path:           "/api/v1/schemas/missing/encode",
			body:           EncodeRequest{},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := doRequest(t, h, "POST", tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, response.Error)
			}
			if tt.expectedHex == "" {
				return
			}
			var encoded EncodeResponse
			dataAs(t, response, &encoded)
			if encoded.Payload != tt.expectedHex {
				t.Errorf("Expected payload %s, got %s", tt.expectedHex, encoded.Payload)
			}
			if encoded.Size != 15 {
				t.Errorf("Expected size 15, got %d", encoded.Size)
			}
		})
	}
}

func TestServer_handleDecode(t *testing.T) {
	server := setupTestServer(t)
	h := server.Handler()

	w, response := doRequest(t, h, "POST", "/api/v1/schemas/telemetry/decode", DecodeRequest{Payload: telemetryHex})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, response.Error)
	}
	var decoded struct {
		Schema string `json:"schema"`
		Values struct {
			ID      uint32  `json:"id"`
			Flag    uint8   `json:"flag"`
			Samples []int16 `json:"samples"`
		} `json:"values"`
	}
	dataAs(t, response, &decoded)
	if decoded.Values.ID != 1 || decoded.Values.Flag != 2 {
		t.Errorf("Unexpected values: %+v", decoded.Values)
	}
	if len(decoded.Values.Samples) != 5 || decoded.Values.Samples[1] != -1 || decoded.Values.Samples[4] != 1000 {
		t.Errorf("Unexpected samples: %v", decoded.Values.Samples)
	}

	// A short payload decodes the fields that fit
	w, response = doRequest(t, h, "POST", "/api/v1/schemas/telemetry/decode", DecodeRequest{Payload: "ff00000001"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 for a short payload, got %d", w.Code)
	}
	dataAs(t, response, &decoded)
	if decoded.Values.ID != 0xff000000 || decoded.Values.Flag != 1 {
		t.Errorf("Unexpected values for short payload: %+v", decoded.Values)
	}

	// Decoding may start inside the payload
	w, response = doRequest(t, h, "POST", "/api/v1/schemas/telemetry/decode", DecodeRequest{Payload: "abab" + telemetryHex, Start: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	dataAs(t, response, &decoded)
	if decoded.Values.ID != 1 {
		t.Errorf("Expected id 1 when starting at 2, got %d", decoded.Values.ID)
	}

	w, _ = doRequest(t, h, "POST", "/api/v1/schemas/telemetry/decode", DecodeRequest{Payload: "zz"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad hex, got %d", w.Code)
	}
}

func TestServer_FrameLifecycle(t *testing.T) {
	server := setupTestServer(t)
	h := server.Handler()

	w, response := doRequest(t, h, "POST", "/api/v1/frames", PutFrameRequest{
		Schema: "telemetry",
		Values: map[string]interface{}{"id": 1, "flag": 2, "samples": []int{10, -1, 0, 7, 1000}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, response.Error)
	}
	var stored FrameSummary
	dataAs(t, response, &stored)
	if _, err := ksuid.Parse(stored.ID); err != nil {
		t.Fatalf("Expected a KSUID, got %q", stored.ID)
	}
	if stored.Schema != "telemetry" || stored.Size != 15 {
		t.Errorf("Unexpected summary: %+v", stored)
	}

	w, response = doRequest(t, h, "GET", "/api/v1/frames/"+stored.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, response.Error)
	}
	var frame FrameResponse
	dataAs(t, response, &frame)
	if frame.Payload != telemetryHex {
		t.Errorf("Expected payload %s, got %s", telemetryHex, frame.Payload)
	}
	if frame.Values["flag"] != float64(2) {
		t.Errorf("Expected decoded flag 2, got %v", frame.Values["flag"])
	}

	w, response = doRequest(t, h, "GET", "/api/v1/frames?limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var listed []FrameSummary
	dataAs(t, response, &listed)
	if len(listed) != 1 || listed[0].ID != stored.ID {
		t.Errorf("Unexpected listing: %+v", listed)
	}

	w, _ = doRequest(t, h, "DELETE", "/api/v1/frames/"+stored.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	w, _ = doRequest(t, h, "GET", "/api/v1/frames/"+stored.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
	w, _ = doRequest(t, h, "DELETE", "/api/v1/frames/"+stored.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for a second delete, got %d", w.Code)
	}
}

func TestServer_FrameErrors(t *testing.T) {
	server := setupTestServer(t)
	h := server.Handler()

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		expectedStatus int
	}{
		{"invalid id", "GET", "/api/v1/frames/not-a-ksuid", nil, http.StatusBadRequest},
		{"unknown id", "GET", "/api/v1/frames/" + ksuid.New().String(), nil, http.StatusNotFound},
		{"missing schema", "POST", "/api/v1/frames", PutFrameRequest{}, http.StatusBadRequest},
		{"unknown schema", "POST", "/api/v1/frames", PutFrameRequest{Schema: "missing"}, http.StatusNotFound},
		{"bad limit", "GET", "/api/v1/frames?limit=0", nil, http.StatusBadRequest},
		{"bad cursor", "GET", "/api/v1/frames?after=zzz", nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := doRequest(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestServer_handleHealth(t *testing.T) {
	server := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !response.Success {
		t.Error("Expected success to be true")
	}
	data, ok := response.Data.(map[string]interface{})
	if !ok || data["schemas"] != float64(1) {
		t.Errorf("Unexpected health data: %v", response.Data)
	}
}
