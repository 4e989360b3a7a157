package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/structkit/pkg/schema"
	"github.com/ssargent/structkit/pkg/storage"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Server holds the API server state
type Server struct {
	catalog  SchemaCatalog
	frames   FrameStore
	config   ServerConfig
	metrics  *Metrics
	registry *prometheus.Registry
	logger   zerolog.Logger
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"schemas": len(s.catalog.Names()),
		"frames":  s.frames != nil,
	})
}

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	names := s.catalog.Names()
	summaries := make([]SchemaSummary, 0, len(names))
	for _, name := range names {
		compiled, err := s.catalog.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, SchemaSummary{
			Name:   name,
			Size:   compiled.Size(),
			Fields: compiled.Descriptor().NumField(),
		})
	}
	sendSuccess(w, summaries)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	compiled, ok := s.lookupSchema(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}
	sendSuccess(w, compiled.Layout())
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	compiled, ok := s.lookupSchema(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	var req EncodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	payload, err := s.encode(compiled, req.Values)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to encode record: %v", err), http.StatusBadRequest)
		return
	}

	sendSuccess(w, EncodeResponse{
		Schema:  compiled.Name(),
		Size:    len(payload),
		Payload: hex.EncodeToString(payload),
	})
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	compiled, ok := s.lookupSchema(w, chi.URLParam(r, "name"))
	if !ok {
		return
	}

	var req DecodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	payload, err := hex.DecodeString(req.Payload)
	if err != nil {
		sendError(w, "Payload must be hex encoded", http.StatusBadRequest)
		return
	}

	values, err := s.decode(compiled, payload, req.Start)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to decode record: %v", err), http.StatusBadRequest)
		return
	}

	sendSuccess(w, DecodeResponse{Schema: compiled.Name(), Values: values})
}

func (s *Server) handlePutFrame(w http.ResponseWriter, r *http.Request) {
	var req PutFrameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Schema == "" {
		sendError(w, "Schema is required", http.StatusBadRequest)
		return
	}

	compiled, ok := s.lookupSchema(w, req.Schema)
	if !ok {
		return
	}
	payload, err := s.encode(compiled, req.Values)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to encode record: %v", err), http.StatusBadRequest)
		return
	}

	start := time.Now()
	id, err := s.frames.Put(compiled.Name(), payload)
	s.metrics.RecordFrameOperation("put", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to store frame: %v", err), http.StatusInternalServerError)
		return
	}

	s.logger.Debug().Str("id", id.String()).Str("schema", compiled.Name()).Msg("frame stored")
	sendSuccess(w, FrameSummary{
		ID:        id.String(),
		Schema:    compiled.Name(),
		Timestamp: id.Time().UTC(),
		Size:      len(payload),
	})
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFrameID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	frame, err := s.frames.Get(id)
	s.metrics.RecordFrameOperation("get", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		sendFrameError(w, err)
		return
	}

	env := frame.Envelope
	resp := FrameResponse{
		ID:        frame.ID.String(),
		Schema:    env.Schema,
		Timestamp: env.Time(),
		Size:      len(env.Payload),
		Payload:   hex.EncodeToString(env.Payload),
	}

	compiled, err := s.catalog.Get(env.Schema)
	if err != nil {
		s.logger.Warn().Err(err).Str("id", resp.ID).Str("schema", env.Schema).Msg("frame schema unavailable")
		sendSuccess(w, resp)
		return
	}
	values, err := s.decode(compiled, env.Payload, 0)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to decode frame: %v", err), http.StatusInternalServerError)
		return
	}
	resp.Values = values
	sendSuccess(w, resp)
}

func (s *Server) handleDeleteFrame(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFrameID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	start := time.Now()
	err := s.frames.Delete(id)
	s.metrics.RecordFrameOperation("delete", err == nil, time.Since(start))
	if err != nil {
		sendFrameError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"message": "Frame deleted successfully"})
}

func (s *Server) handleListFrames(w http.ResponseWriter, r *http.Request) {
	after := ksuid.Nil
	if v := r.URL.Query().Get("after"); v != "" {
		id, ok := parseFrameID(w, v)
		if !ok {
			return
		}
		after = id
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			sendError(w, "Limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	start := time.Now()
	frames, err := s.frames.List(after, limit)
	s.metrics.RecordFrameOperation("list", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list frames: %v", err), http.StatusInternalServerError)
		return
	}

	summaries := make([]FrameSummary, 0, len(frames))
	for _, f := range frames {
		summaries = append(summaries, FrameSummary{
			ID:        f.ID.String(),
			Schema:    f.Envelope.Schema,
			Timestamp: f.Envelope.Time(),
			Size:      len(f.Envelope.Payload),
		})
	}
	sendSuccess(w, summaries)
}

func (s *Server) lookupSchema(w http.ResponseWriter, name string) (*schema.Compiled, bool) {
	compiled, err := s.catalog.Get(name)
	if errors.Is(err, schema.ErrNotFound) {
		sendError(w, fmt.Sprintf("Schema %q not found", name), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("schema", name).Msg("failed to load schema")
		sendError(w, fmt.Sprintf("Failed to load schema: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return compiled, true
}

func (s *Server) encode(compiled *schema.Compiled, values map[string]interface{}) ([]byte, error) {
	start := time.Now()
	payload, err := compiled.EncodeValues(values)
	s.metrics.RecordCodecOperation("encode", compiled.Name(), err == nil, len(payload), time.Since(start))
	return payload, err
}

func (s *Server) decode(compiled *schema.Compiled, payload []byte, at int) (map[string]interface{}, error) {
	start := time.Now()
	rec, err := compiled.Decode(payload, at)
	s.metrics.RecordCodecOperation("decode", compiled.Name(), err == nil, len(payload), time.Since(start))
	if err != nil {
		return nil, err
	}
	return rec.JSONValues(), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseFrameID(w http.ResponseWriter, raw string) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(raw)
	if err != nil {
		sendError(w, "Invalid frame id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

func sendFrameError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, "Frame not found", http.StatusNotFound)
		return
	}
	sendError(w, fmt.Sprintf("Failed to load frame: %v", err), http.StatusInternalServerError)
}
