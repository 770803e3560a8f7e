package api

import (
	"encoding/json"
	"net/http"

	"riskcore/internal/domain"
	"riskcore/internal/fanout"
)

// handlePredictionStream serves the prediction-subscription streaming
// endpoint over Server-Sent Events (§6 "Prediction subscription"): a
// subscribe/unsubscribe pair over a buffered channel, written as
// `data: <json>\n\n` frames.
func (s *Server) handlePredictionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	flusher.Flush()

	sub := s.hub.Subscribe()
	defer s.hub.Unsubscribe(sub.ID())

	for {
		select {
		case <-r.Context().Done():
			return
		case env, open := <-sub.Events():
			if !open {
				return
			}
			data, err := json.Marshal(env)
			if err != nil {
				continue
			}
			w.Write([]byte("data: "))
			w.Write(data)
			w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

// streamControlRequest is the control-message request shape accepted by the
// prediction stream's out-of-band control channel (§4.H: ping, get_trends,
// get_history).
type streamControlRequest struct {
	Type string `json:"type"`
}

// handleStreamControl answers a subscriber's control message.
func (s *Server) handleStreamControl(w http.ResponseWriter, r *http.Request) {
	var req streamControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", "malformed control message: "+err.Error()))
		return
	}

	env, err := s.hub.HandleControl(req.Type)
	if err != nil {
		writeDomainError(w, http.StatusBadRequest, domain.NewValidationError("validation_error", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// handleIngest answers the data-ingestion streaming endpoint (§6 "Data
// ingestion"): a structured update that merges into the state manager and
// triggers rate-gated inference and broadcast on any accepted change.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req fanout.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, fanout.IngestAck{Type: "error", Message: "malformed ingestion payload: " + err.Error()})
		return
	}

	ack := s.hub.Ingest(req)
	status := http.StatusOK
	if ack.Type == "error" {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, ack)
}
