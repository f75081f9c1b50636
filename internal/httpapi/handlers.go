package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"FeedbackAnalyzer/internal/domain"
	"FeedbackAnalyzer/internal/ports"
	"FeedbackAnalyzer/internal/sse"
)

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusBadRequest, "Content-Type must be application/json", "INVALID_CONTENT_TYPE")
		return
	}

	var sub submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request data", "INVALID_BODY")
		return
	}

	text, category, err := validateSubmission(sub)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request data", "INVALID_BODY")
		return
	}

	item := domain.NewFeedbackItem(text, category)
	if err := s.repository.CreateFeedback(r.Context(), item); err != nil {
		s.logger.Error("create feedback failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to submit feedback. Please try again.", "SUBMISSION_ERROR")
		return
	}

	s.queue.Enqueue(item.ID)
	s.logger.Info("feedback submitted", "feedback_id", item.ID, "category", item.Category)

	writeJSON(w, http.StatusCreated, envelope{
		Status:  "success",
		Data:    item,
		Message: "Feedback submitted successfully",
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid feedback ID format", "INVALID_ID")
		return
	}

	item, err := s.repository.GetFeedback(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Feedback not found", "NOT_FOUND")
		return
	}
	if err != nil {
		s.logger.Error("get feedback failed", "feedback_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve feedback", "RETRIEVAL_ERROR")
		return
	}

	item.AttachAudioURL()
	writeSuccess(w, http.StatusOK, item)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	query := parseListQuery(
		r.URL.Query().Get("page"),
		r.URL.Query().Get("per_page"),
		r.URL.Query().Get("category"),
	)

	items, total, err := s.repository.ListFeedback(r.Context(), query)
	if err != nil {
		s.logger.Error("list feedback failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve feedback list", "RETRIEVAL_ERROR")
		return
	}

	for _, item := range items {
		item.AttachAudioURL()
	}

	pages := (total + query.PerPage - 1) / query.PerPage
	if items == nil {
		items = []*domain.FeedbackItem{}
	}

	writeJSON(w, http.StatusOK, envelope{
		Status: "success",
		Data:   items,
		Pagination: &pagination{
			Page:    query.Page,
			Pages:   pages,
			PerPage: query.PerPage,
			Total:   total,
			HasNext: query.Page < pages,
			HasPrev: query.Page > 1 && total > 0,
		},
		Filters: &filters{Category: query.Category},
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.repository.Stats(r.Context())
	if err != nil {
		s.logger.Error("dashboard stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve dashboard stats", "RETRIEVAL_ERROR")
		return
	}

	for _, item := range stats.RecentFeedback {
		item.AttachAudioURL()
	}
	writeSuccess(w, http.StatusOK, stats)
}

// handleAudio serves the narration, preferring durable blob storage over
// local disk. Local paths are confined to the configured audio directory.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !validID(id) {
		writeError(w, http.StatusBadRequest, "Invalid audio ID format", "INVALID_ID")
		return
	}

	artifact, err := s.repository.GetAudio(r.Context(), id)
	if errors.Is(err, ports.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Audio file not found", "NOT_FOUND")
		return
	}
	if err != nil {
		s.logger.Error("get audio failed", "audio_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve audio file", "AUDIO_ERROR")
		return
	}

	download := strings.EqualFold(r.URL.Query().Get("download"), "true")
	w.Header().Set("Content-Type", "audio/mpeg")
	if download {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="feedback_%s_response.mp3"`, artifact.FeedbackID))
	}

	if artifact.StorageKind == domain.StorageBlob && s.blob != nil && s.blob.Available() {
		body, err := s.blob.Fetch(r.Context(), artifact.FeedbackID+".mp3")
		if err == nil {
			defer body.Close()
			_, _ = io.Copy(w, body)
			return
		}
		s.logger.Warn("blob fetch failed, falling back to local file", "audio_id", id, "error", err)
	}

	s.serveLocalAudio(w, r, artifact)
}

func (s *Server) serveLocalAudio(w http.ResponseWriter, r *http.Request, artifact *domain.AudioArtifact) {
	audioDir, err := filepath.Abs(s.audioDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve audio file", "AUDIO_ERROR")
		return
	}

	path, err := filepath.Abs(artifact.FilePath)
	if err != nil || !strings.HasPrefix(path, audioDir+string(filepath.Separator)) {
		s.logger.Warn("audio path outside audio dir", "audio_id", artifact.ID, "path", artifact.FilePath)
		writeError(w, http.StatusForbidden, "Access denied", "ACCESS_DENIED")
		return
	}

	if _, err := os.Stat(path); err != nil {
		s.logger.Error("audio file missing from disk", "audio_id", artifact.ID, "path", path)
		writeError(w, http.StatusNotFound, "Audio file not available", "FILE_MISSING")
		return
	}

	http.ServeFile(w, r, path)
}

// handleEvents opens the Server-Sent Events stream. The client receives a
// connected greeting, feedback_update frames as the pipeline commits, and
// heartbeats while idle; transport close deregisters it.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", "STREAM_ERROR")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := s.hub.Register()
	defer client.Disconnect()

	ctx := r.Context()
	for {
		frame, ok := client.Next(sse.HeartbeatInterval)
		if !ok {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := io.WriteString(w, frame); err != nil {
			return
		}
		flusher.Flush()
	}
}

type serviceStatus struct {
	Available bool   `json:"available"`
	Service   string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbStatus := "healthy"
	if err := s.repository.Ping(r.Context()); err != nil {
		s.logger.Error("database health check failed", "error", err)
		dbStatus = "unhealthy"
	}

	status := "healthy"
	code := http.StatusOK
	if dbStatus != "healthy" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, envelope{
		Status: status,
		Data: map[string]any{
			"message":  "Feedback Analysis API is running",
			"database": dbStatus,
			"services": map[string]serviceStatus{
				"text_analytics": {Available: s.sentiment.Available(), Service: "Azure Text Analytics"},
				"openai":         {Available: s.responder.Available(), Service: "OpenAI"},
				"speech":         {Available: s.speech.Available(), Service: "Azure Speech"},
				"blob_storage":   {Available: s.blob != nil && s.blob.Available(), Service: "S3 Blob Storage"},
			},
		},
	})
}
