package httpapi

import (
	"log/slog"
	"net/http"

	"FeedbackAnalyzer/internal/ports"
	"FeedbackAnalyzer/internal/sse"
)

// ServerDeps wires the HTTP surface to the core.
type ServerDeps struct {
	Repository ports.FeedbackRepository
	Queue      ports.JobQueue
	Hub        *sse.Hub
	Blob       ports.BlobStore
	Sentiment  ports.SentimentAnalyzer
	Responder  ports.ResponseGenerator
	Speech     ports.SpeechSynthesizer

	AudioDir    string
	CORSOrigins []string
	Logger      *slog.Logger
}

// Server exposes the REST endpoints and the event stream.
type Server struct {
	repository ports.FeedbackRepository
	queue      ports.JobQueue
	hub        *sse.Hub
	blob       ports.BlobStore
	sentiment  ports.SentimentAnalyzer
	responder  ports.ResponseGenerator
	speech     ports.SpeechSynthesizer

	audioDir string
	handler  http.Handler
	logger   *slog.Logger
}

// NewServer builds the router with middleware applied.
func NewServer(deps ServerDeps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		repository: deps.Repository,
		queue:      deps.Queue,
		hub:        deps.Hub,
		blob:       deps.Blob,
		sentiment:  deps.Sentiment,
		responder:  deps.Responder,
		speech:     deps.Speech,
		audioDir:   deps.AudioDir,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/feedback", s.handleSubmit)
	mux.HandleFunc("GET /api/v1/feedback", s.handleList)
	mux.HandleFunc("GET /api/v1/feedback/{id}", s.handleGet)
	mux.HandleFunc("GET /api/v1/dashboard/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/audio/{id}", s.handleAudio)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)

	s.handler = chain(mux,
		recovery(logger),
		cors(deps.CORSOrigins),
		requestLogging(logger),
	)
	return s
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}
