package probetarget

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server is a GET-only HTTP fixture target whose response behavior is
// driven by a BehaviorConfig. It is meant to sit behind a monitored Server
// row so a developer can observe Prober transitions on demand.
type Server struct {
	cfg    Config
	mux    *http.ServeMux
	logger *zap.Logger
	rng    *rand.Rand
}

// New constructs a Server with the given configuration.
func New(cfg Config, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		mux:    http.NewServeMux(),
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	path := cfg.Server.Path
	if path == "" {
		path = "/"
	}
	s.mux.HandleFunc(path, s.handleProbe)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type probeResponse struct {
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	behavior := s.cfg.Behavior

	switch behavior.Mode {
	case "success":
		s.writeResponse(w, http.StatusOK, "ok")
	case "failure":
		s.writeResponse(w, behavior.StatusCode, "failing")
	case "delay":
		time.Sleep(time.Duration(behavior.DelayMs) * time.Millisecond)
		s.writeResponse(w, http.StatusOK, "ok")
	case "random":
		if s.rng.Float64() < behavior.FailureRate {
			s.writeResponse(w, behavior.StatusCode, "failing")
			return
		}
		s.writeResponse(w, http.StatusOK, "ok")
	default:
		s.writeResponse(w, http.StatusOK, "ok")
	}
}

func (s *Server) writeResponse(w http.ResponseWriter, statusCode int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(probeResponse{Mode: s.cfg.Behavior.Mode, Status: status}); err != nil {
		s.logger.Error("failed to encode probe response", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
