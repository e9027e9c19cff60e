package server

import (
	"net/http"
	"time"

	"github.com/lyz-njeri/Jigsaw-game/db"
	"github.com/lyz-njeri/Jigsaw-game/errors"
	"github.com/lyz-njeri/Jigsaw-game/hint"
	"github.com/lyz-njeri/Jigsaw-game/session"
	"github.com/lyz-njeri/Jigsaw-game/version"
)

// setupRoutes registers all HTTP handlers on the mux.
func (s *Server) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleCloseSession)
	mux.HandleFunc("POST /api/sessions/{id}/pieces", s.handlePlacePiece)
	mux.HandleFunc("POST /api/sessions/{id}/hint", s.handleRequestHint)
	mux.HandleFunc("GET /api/sessions/{id}/hint/types", s.handleHintTypes)
	mux.HandleFunc("GET /api/levels", s.handleLevels)
	mux.HandleFunc("GET /api/levels/{id}/scores", s.handleLevelScores)
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWebSocket)
}

type createSessionRequest struct {
	LevelID string `json:"level_id"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	LevelID     string `json:"level_id"`
	LevelName   string `json:"level_name"`
	GridRows    int    `json:"grid_rows"`
	GridCols    int    `json:"grid_cols"`
	Fingerprint string `json:"fingerprint"`
	Status      string `json:"status"`
	HintsUsed   int    `json:"hints_used"`
	Score       int    `json:"score"`
}

func sessionToResponse(sess *session.Session) sessionResponse {
	size := sess.GridSize()
	return sessionResponse{
		ID:          sess.ID(),
		LevelID:     sess.Level().ID,
		LevelName:   sess.Level().Name,
		GridRows:    size.Rows,
		GridCols:    size.Cols,
		Fingerprint: sess.Fingerprint(),
		Status:      sess.Status(),
		HintsUsed:   sess.HintsUsed(),
		Score:       sess.Score(),
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	sess, err := s.registry.Create(req.LevelID)
	if err != nil {
		if errors.IsNotFoundError(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Errorw("Session creation failed", "level", req.LevelID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	resp := struct {
		sessionResponse
		Progress interface{} `json:"progress"`
	}{
		sessionResponse: sessionToResponse(sess),
		Progress:        sess.Progress(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	// Persist the final state before the registry forgets the session.
	if s.store != nil {
		now := time.Now()
		if err := s.store.Save(sess, now); err != nil {
			if db.IsDatabaseClosed(err) {
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
			s.logger.Errorw("Failed to persist session on close",
				"session_id", shortID(sess.ID()), "error", err)
		} else if sess.Completed() {
			if err := s.store.RecordScore(sess, now); err != nil {
				s.logger.Errorw("Failed to record score",
					"session_id", shortID(sess.ID()), "error", err)
			}
		}
	}

	if err := s.registry.Close(sess.ID()); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

type placePieceRequest struct {
	PieceID int  `json:"piece_id"`
	Correct bool `json:"correct"`
	Remove  bool `json:"remove,omitempty"`
}

func (s *Server) handlePlacePiece(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req placePieceRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}

	var (
		sum interface{}
		err error
	)
	if req.Remove {
		sum, err = sess.RemovePiece(req.PieceID)
	} else {
		sum, err = sess.PlacePiece(req.PieceID, req.Correct)
	}
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrSessionClosed):
			writeError(w, http.StatusGone, "session closed")
		case errors.Is(err, errors.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Errorw("Placement failed", "session_id", shortID(sess.ID()), "error", err)
			writeError(w, http.StatusInternalServerError, "placement failed")
		}
		return
	}

	s.publish(&Event{Type: "progress", SessionID: sess.ID(), Data: sum})
	writeJSON(w, http.StatusOK, sum)
}

type hintUnavailableResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

func (s *Server) handleRequestHint(w http.ResponseWriter, r *http.Request) {
	if limiter := s.limiterFor(clientIP(r)); limiter != nil && !limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "request rate exceeded")
		return
	}

	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	result, err := sess.RequestHint(r.Context())
	if err != nil {
		if ue, isCooldown := hint.IsUnavailable(err); isCooldown {
			writeJSON(w, http.StatusTooManyRequests, hintUnavailableResponse{
				Error:             "hint on cooldown",
				RetryAfterSeconds: ue.RemainingSeconds(),
			})
			return
		}
		if errors.Is(err, errors.ErrSessionClosed) {
			writeError(w, http.StatusGone, "session closed")
			return
		}
		s.logger.Errorw("Hint request failed", "session_id", shortID(sess.ID()), "error", err)
		writeError(w, http.StatusInternalServerError, "hint request failed")
		return
	}

	s.publish(&Event{Type: "hint", SessionID: sess.ID(), Data: result})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHintTypes(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	types, err := sess.AvailableHintTypes(r.Context())
	if err != nil {
		s.logger.Errorw("Hint types lookup failed", "session_id", shortID(sess.ID()), "error", err)
		writeError(w, http.StatusInternalServerError, "hint types lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"types": types})
}

type levelResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  int    `json:"difficulty"`
	GridRows    int    `json:"grid_rows"`
	GridCols    int    `json:"grid_cols"`
	BasePoints  int    `json:"base_points"`
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	all := session.Levels()
	out := make([]levelResponse, len(all))
	for i, l := range all {
		out[i] = levelResponse{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Difficulty:  l.Difficulty,
			GridRows:    l.GridSize.Rows,
			GridCols:    l.GridSize.Cols,
			BasePoints:  l.BasePoints,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"levels": out})
}

func (s *Server) handleLevelScores(w http.ResponseWriter, r *http.Request) {
	levelID := r.PathValue("id")
	if _, err := session.LevelByID(levelID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"scores": []struct{}{}})
		return
	}

	scores, err := s.store.TopScores(levelID, 10)
	if err != nil {
		if db.IsDatabaseClosed(err) {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		s.logger.Errorw("Score lookup failed", "level", levelID, "error", err)
		writeError(w, http.StatusInternalServerError, "score lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"scores": scores})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"sessions": s.registry.Len(),
	}
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["database"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

// lookupSession resolves the {id} path segment to an active session,
// writing the 404 itself when absent.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}
