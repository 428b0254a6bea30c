package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/roach88/blockduel/internal/board"
	"github.com/roach88/blockduel/internal/matchmaker"
	"github.com/roach88/blockduel/internal/pair"
)

// Error codes returned in APIError.Code.
const (
	CodeNotInMatch  = "NOT_IN_MATCH"
	CodeBadAction   = "BAD_ACTION"
	CodeBadJSON     = "BAD_JSON"
	CodeUnknownType = "UNKNOWN_TYPE"
	CodeInternal    = "INTERNAL"
	CodeUnavailable = "UNAVAILABLE"
)

// Response is the JSON envelope for every HTTP reply.
type Response struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *APIError `json:"error,omitempty"` // error details
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	status int
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

func notInMatch() *APIError {
	return &APIError{Code: CodeNotInMatch, Message: "participant is not in a match", status: http.StatusConflict}
}

// MatchView reports a participant's matchmaking status.
type MatchView struct {
	You      int64             `json:"you"`
	Status   matchmaker.Status `json:"status"`
	Match    uint64            `json:"match,omitempty"`
	Token    string            `json:"token,omitempty"`
	Side     string            `json:"side,omitempty"`
	Opponent int64             `json:"opponent,omitempty"`
}

// StateView is one participant's view of a match.
type StateView struct {
	Match    uint64      `json:"match"`
	Side     string      `json:"side"`
	You      board.State `json:"you"`
	Opponent board.State `json:"opponent"`
	GameOver bool        `json:"game_over"`
	// Outcome is "win", "lose" or "draw" once the match is over.
	Outcome string `json:"outcome,omitempty"`
}

// StepView answers a step request. Result is this side's step result and
// is only meaningful when Stepped is true.
type StepView struct {
	Stepped bool         `json:"stepped"`
	Result  board.Result `json:"result"`
	State   StateView    `json:"state"`
}

// ActionView answers an action request.
type ActionView struct {
	Action board.Action `json:"action"`
	Result board.Result `json:"result"`
	State  StateView    `json:"state"`
}

// HealthView reports server status.
type HealthView struct {
	Participants int `json:"participants"`
	// Active counts participants seen within the last activeWindow.
	Active       int `json:"active"`
	Matches      int `json:"matches"`
	Waiting      int `json:"waiting"`
	Sessions     int `json:"sessions"`
}

// activeWindow is how far back /health looks for recently seen participants.
const activeWindow = 10 * time.Minute

func (s *Server) matchView(p matchmaker.ParticipantID) MatchView {
	v := MatchView{You: int64(p)}
	st, _ := s.matches.Status(p)
	v.Status = st
	if st != matchmaker.StatusInMatch {
		return v
	}
	m, ok := s.matches.MatchFor(p)
	if !ok {
		// Removed between the two lookups.
		v.Status = matchmaker.StatusUnknown
		return v
	}
	side, _ := m.SideOf(p)
	v.Match = uint64(m.ID)
	v.Token = m.Token
	v.Side = side.String()
	v.Opponent = int64(m.Opponent(p))
	return v
}

func (s *Server) join(p matchmaker.ParticipantID) (MatchView, *APIError) {
	if _, _, err := s.matches.FindOrJoin(p); err != nil {
		s.logger.Error("pairing failed", "participant", int64(p), "error", err)
		return MatchView{}, &APIError{Code: CodeInternal, Message: "could not create match", status: http.StatusInternalServerError}
	}
	return s.matchView(p), nil
}

// leave takes p off the waiting list or forfeits its running match.
func (s *Server) leave(p matchmaker.ParticipantID) MatchView {
	s.forfeit(p, "match abandoned")
	return s.matchView(p)
}

// forfeit removes p from matchmaking: off the waiting list, or out of its
// running match, which ends for the opponent too. It runs from the session
// cache's evict hook, so it must not touch the cache.
func (s *Server) forfeit(p matchmaker.ParticipantID, reason string) {
	if m, ok := s.matches.MatchFor(p); ok {
		if s.matches.RemoveMatch(m.ID) {
			s.logger.Info(reason, "participant", int64(p), "match", uint64(m.ID), "match_token", m.Token)
		}
		return
	}
	if s.matches.Leave(p) {
		s.logger.Debug(reason, "participant", int64(p), "left", "waiting")
	}
}

func (s *Server) stateView(m matchmaker.Match[*pair.Pair], side pair.Side) StateView {
	snap := m.Field.Snapshot()
	v := StateView{
		Match: uint64(m.ID),
		Side:  side.String(),
	}
	if side == pair.SideA {
		v.You, v.Opponent = snap.A, snap.B
	} else {
		v.You, v.Opponent = snap.B, snap.A
	}
	v.GameOver = v.You.GameOver || v.Opponent.GameOver
	if v.GameOver {
		switch loser, ok := m.Field.Loser(); {
		case !ok:
			v.Outcome = "draw"
		case loser == side:
			v.Outcome = "lose"
		default:
			v.Outcome = "win"
		}
	}
	return v
}

func (s *Server) current(p matchmaker.ParticipantID) (matchmaker.Match[*pair.Pair], pair.Side, *APIError) {
	m, ok := s.matches.MatchFor(p)
	if !ok {
		return m, pair.SideA, notInMatch()
	}
	side, _ := m.SideOf(p)
	return m, side, nil
}

func (s *Server) step(p matchmaker.ParticipantID) (StepView, *APIError) {
	m, side, apiErr := s.current(p)
	if apiErr != nil {
		return StepView{}, apiErr
	}
	out := m.Field.RequestStep(side)
	return StepView{
		Stepped: out.Stepped,
		Result:  out.Result(side),
		State:   s.stateView(m, side),
	}, nil
}

func (s *Server) act(p matchmaker.ParticipantID, name string) (ActionView, *APIError) {
	action, err := board.ParseAction(name)
	if err != nil {
		return ActionView{}, &APIError{Code: CodeBadAction, Message: err.Error(), status: http.StatusBadRequest}
	}
	m, side, apiErr := s.current(p)
	if apiErr != nil {
		return ActionView{}, apiErr
	}
	res := m.Field.Apply(side, action)
	return ActionView{
		Action: action,
		Result: res,
		State:  s.stateView(m, side),
	}, nil
}

// state returns p's view of its match. Once the match is over, the read
// counts as p having seen the result; when both sides have, the match is
// removed.
func (s *Server) state(p matchmaker.ParticipantID) (StateView, *APIError) {
	m, side, apiErr := s.current(p)
	if apiErr != nil {
		return StateView{}, apiErr
	}
	v := s.stateView(m, side)
	if v.GameOver && m.Field.Acknowledge(side) {
		s.matches.RemoveMatch(m.ID)
		s.logger.Info("match finished", "match", uint64(m.ID), "match_token", m.Token)
	}
	return v, nil
}

// HTTP handlers

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	v, apiErr := s.join(p)
	reply(w, v, apiErr)
}

func (s *Server) handleMatchStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	writeOK(w, s.matchView(p))
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	writeOK(w, s.leave(p))
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	v, apiErr := s.step(p)
	reply(w, v, apiErr)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	v, apiErr := s.act(p, r.PathValue("action"))
	reply(w, v, apiErr)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p, ok := s.identifyOrFail(w, r)
	if !ok {
		return
	}
	v, apiErr := s.state(p)
	reply(w, v, apiErr)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	n, err := s.registry.CountParticipants(r.Context())
	var active int
	if err == nil {
		active, err = s.registry.CountActiveSince(r.Context(), s.now().Add(-activeWindow))
	}
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		writeError(w, &APIError{Code: CodeUnavailable, Message: "participant store unavailable", status: http.StatusServiceUnavailable})
		return
	}
	writeOK(w, HealthView{
		Participants: n,
		Active:       active,
		Matches:      s.matches.Len(),
		Waiting:      s.matches.Waiting(),
		Sessions:     s.sessions.Len(),
	})
}

func (s *Server) identifyOrFail(w http.ResponseWriter, r *http.Request) (matchmaker.ParticipantID, bool) {
	p, err := s.identify(w, r)
	if err != nil {
		s.logger.Error("identify participant", "error", err)
		writeError(w, &APIError{Code: CodeInternal, Message: "could not assign participant id", status: http.StatusInternalServerError})
		return 0, false
	}
	return p, true
}

func reply(w http.ResponseWriter, data any, apiErr *APIError) {
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	writeOK(w, data)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Status: "ok", Data: data})
}

func writeError(w http.ResponseWriter, e *APIError) {
	status := e.status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, Response{Status: "error", Error: e})
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
