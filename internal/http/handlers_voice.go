package http

import (
	"errors"
	"net/http"
	"sync/atomic"

	"gastos/internal/log"
	"gastos/internal/voice"
)

type utteranceRequest struct {
	Text string `json:"text"`
}

type confirmRequest struct {
	voice.DraftFields
	Fecha string `json:"fecha"`
}

type confirmResponse struct {
	Ref   string `json:"ref"`
	Fecha string `json:"fecha"`
}

func (s *Server) readUtterance(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req utteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return "", false
	}
	text := sanitizeInput(req.Text)
	if len([]rune(text)) > maxUtteranceLen {
		BadRequestError("El comando es demasiado largo").Write(w)
		return "", false
	}
	return text, true
}

// handleVoiceParse runs only the parser. It never fails on content.
func (s *Server) handleVoiceParse(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readUtterance(w, r)
	if !ok {
		return
	}
	NewJSONResponse().Body(voice.Parse(text)).Write(w)
}

// handleVoiceInterpret parses and resolves against the caller's catalog.
func (s *Server) handleVoiceInterpret(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	text, ok := s.readUtterance(w, r)
	if !ok {
		return
	}

	atomic.AddInt64(&s.appMetrics.interpreted, 1)
	res, err := s.deps.Voice.Interpret(r.Context(), userID, text)
	if errors.Is(err, voice.ErrEmptyQuery) {
		atomic.AddInt64(&s.appMetrics.emptyQueries, 1)
		UnprocessableEntityError(msgRepeat).
			Body(errorBody{Error: msgRepeat, Command: res.Command}).
			Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, err, log.OpResolve)
		return
	}
	NewJSONResponse().Body(res).Write(w)
}

// handleVoiceConfirm saves a reviewed draft. A missing fecha means today.
func (s *Server) handleVoiceConfirm(w http.ResponseWriter, r *http.Request) {
	userID, err := s.userID(r)
	if err != nil {
		BadRequestError("Usuario inválido").Write(w)
		return
	}
	var req confirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError("Formato de solicitud inválido").Write(w)
		return
	}
	date, err := ParseDate(req.Fecha)
	if err != nil {
		s.writeError(w, r, err, log.OpConfirm)
		return
	}
	if date.IsEmpty() {
		date = s.today()
	}

	f := req.DraftFields
	f.N1, f.N2, f.N3, f.N4 = sanitizeInput(f.N1), sanitizeInput(f.N2), sanitizeInput(f.N3), sanitizeInput(f.N4)
	f.Unidad = sanitizeInput(f.Unidad)

	ref, err := s.deps.Voice.Confirm(r.Context(), userID, f, date)
	if err != nil {
		s.writeError(w, r, err, log.OpConfirm)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)
	s.invalidateOverview(userID, date)
	Created(confirmResponse{Ref: ref, Fecha: date.Format("2006-01-02")}).Write(w)
}
