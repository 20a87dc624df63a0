package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	gamecombat "github.com/loreforge/loreforge/internal/game/combat"
	"github.com/loreforge/loreforge/internal/game/condition"
	"github.com/loreforge/loreforge/internal/game/dice"
	"github.com/loreforge/loreforge/internal/game/encounter"
)

// combatView is the JSON projection of a combat aggregate.
type combatView struct {
	ID                     string                    `json:"id"`
	CampaignID             string                    `json:"campaign_id"`
	Name                   string                    `json:"name"`
	Status                 string                    `json:"status"`
	CurrentRound           int                       `json:"current_round"`
	Participants           []*gamecombat.Participant `json:"participants"`
	ActiveParticipantIndex *int                      `json:"active_participant_index"`
}

// sessionView extends combatView with the transient per-session state only a
// loaded engine carries.
type sessionView struct {
	combatView
	RollMode    string                  `json:"roll_mode"`
	Dirty       bool                    `json:"has_unsaved_changes"`
	RecentRolls []gamecombat.RollRecord `json:"recent_rolls"`
	Saving      bool                    `json:"is_saving"`
	LastSavedAt *time.Time              `json:"last_saved_at,omitempty"`
}

func newCombatView(c *gamecombat.Combat) combatView {
	return combatView{
		ID:                     c.ID,
		CampaignID:             c.CampaignID,
		Name:                   c.Name,
		Status:                 string(c.Status),
		CurrentRound:           c.CurrentRound,
		Participants:           c.Participants,
		ActiveParticipantIndex: c.ActiveIndex,
	}
}

func newSessionView(session *gamecombat.Session) sessionView {
	v := sessionView{
		combatView:  newCombatView(session.Engine.Combat()),
		RollMode:    string(session.Engine.RollMode()),
		Dirty:       session.Engine.IsDirty(),
		RecentRolls: session.Engine.RecentRolls(),
		Saving:      session.Saver.IsSaving(),
	}
	if at := session.Saver.LastSavedAt(); !at.IsZero() {
		v.LastSavedAt = &at
	}
	return v
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("encoding response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// session fetches the resident session for the route's combat id, writing a
// 409 when the combat has not been loaded.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*gamecombat.Session, bool) {
	id := mux.Vars(r)["id"]
	session, ok := s.manager.Get(id)
	if !ok {
		s.writeError(w, http.StatusConflict, "combat session not loaded")
		return nil, false
	}
	return session, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.Health(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListConditions(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.conditions.All())
}

func (s *Server) handleCreateCombat(w http.ResponseWriter, r *http.Request) {
	var cmd encounter.CreateCommand
	if !s.decode(w, r, &cmd) {
		return
	}

	cbt, err := s.encounters.CreateEncounter(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, encounter.ErrMonsterCountExceeded) || errors.Is(err, encounter.ErrUnknownSource) {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, newCombatView(cbt))
}

func (s *Server) handleGetCombat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cbt, err := s.combats.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "combat not found")
		return
	}
	s.writeJSON(w, http.StatusOK, newCombatView(cbt))
}

func (s *Server) handleCompleteCombat(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.combats.Complete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusNotFound, "combat not found")
		return
	}
	s.manager.Unload(id)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(gamecombat.StatusCompleted)})
}

func (s *Server) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	session, err := s.manager.Load(r.Context(), id)
	if err != nil {
		s.logger.Warn("loading combat session", zap.String("combat_id", id), zap.Error(err))
		s.writeError(w, http.StatusNotFound, "combat not found")
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleUnloadSession(w http.ResponseWriter, r *http.Request) {
	s.manager.Unload(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRollInitiative(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Engine.RollInitiative()
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Engine.Start()
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	session.Engine.NextTurn()
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

type hpUpdateRequest struct {
	ParticipantID string `json:"participant_id"`
	Kind          string `json:"kind"`
	Amount        int    `json:"amount"`
}

func (s *Server) handleUpdateHP(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req hpUpdateRequest
	if !s.decode(w, r, &req) {
		return
	}

	kind := gamecombat.HPUpdateKind(req.Kind)
	if kind != gamecombat.HPDamage && kind != gamecombat.HPHeal {
		s.writeError(w, http.StatusBadRequest, "kind must be damage or heal")
		return
	}
	if req.Amount < 0 {
		s.writeError(w, http.StatusBadRequest, "amount must be >= 0")
		return
	}

	session.Engine.UpdateHP(req.ParticipantID, req.Amount, kind)
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

type addConditionRequest struct {
	ParticipantID    string `json:"participant_id"`
	ConditionID      string `json:"condition_id"`
	DurationInRounds *int   `json:"duration_in_rounds"`
}

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addConditionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, ok := s.conditions.Get(req.ConditionID); !ok {
		s.writeError(w, http.StatusUnprocessableEntity, "unknown condition id")
		return
	}
	if req.DurationInRounds != nil && *req.DurationInRounds < 1 {
		s.writeError(w, http.StatusBadRequest, "duration_in_rounds must be >= 1")
		return
	}

	session.Engine.AddCondition(req.ParticipantID, condition.Active{
		ConditionID:    req.ConditionID,
		DurationRounds: req.DurationInRounds,
	})
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleRemoveCondition(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		s.writeError(w, http.StatusBadRequest, "participant_id query parameter required")
		return
	}

	session.Engine.RemoveCondition(participantID, vars["conditionID"])
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

type executeActionRequest struct {
	ParticipantID string `json:"participant_id"`
	ActionName    string `json:"action_name"`
}

func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req executeActionRequest
	if !s.decode(w, r, &req) {
		return
	}

	participant := session.Engine.Combat().Participant(req.ParticipantID)
	if participant == nil {
		s.writeError(w, http.StatusNotFound, "participant not found")
		return
	}
	action := participant.FindAction(req.ActionName)
	if action == nil {
		s.writeError(w, http.StatusNotFound, "action not found")
		return
	}

	session.Engine.ExecuteAction(req.ParticipantID, *action)
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

type rollModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetRollMode(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req rollModeRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode := dice.Mode(req.Mode)
	if !mode.Valid() {
		s.writeError(w, http.StatusBadRequest, "mode must be normal, advantage, or disadvantage")
		return
	}
	session.Engine.SetRollMode(mode)
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Saver.Save(r.Context()); err != nil {
		s.logger.Error("saving combat snapshot", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionView(session))
}
