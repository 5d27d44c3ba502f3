package mux

import (
	"encoding/json"
	"errors"
	"net/http"

	"holdemsim-server/pkg/engine"
)

type postGamePayload struct {
	SmallBlind      int             `json:"smallBlind"`
	BigBlind        int             `json:"bigBlind"`
	SimulatorConfig json.RawMessage `json:"simulatorConfig"`
}

func (m *Mux) postGame() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var gp postGamePayload
		if !decodeRequest(w, r, &gp) {
			return
		}

		if gp.SmallBlind <= 0 || gp.BigBlind <= gp.SmallBlind {
			writeJSONError(w, http.StatusBadRequest, errors.New("big blind must be greater than the small blind, and both must be positive"))
			return
		}

		game, err := m.dealer.CreateGame(r.Context(), gp.SmallBlind, gp.BigBlind, gp.SimulatorConfig)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, game)
	}
}

type postJoinPayload struct {
	BuyIn int `json:"buyIn"`
}

type postJoinResponse struct {
	Player *engine.Player `json:"player"`
	JWT    string         `json:"jwt"`
}

// postGameUUIDJoin seats a player and issues the token they will act with
func (m *Mux) postGameUUIDJoin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var jp postJoinPayload
		if !decodeRequest(w, r, &jp) {
			return
		}

		player, err := m.dealer.Join(r.Context(), gameUUID(r), jp.BuyIn)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		signedJWT, err := m.signer.Sign(player.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, postJoinResponse{
			Player: player,
			JWT:    signedJWT,
		})
	}
}

func (m *Mux) getGameUUID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := m.dealer.Snapshot(r.Context(), gameUUID(r), playerID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})
}

func (m *Mux) postGameUUIDStart() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, err := m.dealer.StartGame(r.Context(), gameUUID(r))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})
}

type postActionPayload struct {
	Action engine.ActionType `json:"action"`
	Amount int               `json:"amount"`
}

func (m *Mux) postGameUUIDAction() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ap postActionPayload
		if !decodeRequest(w, r, &ap) {
			return
		}

		snap, err := m.dealer.ApplyAction(r.Context(), gameUUID(r), playerID(r), ap.Action, ap.Amount)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, snap)
	})
}

type postJobsProcessResponse struct {
	Applied int `json:"applied"`
}

// postJobsProcess drains due simulator jobs. It exists alongside the
// periodic drain so tests and operators can push a stuck game forward.
func (m *Mux) postJobsProcess() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		applied, err := m.runner.ProcessDue(r.Context(), 100)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusOK, postJobsProcessResponse{Applied: applied})
	})
}
