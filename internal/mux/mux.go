package mux

import (
	"context"
	"net/http"
	"strings"

	gmux "github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"holdemsim-server/internal/jwt"
	"holdemsim-server/pkg/events"
	"holdemsim-server/pkg/room"
	"holdemsim-server/pkg/simulator"
)

type ctxKey int

const ctxPlayerIDKey ctxKey = iota

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version string
	signer  *jwt.Signer
	dealer  *room.Dealer
	hub     *events.Hub
	runner  *simulator.Runner
	logger  logrus.FieldLogger

	// store for testing purposes
	authRouter *gmux.Router
}

// NewMux returns a new HTTP mux
func NewMux(version string, signer *jwt.Signer, dealer *room.Dealer, hub *events.Hub, runner *simulator.Runner, logger logrus.FieldLogger) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		signer:  signer,
		dealer:  dealer,
		hub:     hub,
		runner:  runner,
		logger:  logger,
	}

	this.authRouter = this.Router.NewRoute().Subrouter()
	this.authRouter.Use(this.authMiddleware)

	const gamePrefix = "/game/{uuid:(?i)[a-f0-9]{8}(?:-[a-f0-9]{4}){3}-[a-f0-9]{12}}"

	// unauthorized endpoints
	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
		r.Methods(http.MethodPost).Path("/game").Handler(this.postGame())
		r.Methods(http.MethodPost).Path(gamePrefix + "/join").Handler(this.postGameUUIDJoin())
	}

	// requires bearer authorization
	{
		r := this.authRouter

		gr := r.PathPrefix(gamePrefix).Subrouter()
		gr.Methods(http.MethodGet).Path("").Handler(this.getGameUUID())
		gr.Methods(http.MethodPost).Path("/start").Handler(this.postGameUUIDStart())
		gr.Methods(http.MethodPost).Path("/action").Handler(this.postGameUUIDAction())
		gr.Methods(http.MethodGet).Path("/ws").Handler(this.getGameUUIDWS())

		r.Methods(http.MethodPost).Path("/jobs/process").Handler(this.postJobsProcess())
	}

	return this
}

func (m *Mux) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("access_token")
		if token == "" {
			authHeader := strings.Split(r.Header.Get("Authorization"), " ")
			if len(authHeader) != 2 || strings.ToLower(authHeader[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, nil)
				return
			}

			token = authHeader[1]
		}

		id, err := m.signer.ValidPlayerID(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		ctx := context.WithValue(r.Context(), ctxPlayerIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func playerID(r *http.Request) int64 {
	id, _ := r.Context().Value(ctxPlayerIDKey).(int64)
	return id
}

func gameUUID(r *http.Request) string {
	return strings.ToLower(gmux.Vars(r)["uuid"])
}
