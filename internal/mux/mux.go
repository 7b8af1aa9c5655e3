package mux

import (
	"context"
	"net/http"

	"blackjack-server/internal/jwt"
	"blackjack-server/pkg/room"

	gmux "github.com/gorilla/mux"
)

type ctxKey int

const (
	ctxIdentityKey ctxKey = iota
)

// IdentityHeader is set on authenticated responses
const IdentityHeader = "Blackjack-Identity"

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version string
	pitBoss *room.PitBoss

	// store for testing purposes
	authRouter *gmux.Router
}

// NewMux returns a new HTTP mux
func NewMux(version string, pitBoss *room.PitBoss) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		pitBoss: pitBoss,
	}

	this.authRouter = this.Router.NewRoute().Subrouter()
	this.authRouter.Use(this.authMiddleware)

	// unauthorized endpoints
	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())

		// the websocket reports a bad token with auth_result instead of a 401
		r.Methods(http.MethodGet).Path("/ws").Handler(this.getWS())
	}

	// requires bearer authorization
	{
		r := this.authRouter
		r.Methods(http.MethodGet).Path("/room").Handler(this.getRoom())
	}

	return this
}

func (m *Mux) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := accessToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		identity, err := jwt.ValidIdentity(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxIdentityKey, identity)
		w.Header().Set(IdentityHeader, identity)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}
