package state

import (
	"net/http"

	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	resp "go-crash/internal/lib/api/response"
)

type Response struct {
	resp.Response
	crash.Snapshot
}

type Snapshotter interface {
	Snapshot() crash.Snapshot
}

// State serves the current-round view for HTTP pollers and late joiners.
type State struct {
	log    *slog.Logger
	engine Snapshotter
}

func New(log *slog.Logger, engine Snapshotter) *State {
	return &State{
		log:    log,
		engine: engine,
	}
}

func (s *State) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Snapshot: s.engine.Snapshot(),
		})
	}
}
