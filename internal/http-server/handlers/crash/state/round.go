package state

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-crash/internal/http-server/model"
	resp "go-crash/internal/lib/api/response"
	"go-crash/internal/lib/logger/sl"
)

type RoundResponse struct {
	resp.Response
	Round *model.CrashRound `json:"round,omitempty"`
}

type RoundFinder interface {
	FindByUUID(uuid string) (*model.CrashRound, error)
}

// Round serves an archived round by uuid, revealed seed included, so
// outcomes stay checkable after the in-memory history expired.
type Round struct {
	log      *slog.Logger
	roundRep RoundFinder
}

func NewRound(log *slog.Logger, roundRep RoundFinder) *Round {
	return &Round{
		log:      log,
		roundRep: roundRep,
	}
}

func (h *Round) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.crash.state.Round"

		log := h.log.With(
			slog.String("op", op),
		)

		uuidStr := chi.URLParam(r, "uuid")

		round, err := h.roundRep.FindByUUID(uuidStr)
		if err != nil {
			log.Error("failed to find round", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to find round", http.StatusInternalServerError))

			return
		}

		if round == nil {
			render.JSON(w, r, resp.Error("round not found", http.StatusNotFound))

			return
		}

		render.JSON(w, r, RoundResponse{
			Response: resp.OK(),
			Round:    round,
		})
	}
}
