package state

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	resp "go-crash/internal/lib/api/response"
	"go-crash/internal/lib/logger/sl"
)

type VerifyRequest struct {
	ServerSeed string  `json:"server_seed" validate:"required"`
	ClientSeed string  `json:"client_seed" validate:"required"`
	Nonce      int     `json:"nonce"`
	Multiplier float64 `json:"multiplier" validate:"required,gt=0"`
}

type VerifyResponse struct {
	resp.Response
	Valid bool `json:"valid"`
}

type OutcomeVerifier interface {
	VerifyOutcome(seed string, clientSeed string, nonce int, claimed float64) bool
}

// Verify lets anyone recheck a revealed round's outcome against the seed
// that was committed before betting opened.
type Verify struct {
	log       *slog.Logger
	validator *validator.Validate
	verifier  OutcomeVerifier
}

func NewVerify(log *slog.Logger, verifier OutcomeVerifier) *Verify {
	return &Verify{
		log:       log,
		validator: validator.New(),
		verifier:  verifier,
	}
}

func (v *Verify) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.crash.state.Verify"

		log := v.log.With(
			slog.String("op", op),
		)

		var req VerifyRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := v.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		valid := v.verifier.VerifyOutcome(req.ServerSeed, req.ClientSeed, req.Nonce, req.Multiplier)

		render.JSON(w, r, VerifyResponse{
			Response: resp.OK(),
			Valid:    valid,
		})
	}
}
