package place_bet

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	resp "go-crash/internal/lib/api/response"
	"go-crash/internal/lib/converter"
	"go-crash/internal/lib/logger/sl"
)

type Request struct {
	UserUUID   string  `json:"user_uuid" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	ClientSeed string  `json:"client_seed"`
}

type Response struct {
	resp.Response
	RoundID string  `json:"round_id,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Balance float64 `json:"balance,omitempty"`
}

// BetPlacer is the engine surface this handler needs.
type BetPlacer interface {
	PlaceBet(identity string, amount int64, clientSeed string) (*crash.PlaceBetResult, error)
}

type Bet struct {
	log       *slog.Logger
	validator *validator.Validate
	engine    BetPlacer
}

func NewBet(log *slog.Logger, engine BetPlacer) *Bet {
	return &Bet{
		log:       log,
		validator: validator.New(),
		engine:    engine,
	}
}

func (b *Bet) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.crash.bet.New"

		log := b.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := b.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		result, err := b.engine.PlaceBet(req.UserUUID, converter.ConvertAmountFloatToInt(req.Amount), req.ClientSeed)
		if err != nil {
			gameErr, ok := crash.AsError(err)
			if !ok {
				log.Error("failed to place bet", sl.Err(err))

				render.JSON(w, r, resp.Error("failed to place bet", http.StatusInternalServerError))

				return
			}

			log.Info("bet rejected", sl.String("code", gameErr.Code))

			render.JSON(w, r, resp.CodedError(gameErr.Code, gameErr.Message, statusFor(gameErr)))

			return
		}

		log.Info("bet placed",
			slog.String("round_id", result.RoundID.String()),
			slog.Int64("amount", result.Bet.Amount))

		render.JSON(w, r, Response{
			Response: resp.OK(),
			RoundID:  result.RoundID.String(),
			Amount:   converter.ConvertAmountIntToFloat(result.Bet.Amount),
			Balance:  converter.ConvertAmountIntToFloat(result.Balance),
		})
	}
}

func statusFor(gameErr *crash.Error) int {
	switch gameErr {
	case crash.ErrAccountNotFound:
		return http.StatusNotFound
	case crash.ErrAccountBanned:
		return http.StatusForbidden
	case crash.ErrDependencyUnavailable:
		return http.StatusServiceUnavailable
	case crash.ErrWrongPhase, crash.ErrDuplicateBet:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
