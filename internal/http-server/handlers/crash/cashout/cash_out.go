package cashout

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
	UserUUID string `json:"user_uuid" validate:"required"`
}

type Response struct {
	resp.Response
	RoundID    string  `json:"round_id,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Payout     float64 `json:"payout,omitempty"`
	Balance    float64 `json:"balance,omitempty"`
}

type CashOuter interface {
	CashOut(identity string) (*crash.CashOutResult, error)
}

type CashOut struct {
	log       *slog.Logger
	validator *validator.Validate
	engine    CashOuter
}

func New(log *slog.Logger, engine CashOuter) *CashOut {
	return &CashOut{
		log:       log,
		validator: validator.New(),
		engine:    engine,
	}
}

func (c *CashOut) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.crash.cashout.New"

		log := c.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to decode request body", http.StatusBadRequest))

			return
		}

		if err := c.validator.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("invalid request", sl.Err(err))

			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		result, err := c.engine.CashOut(req.UserUUID)
		if err != nil {
			gameErr, ok := crash.AsError(err)
			if !ok {
				log.Error("failed to cash out", sl.Err(err))

				render.JSON(w, r, resp.Error("failed to cash out", http.StatusInternalServerError))

				return
			}

			log.Info("cashout rejected", sl.String("code", gameErr.Code))

			render.JSON(w, r, resp.CodedError(gameErr.Code, gameErr.Message, statusFor(gameErr)))

			return
		}

		log.Info("cashed out",
			slog.String("round_id", result.RoundID.String()),
			slog.Float64("multiplier", result.Bet.PayoutMultiplier),
			slog.Int64("payout", result.Bet.Payout))

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			RoundID:    result.RoundID.String(),
			Multiplier: result.Bet.PayoutMultiplier,
			Payout:     converter.ConvertAmountIntToFloat(result.Bet.Payout),
			Balance:    converter.ConvertAmountIntToFloat(result.Balance),
		})
	}
}

func statusFor(gameErr *crash.Error) int {
	switch gameErr {
	case crash.ErrNoActiveBet:
		return http.StatusNotFound
	case crash.ErrDependencyUnavailable:
		return http.StatusServiceUnavailable
	case crash.ErrWrongPhase, crash.ErrAlreadyCashedOut:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}
