package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	resp "go-crash/internal/lib/api/response"
	"go-crash/internal/lib/converter"
	"go-crash/internal/lib/logger/sl"
)

type Response struct {
	resp.Response
	Balance float64 `json:"balance"`
}

type BalanceReader interface {
	Balance(identity string) (int64, error)
}

type Balance struct {
	log     *slog.Logger
	userRep BalanceReader
}

func New(log *slog.Logger, userRep BalanceReader) *Balance {
	return &Balance{
		log:     log,
		userRep: userRep,
	}
}

func (b *Balance) New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.user.balance.New"

		log := b.log.With(
			slog.String("op", op),
		)

		uuidStr := chi.URLParam(r, "uuid")

		amount, err := b.userRep.Balance(uuidStr)
		if err != nil {
			if gameErr, ok := crash.AsError(err); ok {
				render.JSON(w, r, resp.CodedError(gameErr.Code, gameErr.Message, http.StatusNotFound))

				return
			}

			log.Error("failed to read balance", sl.Err(err))

			render.JSON(w, r, resp.Error("failed to read balance", http.StatusInternalServerError))

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Balance:  converter.ConvertAmountIntToFloat(amount),
		})
	}
}
