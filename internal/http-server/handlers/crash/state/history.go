package state

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"
	"golang.org/x/exp/slog"

	"go-crash/internal/crash"
	resp "go-crash/internal/lib/api/response"
)

// Recorder tees the event stream into a short-lived cache of revealed
// rounds, so the history endpoint can answer without touching storage.
type Recorder struct {
	log   *slog.Logger
	next  crash.Publisher
	cache *cache.Cache
}

func NewRecorder(log *slog.Logger, next crash.Publisher) *Recorder {
	return &Recorder{
		log:   log,
		next:  next,
		cache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (rec *Recorder) Publish(ev crash.Event) error {
	if ev.Name == crash.EventCrashed {
		if id, ok := ev.Data["round_id"].(string); ok {
			rec.cache.Set(id, ev.Data, cache.DefaultExpiration)
		}
	}

	return rec.next.Publish(ev)
}

type HistoryResponse struct {
	resp.Response
	Rounds []map[string]interface{} `json:"rounds"`
}

// History serves the recently revealed rounds, newest first.
func (rec *Recorder) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items := rec.cache.Items()

		rounds := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			if data, ok := item.Object.(map[string]interface{}); ok {
				rounds = append(rounds, data)
			}
		}

		sort.Slice(rounds, func(i, j int) bool {
			ti, _ := rounds[i]["crashed_at"].(time.Time)
			tj, _ := rounds[j]["crashed_at"].(time.Time)

			return ti.After(tj)
		})

		render.JSON(w, r, HistoryResponse{
			Response: resp.OK(),
			Rounds:   rounds,
		})
	}
}
