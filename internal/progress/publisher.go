package progress

import (
	"golang.org/x/time/rate"

	"github.com/iolab-uniud/osp-ls/internal/runner"
)

// Publisher — наблюдатель раннера, публикующий события в брокер.
// События new_best прореживаются ограничителем, начало и конец прогона передаются всегда.
type Publisher struct {
	broker  Broker
	runID   string
	limiter *rate.Limiter
}

var _ runner.Observer = (*Publisher)(nil)

// NewPublisher ограничивает new_best до perSecond событий в секунду; perSecond <= 0 снимает ограничение.
func NewPublisher(b Broker, runID string, perSecond float64) *Publisher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &Publisher{broker: b, runID: runID, limiter: rate.NewLimiter(limit, 1)}
}

func (p *Publisher) OnEvent(ev runner.Event) {
	if ev.Kind == runner.NewBest && !p.limiter.Allow() {
		return
	}
	data := map[string]any{
		"runner":      ev.Runner,
		"strategy":    ev.Strategy,
		"iteration":   ev.Iteration,
		"best_cost":   ev.BestCost,
		"violations":  ev.Violations,
		"evaluations": ev.Evaluations,
		"elapsed_ms":  ev.Elapsed.Milliseconds(),
	}
	switch ev.Kind {
	case runner.RunStarted:
		data["cost"] = ev.Cost
	case runner.RunFinished:
		data["status"] = ev.Status.String()
		data["iteration_of_best"] = ev.IterationOfBest
	}
	p.broker.Publish(p.runID, Event{Type: ev.Kind.String(), Data: data})
}
