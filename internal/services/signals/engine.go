package signals

import (
	"SigForge/internal/domain/models"
	applogger "SigForge/pkg/logger"
)

// Weights are the linear-combination coefficients. They are applied as
// given, without renormalization: weights summing to less than one bias the
// combined signal toward HOLD, which is a legitimate tuning stance.
type Weights struct {
	Technical       float64
	SentimentMean   float64
	SentimentReddit float64
	SentimentNews   float64
}

// Thresholds split the combined score into actions. Comparison is strict:
// a score exactly at a threshold stays HOLD.
type Thresholds struct {
	Buy  float64
	Sell float64
}

type Params struct {
	Weights    Weights
	Thresholds Thresholds
}

// DefaultParams weights technicals at 0.4 and splits the remaining 0.6
// across sentiment aggregates, with the action cut at ±0.5.
func DefaultParams() Params {
	return Params{
		Weights: Weights{
			Technical:       0.4,
			SentimentMean:   0.3,
			SentimentReddit: 0.15,
			SentimentNews:   0.15,
		},
		Thresholds: Thresholds{Buy: 0.5, Sell: -0.5},
	}
}

// Engine combines feature rows into signal rows. Like the feature engine it
// is stateless per run.
type Engine struct {
	params Params
	l      *applogger.Logger
}

func NewEngine(params Params, l *applogger.Logger) *Engine {
	return &Engine{params: params, l: l}
}

// Combine produces exactly one SignalRow per FeatureRow. The technical
// component prefers the standardized RSI column and falls back to rescaling
// raw RSI into [-1, 1] around the neutral 50. Sentiment components clamp to
// [-1, 1]; a source absent from the table contributes zero. A non-finite
// component flows into the combined score and resolves to HOLD because no
// threshold comparison can be satisfied by NaN.
func (e *Engine) Combine(rows []models.FeatureRow) []models.SignalRow {
	w := e.params.Weights
	th := e.params.Thresholds

	out := make([]models.SignalRow, len(rows))
	for i := range rows {
		f := &rows[i]

		tech := (f.RSI14 - 50) / 50
		if f.RSIZScore != nil {
			tech = *f.RSIZScore
		}
		mean := clamp(f.SentimentMean)
		reddit := 0.0
		if v, ok := f.SentimentFor("reddit"); ok {
			reddit = clamp(v)
		}
		news := 0.0
		if v, ok := f.SentimentFor("news"); ok {
			news = clamp(v)
		}

		combined := w.Technical*tech +
			w.SentimentMean*mean +
			w.SentimentReddit*reddit +
			w.SentimentNews*news

		action := models.ActionHold
		switch {
		case combined > th.Buy:
			action = models.ActionBuy
		case combined < th.Sell:
			action = models.ActionSell
		}

		out[i] = models.SignalRow{
			FeatureRow:            rows[i],
			TechnicalSignal:       tech,
			SentimentMeanSignal:   mean,
			SentimentRedditSignal: reddit,
			SentimentNewsSignal:   news,
			CombinedSignal:        combined,
			Action:                action,
		}
	}

	if e.l != nil {
		counts := models.CountActions(out)
		e.l.Debug("signals combined",
			applogger.Int("rows", len(out)),
			applogger.Int("buy", counts.Buy),
			applogger.Int("sell", counts.Sell),
			applogger.Int("hold", counts.Hold),
		)
	}
	return out
}

// clamp bounds v to [-1, 1]. NaN passes through: it fails both comparisons
// and stays NaN, exactly like a clip on a missing value.
func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
