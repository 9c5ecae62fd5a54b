package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	domrepo "SigForge/internal/domain/repository"
	pkgkafka "SigForge/pkg/kafka"
)

// GenerateJobHandler consumes pipeline requests from Kafka and runs them.
type GenerateJobHandler struct {
	topic   string
	runner  *PipelineRunner
	metrics domrepo.Metrics
}

func NewGenerateJobHandler(topic string, runner *PipelineRunner, metrics domrepo.Metrics) *GenerateJobHandler {
	return &GenerateJobHandler{topic: topic, runner: runner, metrics: metrics}
}

func (h *GenerateJobHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, date, task}
func (h *GenerateJobHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string `json:"symbol"`
		Date   string `json:"date"`
		Task   string `json:"task"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" {
		h.metrics.RecordError("consumer_bad_request")
		return fmt.Errorf("generate job: symbol required")
	}
	if m.Task == "" {
		m.Task = TaskAll
	}
	if !IsValidTask(m.Task) {
		h.metrics.RecordError("consumer_bad_request")
		return fmt.Errorf("generate job: unknown task %q", m.Task)
	}

	_, err := h.runner.RunTask(ctx, m.Symbol, m.Date, m.Task)
	return err
}

var _ pkgkafka.MessageHandler = (*GenerateJobHandler)(nil)
