package dispatch

import (
	"context"

	"github.com/dmolchanov/packvault/internal/logging"
	"github.com/dmolchanov/packvault/internal/server/oracle"
	"github.com/dmolchanov/packvault/internal/server/registry"
)

const queueCapacity = 256

// Worker drains the command queue against the registry and oracle clients.
// Execution is best effort; a failed command is logged and dropped, the
// durable state it refers to stays consistent either way.
type Worker struct {
	registry registry.Client
	oracle   oracle.Client
	logger   logging.Logger
	ch       chan Command
}

func NewWorker(reg registry.Client, orc oracle.Client, logger logging.Logger) *Worker {
	return &Worker{
		registry: reg,
		oracle:   orc,
		logger:   logger,
		ch:       make(chan Command, queueCapacity),
	}
}

func (w *Worker) Enqueue(cmds ...Command) {
	for _, cmd := range cmds {
		w.ch <- cmd
	}
}

// Run consumes commands until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-w.ch:
			w.logger.Debug(ctx, "executing outbound command", "kind", cmd.Kind)
			if err := w.execute(ctx, cmd); err != nil {
				w.logger.Error(ctx, "outbound command failed", "kind", cmd.Kind, "error", err)
			}
		}
	}
}

func (w *Worker) execute(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case KindTransfer:
		return w.registry.Transfer(ctx, cmd.To, cmd.AssetIDs, cmd.Memo)
	case KindMint:
		return w.registry.Mint(ctx, cmd.Collection, cmd.Category, cmd.TemplateRef, cmd.NewOwner)
	case KindBurn:
		return w.registry.Burn(ctx, cmd.AssetID)
	case KindRandRequest:
		return w.oracle.RequestRand(ctx, cmd.CorrelationID, cmd.SigningValue, cmd.Callback)
	}
	w.logger.Warn(ctx, "unknown outbound command kind", "kind", cmd.Kind)
	return nil
}
