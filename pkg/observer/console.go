package observer

import (
	"context"
	"errors"

	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/logging"
	"github.com/flowcore/engine/pkg/types"
)

// Console drains sub until ctx is cancelled or the bus is closed,
// logging each event through logger at a level chosen by its kind.
// NodeFailed logs at Error, NodeEvent{Warn} at Warn, everything else at
// Info; a non-zero lag is always logged at Warn, the same severity the
// teacher's ConsoleObserver gave a dropped/lagging signal.
//
// Console returns when draining stops; run it in its own goroutine to
// observe a run without blocking the caller.
func Console(ctx context.Context, sub *eventbus.Subscription, logger *logging.Logger) {
	for {
		event, lagged, err := sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, eventbus.ErrClosed) || ctx.Err() != nil {
				return
			}
			return
		}
		if lagged > 0 {
			logger.WithField("lagged", lagged).Warn("event subscriber fell behind, oldest events dropped")
		}
		log(logger, event)
	}
}

func log(logger *logging.Logger, event types.Event) {
	l := logger.WithField("execution_id", event.ExecutionID)
	if event.NodeID != "" {
		l = l.WithNodeID(event.NodeID)
	}
	switch event.Kind {
	case types.EventNodeFailed:
		l.WithField("attempts_made", event.AttemptsMade).Errorf("node %s failed: %s", event.NodeID, event.Error.Message)
	case types.EventWorkflowCompleted:
		l.WithField("success", event.Success).Infof("workflow completed in %dms", event.DurationMS)
	case types.EventNodeEvent:
		if event.SubEvent != nil && event.SubEvent.Sub == types.SubEventWarn {
			l.Warnf("node %s: %s", event.NodeID, event.SubEvent.Message)
			return
		}
		l.Infof("node %s event: %v", event.NodeID, event.SubEvent)
	default:
		l.Infof("%s", event.Kind)
	}
}
