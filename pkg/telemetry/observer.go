package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/types"
)

// Consumer drains an event bus subscription and turns each event into
// OpenTelemetry spans and metrics through a Provider. It is the
// telemetry-recording counterpart to pkg/observer.Console, which
// drains the same kind of subscription into structured logs instead.
type Consumer struct {
	provider *Provider

	mu                sync.Mutex
	workflowSpans     map[string]trace.Span
	workflowStartedAt map[string]time.Time
	nodeSpans         map[string]trace.Span
	nodeStartedAt     map[string]time.Time
}

// NewConsumer creates a Consumer recording into provider.
func NewConsumer(provider *Provider) *Consumer {
	return &Consumer{
		provider:          provider,
		workflowSpans:     make(map[string]trace.Span),
		workflowStartedAt: make(map[string]time.Time),
		nodeSpans:         make(map[string]trace.Span),
		nodeStartedAt:     make(map[string]time.Time),
	}
}

// Run drains sub until ctx is cancelled or the bus is closed. Run it
// in its own goroutine alongside any other subscriber of the same
// bus; each subscription has its own cursor so consumers never starve
// each other.
func (c *Consumer) Run(ctx context.Context, sub *eventbus.Subscription) {
	for {
		event, _, err := sub.Receive(ctx)
		if err != nil {
			if errors.Is(err, eventbus.ErrClosed) || ctx.Err() != nil {
				return
			}
			return
		}
		c.handle(ctx, event)
	}
}

func (c *Consumer) handle(ctx context.Context, event types.Event) {
	switch event.Kind {
	case types.EventWorkflowStarted:
		c.handleWorkflowStarted(ctx, event)
	case types.EventWorkflowCompleted:
		c.handleWorkflowCompleted(ctx, event)
	case types.EventNodeStarted:
		c.handleNodeStarted(ctx, event)
	case types.EventNodeCompleted:
		c.handleNodeEnd(ctx, event, true)
	case types.EventNodeFailed:
		c.handleNodeEnd(ctx, event, false)
	}
}

func (c *Consumer) spanKey(executionID, nodeID string) string {
	return executionID + "/" + nodeID
}

func (c *Consumer) handleWorkflowStarted(ctx context.Context, event types.Event) {
	_, span := c.provider.Tracer().Start(ctx, "workflow.execute",
		trace.WithAttributes(
			attribute.String("workflow.id", event.WorkflowID),
			attribute.String("execution.id", event.ExecutionID),
		),
	)
	c.mu.Lock()
	c.workflowSpans[event.ExecutionID] = span
	c.workflowStartedAt[event.ExecutionID] = event.Timestamp
	c.mu.Unlock()
}

func (c *Consumer) handleWorkflowCompleted(ctx context.Context, event types.Event) {
	c.mu.Lock()
	span := c.workflowSpans[event.ExecutionID]
	delete(c.workflowSpans, event.ExecutionID)
	delete(c.workflowStartedAt, event.ExecutionID)
	c.mu.Unlock()

	duration := time.Duration(event.DurationMS) * time.Millisecond
	c.provider.RecordWorkflowExecution(ctx, event.WorkflowID, duration, event.Success, 0)

	if span == nil {
		return
	}
	if event.Success {
		span.SetStatus(codes.Ok, "workflow completed")
	} else {
		span.SetStatus(codes.Error, "workflow failed")
	}
	span.End()
}

func (c *Consumer) handleNodeStarted(ctx context.Context, event types.Event) {
	c.mu.Lock()
	parent := c.workflowSpans[event.ExecutionID]
	c.mu.Unlock()

	spanCtx := ctx
	if parent != nil {
		spanCtx = trace.ContextWithSpan(ctx, parent)
	}
	_, span := c.provider.Tracer().Start(spanCtx, "node.execute",
		trace.WithAttributes(
			attribute.String("node.id", event.NodeID),
			attribute.String("node.type", event.NodeType),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	key := c.spanKey(event.ExecutionID, event.NodeID)
	c.mu.Lock()
	c.nodeSpans[key] = span
	c.nodeStartedAt[key] = event.Timestamp
	c.mu.Unlock()
}

func (c *Consumer) handleNodeEnd(ctx context.Context, event types.Event, success bool) {
	key := c.spanKey(event.ExecutionID, event.NodeID)

	c.mu.Lock()
	span := c.nodeSpans[key]
	startedAt, ok := c.nodeStartedAt[key]
	delete(c.nodeSpans, key)
	delete(c.nodeStartedAt, key)
	c.mu.Unlock()

	var duration time.Duration
	if ok {
		duration = time.Since(startedAt)
	}
	if event.DurationMS > 0 {
		duration = time.Duration(event.DurationMS) * time.Millisecond
	}
	c.provider.RecordNodeExecution(ctx, event.NodeID, event.NodeType, duration, success)
	if !success && event.AttemptsMade > 1 {
		c.provider.RecordNodeRetry(ctx, event.NodeID, event.NodeType, event.AttemptsMade)
	}

	if span == nil {
		return
	}
	if success {
		span.SetStatus(codes.Ok, "node completed")
	} else {
		msg := "node failed"
		if event.Error != nil {
			msg = event.Error.Message
		}
		span.SetStatus(codes.Error, msg)
	}
	span.End()
}
