// Command workflowctl runs one workflow through the Runtime Facade end
// to end and prints its event stream, demonstrating the
// register_workflow -> subscribe -> execute surface. An interrupt or
// SIGTERM cancels the run through its context; Runtime.Cancel is not
// called.
//
// Usage:
//
//	workflowctl [flags]
//
// Flags:
//
//	-metrics-addr string
//	    If set, serve Prometheus metrics at this address (e.g. :9090)
//	-log-level string
//	    Minimum log level: debug, info, warn, error (default "info")
//	-pretty
//	    Use human-readable text log output instead of JSON
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowcore/engine/catalog"
	"github.com/flowcore/engine/pkg/config"
	"github.com/flowcore/engine/pkg/eventbus"
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/logging"
	"github.com/flowcore/engine/pkg/observer"
	"github.com/flowcore/engine/pkg/runtime"
	"github.com/flowcore/engine/pkg/telemetry"
	"github.com/flowcore/engine/pkg/types"
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics at this address")
	logLevel := flag.String("log-level", "info", "minimum log level: debug, info, warn, error")
	pretty := flag.Bool("pretty", true, "use human-readable text log output instead of JSON")
	flag.Parse()

	logger := logging.New(logging.Config{
		Level:  *logLevel,
		Output: os.Stdout,
		Pretty: *pretty,
	})

	reg := executor.NewRegistry()
	if err := catalog.Register(reg); err != nil {
		logger.Fatalf("registering node catalog: %v", err)
	}

	engineCfg := config.Development()

	bus := eventbus.New(engineCfg.EventBusCapacity)
	defer bus.Close()

	rt := runtime.New(reg, bus, engineCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if engineCfg.MetricsEnabled || engineCfg.TracingEnabled {
		telCfg := telemetry.DefaultConfig()
		telCfg.EnableMetrics = engineCfg.MetricsEnabled
		telCfg.EnableTracing = engineCfg.TracingEnabled
		provider, err := telemetry.NewProvider(ctx, telCfg)
		if err != nil {
			logger.Fatalf("starting telemetry provider: %v", err)
		}
		defer provider.Shutdown(context.Background())

		consumer := telemetry.NewConsumer(provider)
		go consumer.Run(ctx, rt.Subscribe())

		if engineCfg.MetricsEnabled && *metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			go func() {
				logger.Infof("serving metrics on %s/metrics", *metricsAddr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Errorf("metrics server: %v", err)
				}
			}()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
		}
	}

	go observer.Console(ctx, rt.Subscribe(), logger)

	wf := sampleWorkflow()
	if err := rt.RegisterWorkflow(wf); err != nil {
		logger.Fatalf("register_workflow: %v", err)
	}
	logger.Infof("registered workflow %q", wf.ID)

	result, err := rt.Execute(ctx, wf.ID, map[string]types.Value{
		"in": types.String("ada"),
	})
	if err != nil {
		logger.Fatalf("execute: %v", err)
	}

	fmt.Printf("\nexecution %s: success=%v completed=%d failed=%d duration=%dms\n",
		result.ExecutionID, result.Success, result.CompletedNodes, result.FailedNodes, result.DurationMS)
	for nodeID, outputs := range result.Outputs {
		for port, v := range outputs {
			fmt.Printf("  %s.%s = %s\n", nodeID, port, describeValue(v))
		}
	}
}

func describeValue(v types.Value) string {
	switch v.Tag() {
	case types.TagString:
		s, _ := v.AsString()
		return s
	case types.TagNumber:
		n, _ := v.AsNumber()
		return fmt.Sprintf("%v", n)
	case types.TagBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("%v", b)
	default:
		return string(v.Tag())
	}
}

// sampleWorkflow greets the root input "in" with an expression node,
// then uppercases the greeting — a minimal but genuine two-hop DAG
// exercising the expression and transform catalog nodes together.
func sampleWorkflow() types.Workflow {
	return types.Workflow{
		ID:          "greeting",
		Name:        "Greeting Demo",
		Description: "Greets the \"in\" input and uppercases the result.",
		Nodes: []types.NodeSpec{
			{
				ID:       "greet",
				NodeType: catalog.ExpressionTypeID,
				Config:   map[string]types.Value{"expression": types.String(`"hello, " + input + "!"`)},
			},
			{
				ID:       "shout",
				NodeType: catalog.TransformTypeID,
				Config:   map[string]types.Value{"op": types.String("uppercase")},
			},
		},
		Connections: []types.Connection{
			{FromNodeID: "greet", FromPort: "result", ToNodeID: "shout", ToPort: "in"},
		},
		Settings: types.WorkflowSettings{
			MaxParallelNodes: 2,
			OnError:          types.OnError{Kind: types.StopWorkflow},
		},
	}
}
