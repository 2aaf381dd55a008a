package catalog

import (
	"context"
	"testing"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// fakeNodeContext is a minimal executor.NodeContext for exercising one
// node in isolation, without spinning up the scheduler.
type fakeNodeContext struct {
	context.Context
	inputs map[string]types.Value
}

func newFakeCtx(inputs map[string]types.Value) *fakeNodeContext {
	return &fakeNodeContext{Context: context.Background(), inputs: inputs}
}

func (c *fakeNodeContext) ExecutionID() string { return "exec-test" }
func (c *fakeNodeContext) NodeID() string      { return "node-test" }
func (c *fakeNodeContext) RequireInput(name string) (types.Value, error) {
	v, ok := c.inputs[name]
	if !ok {
		return types.Null, types.ErrMissingInput(name)
	}
	return v, nil
}
func (c *fakeNodeContext) OptionalInput(name string) (types.Value, bool) {
	v, ok := c.inputs[name]
	return v, ok
}
func (c *fakeNodeContext) Scratchpad() executor.Scratchpad { return nil }
func (c *fakeNodeContext) Emit(types.NodeSubEvent)         {}
func (c *fakeNodeContext) Cancelled() bool                 { return false }

func TestConstant_EmitsConfiguredValue(t *testing.T) {
	f := NewConstantFactory()
	if err := f.ValidateConfig(map[string]types.Value{"value": types.Number(42)}); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}
	node, err := f.Create(map[string]types.Value{"value": types.Number(42)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	out, err := node.Execute(newFakeCtx(nil))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	n, _ := out.Outputs["value"].AsNumber()
	if n != 42 {
		t.Errorf("expected 42, got %v", n)
	}
}

func TestConstant_RejectsMissingValue(t *testing.T) {
	f := NewConstantFactory()
	if err := f.ValidateConfig(map[string]types.Value{}); err == nil {
		t.Fatal("expected error for missing 'value' config")
	}
}

func TestExpression_EvaluatesAgainstInput(t *testing.T) {
	f := NewExpressionFactory()
	cfg := map[string]types.Value{"expression": types.String("input * 2")}
	if err := f.ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}
	node, err := f.Create(cfg)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	out, err := node.Execute(newFakeCtx(map[string]types.Value{"in": types.Number(21)}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	n, _ := out.Outputs["result"].AsNumber()
	if n != 42 {
		t.Errorf("expected 42, got %v", n)
	}
}

func TestExpression_RejectsInvalidSyntax(t *testing.T) {
	f := NewExpressionFactory()
	if err := f.ValidateConfig(map[string]types.Value{"expression": types.String("this is not valid (")}); err == nil {
		t.Fatal("expected compile error for malformed expression")
	}
}

func TestCondition_RoutesToTrueOrFalse(t *testing.T) {
	f := NewConditionFactory()
	cfg := map[string]types.Value{"expression": types.String("input > 10")}
	if err := f.ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}
	node, err := f.Create(cfg)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	out, err := node.Execute(newFakeCtx(map[string]types.Value{"in": types.Number(20)}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := out.Outputs["true"]; !ok {
		t.Errorf("expected 20 > 10 to route to \"true\", got %+v", out.Outputs)
	}

	out, err = node.Execute(newFakeCtx(map[string]types.Value{"in": types.Number(5)}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, ok := out.Outputs["false"]; !ok {
		t.Errorf("expected 5 > 10 to route to \"false\", got %+v", out.Outputs)
	}
}

func TestTransform_Uppercase(t *testing.T) {
	f := NewTransformFactory()
	cfg := map[string]types.Value{"op": types.String("uppercase")}
	if err := f.ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig() error = %v", err)
	}
	node, err := f.Create(cfg)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	out, err := node.Execute(newFakeCtx(map[string]types.Value{"in": types.String("hello")}))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	s, _ := out.Outputs["out"].AsString()
	if s != "HELLO" {
		t.Errorf("expected HELLO, got %q", s)
	}
}

func TestTransform_RejectsUnknownOp(t *testing.T) {
	f := NewTransformFactory()
	if err := f.ValidateConfig(map[string]types.Value{"op": types.String("reverse")}); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestFlaky_FailsThenSucceeds(t *testing.T) {
	f := NewFlakyFactory()
	node, err := f.Create(map[string]types.Value{"fail_count": types.Number(2), "value": types.String("done")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := node.Execute(newFakeCtx(nil)); err == nil {
			t.Fatalf("call %d: expected failure", i+1)
		}
	}
	out, err := node.Execute(newFakeCtx(nil))
	if err != nil {
		t.Fatalf("call 3: expected success, got error %v", err)
	}
	s, _ := out.Outputs["out"].AsString()
	if s != "done" {
		t.Errorf("expected \"done\", got %q", s)
	}
}

func TestRegister_AddsEveryNodeType(t *testing.T) {
	reg := executor.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	for _, typeID := range []string{ConstantTypeID, ExpressionTypeID, ConditionTypeID, TransformTypeID, FlakyTypeID} {
		if !reg.Has(typeID) {
			t.Errorf("expected %q to be registered", typeID)
		}
	}
}
