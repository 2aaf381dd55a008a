package catalog

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// ConditionTypeID is the node_type that evaluates a boolean expr-lang
// expression against its "in" input and routes it to exactly one of
// two output ports, the building block for conditional branches
// (grounded on the teacher's demo-conditional-execution command).
const ConditionTypeID = "condition"

type conditionFactory struct{}

// NewConditionFactory returns the factory for the "condition" node
// type: Config.expression must evaluate to a bool; true routes the
// input to the "true" port, false to the "false" port, the other port
// left undelivered (spec.md §4.6's declared-but-undelivered-output
// rule): a node fed from that port still runs once its other inputs
// resolve, with no value on the input that port feeds.
func NewConditionFactory() executor.Factory { return &conditionFactory{} }

func (f *conditionFactory) TypeID() string { return ConditionTypeID }

func (f *conditionFactory) Metadata() executor.Metadata {
	return executor.Metadata{
		TypeID:      ConditionTypeID,
		Description: "Routes its input to \"true\" or \"false\" based on a boolean expression.",
		Category:    "control-flow",
		InputPorts:  []string{"in"},
		OutputPorts: []string{"true", "false"},
	}
}

func (f *conditionFactory) ValidateConfig(config map[string]types.Value) error {
	src, ok := config["expression"]
	if !ok {
		return types.ErrMissingRequiredField("expression")
	}
	expression, ok := src.AsString()
	if !ok {
		return types.ErrInvalidFieldValue("expression", src.Tag(), "must be a string")
	}
	if _, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables(), expr.AsBool()); err != nil {
		return fmt.Errorf("expr: %w", err)
	}
	return nil
}

func (f *conditionFactory) Create(config map[string]types.Value) (executor.Node, error) {
	expression, _ := config["expression"].AsString()
	return &conditionNode{expression: expression}, nil
}

type conditionNode struct {
	executor.NopNode
	expression string
}

func (n *conditionNode) TypeID() string { return ConditionTypeID }

func (n *conditionNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	in, err := ctx.RequireInput("in")
	if err != nil {
		return executor.NodeOutput{}, err
	}

	env := map[string]any{"input": toNative(in), "item": toNative(in)}
	if fields, ok := in.AsObject(); ok {
		for k, v := range fields {
			env[k] = toNative(v)
		}
	}

	program, err := expr.Compile(n.expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return executor.NodeOutput{}, types.ErrNodeConfiguration(err.Error())
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return executor.NodeOutput{}, types.ErrExecutionFailed(err)
	}

	port := "false"
	if b, _ := result.(bool); b {
		port = "true"
	}
	return executor.NodeOutput{Outputs: map[string]types.Value{port: in}}, nil
}
