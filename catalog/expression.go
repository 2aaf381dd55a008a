package catalog

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// ExpressionTypeID is the node_type that evaluates an expr-lang/expr
// expression against its delivered "in" input, re-grounded on the
// teacher's ExprEngine: the input is bound as "input" and "item" (and,
// for an Object, each of its fields as a top-level variable) rather than
// the teacher's node/variables/context triad.
const ExpressionTypeID = "expression"

type expressionFactory struct {
	mu    sync.Mutex
	cache map[string]*vm.Program
}

// NewExpressionFactory returns the factory for the "expression" node
// type. One factory instance's compiled-program cache is shared across
// every node it creates, the same caching the teacher's ExprEngine does
// per engine instance.
func NewExpressionFactory() executor.Factory {
	return &expressionFactory{cache: make(map[string]*vm.Program)}
}

func (f *expressionFactory) TypeID() string { return ExpressionTypeID }

func (f *expressionFactory) Metadata() executor.Metadata {
	return executor.Metadata{
		TypeID:      ExpressionTypeID,
		Description: "Evaluates an expr-lang expression against delivered inputs.",
		Category:    "transform",
		InputPorts:  []string{"*"},
		OutputPorts: []string{"result"},
	}
}

func (f *expressionFactory) ValidateConfig(config map[string]types.Value) error {
	src, ok := config["expression"]
	if !ok {
		return types.ErrMissingRequiredField("expression")
	}
	expression, ok := src.AsString()
	if !ok {
		return types.ErrInvalidFieldValue("expression", src.Tag(), "must be a string")
	}
	if _, err := f.compile(expression); err != nil {
		return fmt.Errorf("expr: %w", err)
	}
	return nil
}

func (f *expressionFactory) Create(config map[string]types.Value) (executor.Node, error) {
	expression, _ := config["expression"].AsString()
	return &expressionNode{factory: f, expression: expression}, nil
}

// compile returns expression's cached *vm.Program, compiling and
// caching it on first use.
func (f *expressionFactory) compile(expression string) (*vm.Program, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if program, ok := f.cache[expression]; ok {
		return program, nil
	}
	program, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	f.cache[expression] = program
	return program, nil
}

type expressionNode struct {
	executor.NopNode
	factory    *expressionFactory
	expression string
}

func (n *expressionNode) TypeID() string { return ExpressionTypeID }

// Execute evaluates the compiled expression with the node's single
// "in" input bound to both "input" and "item" (matching the teacher's
// ExprEngine naming), plus every field of that input spread as a
// top-level variable when it is an Object — the closest the Node
// Contract's named-port model gets to the teacher's free-form
// variables bag.
func (n *expressionNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	program, err := n.factory.compile(n.expression)
	if err != nil {
		return executor.NodeOutput{}, types.ErrNodeConfiguration(err.Error())
	}

	env := map[string]any{}
	if in, ok := ctx.OptionalInput("in"); ok {
		native := toNative(in)
		env["input"] = native
		env["item"] = native
		if fields, ok := in.AsObject(); ok {
			for k, v := range fields {
				env[k] = toNative(v)
			}
		}
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return executor.NodeOutput{}, types.ErrExecutionFailed(err)
	}

	return executor.NodeOutput{Outputs: map[string]types.Value{"result": fromNative(output)}}, nil
}
