package catalog

import (
	"strings"

	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// TransformTypeID is the node_type applying one of a fixed set of
// string operations to its "in" input. It needs no third-party
// library; it exists to give the catalog a dependency-free baseline
// alongside the expr-lang-backed nodes.
const TransformTypeID = "transform"

type transformOp string

const (
	opUppercase transformOp = "uppercase"
	opLowercase transformOp = "lowercase"
	opTrim      transformOp = "trim"
)

type transformFactory struct{}

// NewTransformFactory returns the factory for the "transform" node
// type: Config.op selects uppercase/lowercase/trim, applied to the
// string delivered on "in" and emitted on "out".
func NewTransformFactory() executor.Factory { return transformFactory{} }

func (transformFactory) TypeID() string { return TransformTypeID }

func (transformFactory) Metadata() executor.Metadata {
	return executor.Metadata{
		TypeID:      TransformTypeID,
		Description: "Applies a string operation (uppercase/lowercase/trim) to its input.",
		Category:    "transform",
		InputPorts:  []string{"in"},
		OutputPorts: []string{"out"},
	}
}

func (transformFactory) ValidateConfig(config map[string]types.Value) error {
	op, ok := config["op"]
	if !ok {
		return types.ErrMissingRequiredField("op")
	}
	opStr, ok := op.AsString()
	if !ok {
		return types.ErrInvalidFieldValue("op", op.Tag(), "must be a string")
	}
	switch transformOp(opStr) {
	case opUppercase, opLowercase, opTrim:
		return nil
	default:
		return types.ErrInvalidFieldValue("op", opStr, "must be one of uppercase, lowercase, trim")
	}
}

func (transformFactory) Create(config map[string]types.Value) (executor.Node, error) {
	opStr, _ := config["op"].AsString()
	return &transformNode{op: transformOp(opStr)}, nil
}

type transformNode struct {
	executor.NopNode
	op transformOp
}

func (n *transformNode) TypeID() string { return TransformTypeID }

func (n *transformNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	in, err := ctx.RequireInput("in")
	if err != nil {
		return executor.NodeOutput{}, err
	}
	s, ok := in.AsString()
	if !ok {
		return executor.NodeOutput{}, types.ErrInvalidInputType("in", "String", string(in.Tag()))
	}

	var out string
	switch n.op {
	case opUppercase:
		out = strings.ToUpper(s)
	case opLowercase:
		out = strings.ToLower(s)
	case opTrim:
		out = strings.TrimSpace(s)
	}

	return executor.NodeOutput{Outputs: map[string]types.Value{"out": types.String(out)}}, nil
}
