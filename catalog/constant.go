package catalog

import (
	"github.com/flowcore/engine/pkg/executor"
	"github.com/flowcore/engine/pkg/types"
)

// ConstantTypeID is the node_type a workflow declares to get a fixed,
// config-supplied value without depending on any input port — the
// graph's usual entry point (spec.md's root nodes draw from the
// workflow's inputs map directly; constant nodes draw from their own
// config instead).
const ConstantTypeID = "constant"

type constantFactory struct{}

// NewConstantFactory returns the factory for the "constant" node type:
// Config.value is emitted verbatim on the "value" output port.
func NewConstantFactory() executor.Factory { return constantFactory{} }

func (constantFactory) TypeID() string { return ConstantTypeID }

func (constantFactory) Metadata() executor.Metadata {
	return executor.Metadata{
		TypeID:      ConstantTypeID,
		Description: "Emits a fixed, config-supplied value.",
		Category:    "source",
		OutputPorts: []string{"value"},
	}
}

func (constantFactory) ValidateConfig(config map[string]types.Value) error {
	if _, ok := config["value"]; !ok {
		return types.ErrMissingRequiredField("value")
	}
	return nil
}

func (constantFactory) Create(config map[string]types.Value) (executor.Node, error) {
	return &constantNode{value: config["value"]}, nil
}

type constantNode struct {
	executor.NopNode
	value types.Value
}

func (n *constantNode) TypeID() string { return ConstantTypeID }

func (n *constantNode) Execute(ctx executor.NodeContext) (executor.NodeOutput, error) {
	return executor.NodeOutput{Outputs: map[string]types.Value{"value": n.value}}, nil
}
