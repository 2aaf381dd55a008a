package catalog

import "github.com/flowcore/engine/pkg/executor"

// Register adds every node type this package defines to reg. Intended
// for the demo command and integration tests that want the whole
// catalog at once rather than hand-picking factories.
func Register(reg *executor.Registry) error {
	factories := []executor.Factory{
		NewConstantFactory(),
		NewExpressionFactory(),
		NewConditionFactory(),
		NewTransformFactory(),
		NewFlakyFactory(),
	}
	for _, f := range factories {
		if err := reg.Register(f); err != nil {
			return err
		}
	}
	return nil
}
