package executor

import (
	"testing"

	"github.com/flowcore/engine/pkg/types"
)

type stubFactory struct {
	id string
}

func (f *stubFactory) TypeID() string       { return f.id }
func (f *stubFactory) Metadata() Metadata   { return Metadata{TypeID: f.id, Category: "test"} }
func (f *stubFactory) ValidateConfig(map[string]types.Value) error { return nil }
func (f *stubFactory) Create(map[string]types.Value) (Node, error) {
	return &stubNode{id: f.id}, nil
}

type stubNode struct {
	NopNode
	id string
}

func (n *stubNode) TypeID() string { return n.id }
func (n *stubNode) Execute(ctx NodeContext) (NodeOutput, error) {
	return NodeOutput{}, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&stubFactory{id: "a"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !reg.Has("a") {
		t.Error("expected Has(\"a\") to be true after Register")
	}
	if _, ok := reg.Lookup("a"); !ok {
		t.Error("expected Lookup(\"a\") to succeed")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("expected Lookup of an unregistered type to fail")
	}
}

func TestRegistry_Register_RejectsDuplicateType(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&stubFactory{id: "a"}); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if err := reg.Register(&stubFactory{id: "a"}); err == nil {
		t.Fatal("expected an error registering a duplicate type id")
	}
}

func TestRegistry_MustRegister_PanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&stubFactory{id: "a"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected MustRegister to panic on duplicate type id")
		}
	}()
	reg.MustRegister(&stubFactory{id: "a"})
}

func TestRegistry_Create_UnknownTypeReturnsTypedError(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("n1", "missing", nil)
	if err == nil {
		t.Fatal("expected an error creating an unregistered node type")
	}
	if _, ok := err.(*types.UnknownNodeTypeError); !ok {
		t.Errorf("expected *types.UnknownNodeTypeError, got %T: %v", err, err)
	}
}

func TestRegistry_Create_BuildsNodeViaFactory(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&stubFactory{id: "a"})

	node, err := reg.Create("n1", "a", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if node.TypeID() != "a" {
		t.Errorf("expected node type %q, got %q", "a", node.TypeID())
	}
}

func TestRegistry_List_SortedByTypeID(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(&stubFactory{id: "zeta"})
	reg.MustRegister(&stubFactory{id: "alpha"})
	reg.MustRegister(&stubFactory{id: "mid"})

	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(list))
	}
	want := []string{"alpha", "mid", "zeta"}
	for i, id := range want {
		if list[i].TypeID != id {
			t.Errorf("List()[%d].TypeID = %q, want %q", i, list[i].TypeID, id)
		}
	}
}
