package resolver

import (
	"testing"

	"github.com/dotcommander/stackforge/internal/registry"
	"github.com/dotcommander/stackforge/pkg/forge"
	"github.com/dotcommander/stackforge/pkg/sdk"
)

func testPlugin(t *testing.T, reg *registry.Registry, id string, category forge.Category, deps, conflicts []string) {
	t.Helper()
	base := sdk.NewBasePlugin(forge.Metadata{
		Name:     id,
		Version:  "1.0.0",
		Category: category,
	})
	base.SetDependencies(deps...)
	base.SetConflicts(conflicts...)
	if err := reg.Register(&base); err != nil {
		t.Fatalf("registering %s: %v", id, err)
	}
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

func TestResolveTopologicalOrder(t *testing.T) {
	reg := registry.New()
	testPlugin(t, reg, "db-plugin", forge.CategoryDatabase, nil, nil)
	testPlugin(t, reg, "orm-plugin", forge.CategoryORM, []string{"db-plugin"}, nil)
	testPlugin(t, reg, "auth-plugin", forge.CategoryAuth, []string{"orm-plugin"}, nil)
	testPlugin(t, reg, "ui-plugin", forge.CategoryUI, nil, nil)

	r := New(reg, nil)

	tests := []struct {
		name      string
		requested []string
	}{
		{name: "forward order", requested: []string{"db-plugin", "orm-plugin", "auth-plugin", "ui-plugin"}},
		{name: "reverse order", requested: []string{"ui-plugin", "auth-plugin", "orm-plugin", "db-plugin"}},
		{name: "duplicates collapse", requested: []string{"auth-plugin", "auth-plugin", "ui-plugin"}},
		{name: "transitive dependencies pulled in", requested: []string{"auth-plugin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.requested)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if len(res.Conflicts) != 0 {
				t.Fatalf("unexpected conflicts: %+v", res.Conflicts)
			}
			if len(res.Missing) != 0 {
				t.Fatalf("unexpected missing: %v", res.Missing)
			}

			// Every id appears after all of its transitive dependencies
			deps := map[string][]string{
				"orm-plugin":  {"db-plugin"},
				"auth-plugin": {"orm-plugin", "db-plugin"},
			}
			for id, required := range deps {
				idPos := indexOf(res.Order, id)
				if idPos == -1 {
					continue
				}
				for _, dep := range required {
					depPos := indexOf(res.Order, dep)
					if depPos == -1 || depPos > idPos {
						t.Errorf("order %v: %s must precede %s", res.Order, dep, id)
					}
				}
			}
			seen := map[string]bool{}
			for _, id := range res.Order {
				if seen[id] {
					t.Errorf("order %v: %s appears twice", res.Order, id)
				}
				seen[id] = true
			}
		})
	}
}

func TestResolveDependencyBeforeDependent(t *testing.T) {
	reg := registry.New()
	testPlugin(t, reg, "db-plugin", forge.CategoryDatabase, nil, nil)
	testPlugin(t, reg, "auth-plugin", forge.CategoryAuth, []string{"db-plugin"}, nil)

	res, err := New(reg, nil).Resolve([]string{"auth-plugin"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []string{"db-plugin", "auth-plugin"}
	if len(res.Order) != len(want) {
		t.Fatalf("order = %v, want %v", res.Order, want)
	}
	for i := range want {
		if res.Order[i] != want[i] {
			t.Fatalf("order = %v, want %v", res.Order, want)
		}
	}
}

func TestResolveConflictSymmetry(t *testing.T) {
	tests := []struct {
		name      string
		aDeclares []string
		bDeclares []string
		requested []string
	}{
		{name: "a declares b", aDeclares: []string{"plugin-b"}, requested: []string{"plugin-a", "plugin-b"}},
		{name: "b declares a", bDeclares: []string{"plugin-a"}, requested: []string{"plugin-a", "plugin-b"}},
		{name: "request order reversed", aDeclares: []string{"plugin-b"}, requested: []string{"plugin-b", "plugin-a"}},
		{name: "both declare", aDeclares: []string{"plugin-b"}, bDeclares: []string{"plugin-a"}, requested: []string{"plugin-a", "plugin-b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.New()
			testPlugin(t, reg, "plugin-a", forge.CategoryUI, nil, tt.aDeclares)
			testPlugin(t, reg, "plugin-b", forge.CategoryUI, nil, tt.bDeclares)

			res, err := New(reg, nil).Resolve(tt.requested)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}

			if len(res.Conflicts) != 1 {
				t.Fatalf("conflicts = %+v, want exactly one", res.Conflicts)
			}
			c := res.Conflicts[0]
			pair := map[string]bool{c.PluginA: true, c.PluginB: true}
			if !pair["plugin-a"] || !pair["plugin-b"] {
				t.Errorf("conflict pair = %s/%s, want plugin-a/plugin-b", c.PluginA, c.PluginB)
			}
			if c.Severity != SeverityError {
				t.Errorf("severity = %s, want error", c.Severity)
			}
			if !res.HasErrors() {
				t.Error("HasErrors() = false, want true")
			}
		})
	}
}

func TestResolveCycle(t *testing.T) {
	reg := registry.New()
	testPlugin(t, reg, "plugin-a", forge.CategoryUI, []string{"plugin-b"}, nil)
	testPlugin(t, reg, "plugin-b", forge.CategoryUI, []string{"plugin-a"}, nil)
	testPlugin(t, reg, "standalone", forge.CategoryTesting, nil, nil)

	res, err := New(reg, nil).Resolve([]string{"plugin-a", "plugin-b", "standalone"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	cycleReported := false
	for _, c := range res.Conflicts {
		if c.Reason == "Circular dependency detected" {
			cycleReported = true
		}
	}
	if !cycleReported {
		t.Fatalf("conflicts = %+v, want a circular dependency report", res.Conflicts)
	}

	if indexOf(res.Order, "plugin-a") != -1 || indexOf(res.Order, "plugin-b") != -1 {
		t.Errorf("order = %v, cyclic ids must be excluded", res.Order)
	}
	if indexOf(res.Order, "standalone") == -1 {
		t.Errorf("order = %v, unrelated id must still be ordered", res.Order)
	}
}

func TestResolveSelfReference(t *testing.T) {
	reg := registry.New()
	testPlugin(t, reg, "selfish", forge.CategoryUI, []string{"selfish"}, nil)

	res, err := New(reg, nil).Resolve([]string{"selfish"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Order) != 0 {
		t.Errorf("order = %v, want empty", res.Order)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Reason != "Circular dependency detected" {
		t.Errorf("conflicts = %+v, want one cycle report", res.Conflicts)
	}
}

func TestResolveMissing(t *testing.T) {
	reg := registry.New()
	testPlugin(t, reg, "present", forge.CategoryUI, nil, nil)

	res, err := New(reg, nil).Resolve([]string{"present", "ghost"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Missing) != 1 || res.Missing[0] != "ghost" {
		t.Errorf("missing = %v, want [ghost]", res.Missing)
	}
	if indexOf(res.Order, "present") == -1 {
		t.Errorf("order = %v, present id must still be ordered", res.Order)
	}
	if !res.HasErrors() {
		t.Error("HasErrors() = false, want true")
	}
}

func TestResolveMalformedInput(t *testing.T) {
	reg := registry.New()
	if _, err := New(reg, nil).Resolve([]string{"ok", "  "}); err == nil {
		t.Fatal("Resolve with blank id: expected error")
	}
}
