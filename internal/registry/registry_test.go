package registry

import (
	"errors"
	"testing"

	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
	"github.com/dotcommander/stackforge/pkg/sdk"
)

func newPlugin(meta forge.Metadata) forge.Plugin {
	base := sdk.NewBasePlugin(meta)
	return &base
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := New()
	meta := forge.Metadata{Name: "postgres", Version: "1.0.0", Category: forge.CategoryDatabase}

	if err := reg.Register(newPlugin(meta)); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := reg.Register(newPlugin(meta))
	if !errors.Is(err, forgeerr.ErrDuplicatePlugin) {
		t.Fatalf("second Register = %v, want ErrDuplicatePlugin", err)
	}
}

func TestRegisterValidatesMetadata(t *testing.T) {
	tests := []struct {
		name    string
		meta    forge.Metadata
		wantErr bool
	}{
		{
			name: "valid",
			meta: forge.Metadata{Name: "stripe", Version: "2.1.0", Category: forge.CategoryPayment},
		},
		{
			name:    "missing name",
			meta:    forge.Metadata{Version: "1.0.0", Category: forge.CategoryUI},
			wantErr: true,
		},
		{
			name:    "bad version",
			meta:    forge.Metadata{Name: "x", Version: "not-semver", Category: forge.CategoryUI},
			wantErr: true,
		},
		{
			name:    "missing category",
			meta:    forge.Metadata{Name: "x", Version: "1.0.0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Register(newPlugin(tt.meta))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGet(t *testing.T) {
	reg := New()
	meta := forge.Metadata{Name: "prisma", Version: "1.0.0", Category: forge.CategoryORM}
	if err := reg.Register(newPlugin(meta)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, ok := reg.Get("prisma"); !ok {
		t.Error("Get(prisma) not found")
	}
	if _, ok := reg.Get("drizzle"); ok {
		t.Error("Get(drizzle) found unexpected plugin")
	}
}

func TestByCategory(t *testing.T) {
	reg := New()
	for _, meta := range []forge.Metadata{
		{Name: "postgres", Version: "1.0.0", Category: forge.CategoryDatabase},
		{Name: "mysql", Version: "1.0.0", Category: forge.CategoryDatabase},
		{Name: "tailwind", Version: "1.0.0", Category: forge.CategoryUI},
	} {
		if err := reg.Register(newPlugin(meta)); err != nil {
			t.Fatalf("Register %s: %v", meta.Name, err)
		}
	}

	dbs := reg.ByCategory(forge.CategoryDatabase)
	if len(dbs) != 2 {
		t.Fatalf("ByCategory(database) returned %d plugins, want 2", len(dbs))
	}
	// Sorted by id
	if dbs[0].Metadata().Name != "mysql" || dbs[1].Metadata().Name != "postgres" {
		t.Errorf("ByCategory order = %s, %s", dbs[0].Metadata().Name, dbs[1].Metadata().Name)
	}
	if got := reg.ByCategory(forge.CategoryBlockchain); len(got) != 0 {
		t.Errorf("ByCategory(blockchain) = %d plugins, want 0", len(got))
	}
}

func TestSearch(t *testing.T) {
	reg := New()
	for _, meta := range []forge.Metadata{
		{Name: "stripe", Version: "1.0.0", Category: forge.CategoryPayment, Description: "Stripe payments", Tags: []string{"billing"}},
		{Name: "resend", Version: "1.0.0", Category: forge.CategoryEmail, Description: "Transactional email"},
		{Name: "sentry", Version: "1.0.0", Category: forge.CategoryMonitoring, Tags: []string{"errors", "APM"}},
	} {
		if err := reg.Register(newPlugin(meta)); err != nil {
			t.Fatalf("Register %s: %v", meta.Name, err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "STRIPE", want: []string{"stripe"}},
		{query: "billing", want: []string{"stripe"}},
		{query: "email", want: []string{"resend"}},
		{query: "apm", want: []string{"sentry"}},
		{query: "s", want: []string{"resend", "sentry", "stripe"}},
		{query: "nothing-matches", want: nil},
		{query: "  ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := reg.Search(tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("Search(%q) returned %d plugins, want %d", tt.query, len(got), len(tt.want))
			}
			for i, plugin := range got {
				if plugin.Metadata().Name != tt.want[i] {
					t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, plugin.Metadata().Name, tt.want[i])
				}
			}
		})
	}
}

func TestAllAndCount(t *testing.T) {
	reg := New()
	if reg.Count() != 0 {
		t.Fatalf("Count = %d, want 0", reg.Count())
	}
	for _, name := range []string{"b-plugin", "a-plugin"} {
		meta := forge.Metadata{Name: name, Version: "1.0.0", Category: forge.CategoryTesting}
		if err := reg.Register(newPlugin(meta)); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	all := reg.All()
	if len(all) != 2 || reg.Count() != 2 {
		t.Fatalf("All = %d plugins, Count = %d, want 2", len(all), reg.Count())
	}
	if all[0].Metadata().Name != "a-plugin" {
		t.Errorf("All not sorted by id: first = %s", all[0].Metadata().Name)
	}
}
