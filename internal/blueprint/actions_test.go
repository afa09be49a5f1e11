package blueprint

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

func TestMergeJSON(t *testing.T) {
	tests := []struct {
		name    string
		current string
		patch   map[string]any
		want    map[string]any
		wantErr error
	}{
		{
			name:    "merge into existing object",
			current: `{"compilerOptions":{"strict":true},"include":["src"]}`,
			patch:   map[string]any{"compilerOptions": map[string]any{"target": "es2022"}},
			want: map[string]any{
				"compilerOptions": map[string]any{"strict": true, "target": "es2022"},
				"include":         []any{"src"},
			},
		},
		{
			name:    "override scalar",
			current: `{"name":"old"}`,
			patch:   map[string]any{"name": "new"},
			want:    map[string]any{"name": "new"},
		},
		{
			name:  "absent file starts empty",
			patch: map[string]any{"a": 1.0},
			want:  map[string]any{"a": 1.0},
		},
		{
			name:    "malformed current content",
			current: `{not json`,
			patch:   map[string]any{"a": 1.0},
			wantErr: forgeerr.ErrParse,
		},
		{
			name:    "non-object current content",
			current: `[1,2,3]`,
			patch:   map[string]any{"a": 1.0},
			wantErr: forgeerr.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mergeJSON([]byte(tt.current), tt.patch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("mergeJSON error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("mergeJSON: %v", err)
			}

			var parsed map[string]any
			if err := json.Unmarshal(got, &parsed); err != nil {
				t.Fatalf("result not valid JSON: %v", err)
			}
			wantBytes, _ := json.Marshal(tt.want)
			gotBytes, _ := json.Marshal(parsed)
			if string(wantBytes) != string(gotBytes) {
				t.Errorf("merged = %s, want %s", gotBytes, wantBytes)
			}
		})
	}
}

func TestSetManifestScript(t *testing.T) {
	current := []byte(`{"name":"demo","scripts":{"build":"tsc"}}`)

	out, err := setManifestScript(current, "test", "vitest run")
	if err != nil {
		t.Fatalf("setManifestScript: %v", err)
	}

	var manifest struct {
		Name    string            `json:"name"`
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(out, &manifest); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if manifest.Name != "demo" {
		t.Errorf("name = %s, existing fields must survive", manifest.Name)
	}
	if manifest.Scripts["build"] != "tsc" || manifest.Scripts["test"] != "vitest run" {
		t.Errorf("scripts = %v", manifest.Scripts)
	}

	// Dotted script names stay one key
	out, err = setManifestScript(out, "db.push", "prisma db push")
	if err != nil {
		t.Fatalf("setManifestScript dotted: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(out, &raw); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	scripts := raw["scripts"].(map[string]any)
	if scripts["db.push"] != "prisma db push" {
		t.Errorf("scripts = %v, want db.push key", scripts)
	}

	if _, err := setManifestScript([]byte("nonsense"), "x", "y"); !errors.Is(err, forgeerr.ErrParse) {
		t.Errorf("invalid manifest error = %v, want ErrParse", err)
	}
}

func TestSetEnvVar(t *testing.T) {
	out, err := setEnvVar(nil, "DATABASE_URL", "postgres://localhost/app")
	if err != nil {
		t.Fatalf("setEnvVar fresh: %v", err)
	}
	out, err = setEnvVar(out, "API_KEY", "secret")
	if err != nil {
		t.Fatalf("setEnvVar second: %v", err)
	}
	out, err = setEnvVar(out, "API_KEY", "rotated")
	if err != nil {
		t.Fatalf("setEnvVar overwrite: %v", err)
	}

	text := string(out)
	if !strings.Contains(text, "DATABASE_URL") || !strings.Contains(text, "rotated") {
		t.Errorf("env file = %q", text)
	}
	if strings.Contains(text, `"secret"`) || strings.Contains(text, "=secret") {
		t.Errorf("env file = %q, overwritten value must not remain", text)
	}
}

func TestAppendPrepend(t *testing.T) {
	current := []byte("line1\n")

	appended := appendContent(current, "line2")
	if string(appended) != "line1\nline2\n" {
		t.Errorf("append = %q", appended)
	}

	prepended := prependContent(current, "line0")
	if string(prepended) != "line0\nline1\n" {
		t.Errorf("prepend = %q", prepended)
	}

	fresh := appendContent(nil, "only")
	if string(fresh) != "only\n" {
		t.Errorf("append to empty = %q", fresh)
	}

	noNewline := appendContent([]byte("tail"), "next")
	if string(noNewline) != "tail\nnext\n" {
		t.Errorf("append after missing newline = %q", noNewline)
	}
}

func TestAddTSImport(t *testing.T) {
	source := "import { a } from './a';\nimport b from 'b';\n\nexport const x = 1;\n"

	out, err := addTSImport([]byte(source), "{ env }", "./env")
	if err != nil {
		t.Fatalf("addTSImport: %v", err)
	}
	lines := strings.Split(string(out), "\n")
	if lines[2] != "import { env } from './env';" {
		t.Errorf("lines = %q, new import must follow the last import", lines)
	}

	// Duplicate specifier is a no-op
	again, err := addTSImport(out, "{ env }", "./env")
	if err != nil {
		t.Fatalf("addTSImport duplicate: %v", err)
	}
	if string(again) != string(out) {
		t.Error("duplicate import modified the file")
	}

	// No existing imports: insert at top
	top, err := addTSImport([]byte("export const y = 2;\n"), "", "reflect-metadata")
	if err != nil {
		t.Fatalf("addTSImport top: %v", err)
	}
	if !strings.HasPrefix(string(top), "import 'reflect-metadata';\n") {
		t.Errorf("top = %q", top)
	}

	if _, err := addTSImport(nil, "x", ""); err == nil {
		t.Error("missing specifier: expected error")
	}
}

func TestWrapConfig(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wrapper string
		imp     string
		want    string
		wantErr bool
	}{
		{
			name:    "export default",
			source:  "const config = { reactStrictMode: true };\nexport default config;\n",
			wrapper: "withSentryConfig",
			imp:     `import { withSentryConfig } from '@sentry/nextjs';`,
			want:    "export default withSentryConfig(config);",
		},
		{
			name:    "module exports",
			source:  "module.exports = { images: {} };\n",
			wrapper: "withPlugins",
			want:    "module.exports = withPlugins({ images: {} });",
		},
		{
			name:    "semicolon inside string does not end the expression",
			source:  "module.exports = { env: 'a;b' };\n",
			wrapper: "withPlugins",
			want:    "module.exports = withPlugins({ env: 'a;b' });",
		},
		{
			name:    "no export to wrap",
			source:  "const config = {};\n",
			wrapper: "wrap",
			wantErr: true,
		},
		{
			name:   "missing wrapper name",
			source: "export default {};\n",
			// empty wrapper
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := wrapConfig([]byte(tt.source), tt.wrapper, tt.imp)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("wrapConfig: %v", err)
			}
			if !strings.Contains(string(out), tt.want) {
				t.Errorf("wrapped = %q, want to contain %q", out, tt.want)
			}
			if tt.imp != "" && !strings.HasPrefix(string(out), tt.imp) {
				t.Errorf("wrapped = %q, wrapper import must be prepended", out)
			}
		})
	}
}

func TestWrapConfigLeavesTrailingStatements(t *testing.T) {
	source := "module.exports = { reactStrictMode: true };\nmodule.exports.poweredByHeader = false;\n"

	out, err := wrapConfig([]byte(source), "withSentryConfig", "")
	if err != nil {
		t.Fatalf("wrapConfig: %v", err)
	}
	if !strings.Contains(string(out), "module.exports = withSentryConfig({ reactStrictMode: true });") {
		t.Errorf("wrapped = %q", out)
	}
	if !strings.Contains(string(out), "\nmodule.exports.poweredByHeader = false;") {
		t.Errorf("wrapped = %q, statement after the export must stay outside the wrapper", out)
	}
	if strings.Contains(string(out), "poweredByHeader = false;)") {
		t.Errorf("wrapped = %q, trailing statement folded into the wrapper", out)
	}
}

func TestExtendSchema(t *testing.T) {
	schema := []byte("model User {\n  id String @id\n}\n")
	block := "model Session {\n  id String @id\n}"

	out := extendSchema(schema, block)
	if !strings.Contains(string(out), "model Session {") {
		t.Errorf("schema = %q", out)
	}
	if !strings.Contains(string(out), "}\n\nmodel Session") {
		t.Errorf("schema = %q, blocks must be separated by a blank line", out)
	}

	// Re-applying is a no-op
	again := extendSchema(out, block)
	if string(again) != string(out) {
		t.Error("duplicate block appended")
	}

	fresh := extendSchema(nil, block)
	if !strings.HasPrefix(string(fresh), "model Session {") {
		t.Errorf("fresh schema = %q", fresh)
	}
}

func TestEnhanceFile(t *testing.T) {
	source := []byte("alpha\n// markers\nomega\n")

	out, err := enhanceFile(source, []forge.Transform{
		{Marker: "// markers", Content: "beta"},
		{Marker: "omega", Content: "OMEGA", Replace: true},
	})
	if err != nil {
		t.Fatalf("enhanceFile: %v", err)
	}
	want := "alpha\n// markers\nbeta\nOMEGA\n"
	if string(out) != want {
		t.Errorf("enhanced = %q, want %q", out, want)
	}

	if _, err := enhanceFile(source, []forge.Transform{{Marker: "missing", Content: "x"}}); err == nil {
		t.Error("missing marker: expected error")
	}
	if _, err := enhanceFile(source, []forge.Transform{{Content: "x"}}); err == nil {
		t.Error("empty marker: expected error")
	}
}
