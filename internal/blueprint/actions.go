package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dotcommander/stackforge/pkg/forge"
	forgeerr "github.com/dotcommander/stackforge/pkg/forge/errors"
)

// Content transforms for the actions that rewrite existing files. Each
// takes current content (nil when the file is absent) and returns the
// new content. They are pure so both execution modes share them.

// mergeJSON deep-merges a patch onto the current JSON document. An
// absent file merges onto an empty object; non-object content is a
// parse error.
func mergeJSON(current []byte, patch map[string]any) ([]byte, error) {
	dst := map[string]any{}
	if len(bytes.TrimSpace(current)) > 0 {
		if err := json.Unmarshal(current, &dst); err != nil {
			return nil, fmt.Errorf("%w: %v", forgeerr.ErrParse, err)
		}
	}

	if err := mergo.Merge(&dst, patch, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging patch: %w", err)
	}

	out, err := json.MarshalIndent(dst, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding merged document: %w", err)
	}
	return append(out, '\n'), nil
}

// setManifestScript sets scripts.<name> in a JSON manifest, preserving
// the rest of the document. An absent manifest starts from an empty
// object.
func setManifestScript(current []byte, name, command string) ([]byte, error) {
	doc := current
	if len(bytes.TrimSpace(doc)) == 0 {
		doc = []byte("{}\n")
	} else if !json.Valid(doc) {
		return nil, fmt.Errorf("%w: manifest is not valid JSON", forgeerr.ErrParse)
	}

	// Escape path separators so script names like "build.watch" stay
	// one key
	escaped := strings.ReplaceAll(name, ".", `\.`)
	if existing := gjson.GetBytes(doc, "scripts."+escaped); existing.Exists() && existing.String() == command {
		return doc, nil
	}
	out, err := sjson.SetBytes(doc, "scripts."+escaped, command)
	if err != nil {
		return nil, fmt.Errorf("setting script %s: %w", name, err)
	}
	return out, nil
}

// setEnvVar overwrites one key in a dotenv file, keeping the other
// entries
func setEnvVar(current []byte, key, value string) ([]byte, error) {
	env := map[string]string{}
	if len(bytes.TrimSpace(current)) > 0 {
		parsed, err := godotenv.Unmarshal(string(current))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", forgeerr.ErrParse, err)
		}
		env = parsed
	}

	env[key] = value
	out, err := godotenv.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encoding env file: %w", err)
	}
	return []byte(out + "\n"), nil
}

// appendContent adds content at the end of a file, on its own line
func appendContent(current []byte, content string) []byte {
	if len(current) == 0 {
		return []byte(content + "\n")
	}
	out := current
	if !bytes.HasSuffix(out, []byte("\n")) {
		out = append(out, '\n')
	}
	return append(out, []byte(content+"\n")...)
}

// prependContent adds content at the start of a file, on its own line
func prependContent(current []byte, content string) []byte {
	return append([]byte(content+"\n"), current...)
}

// addTSImport inserts an import statement after the last existing
// import, deduplicating by module specifier
func addTSImport(current []byte, clause, from string) ([]byte, error) {
	if from == "" {
		return nil, fmt.Errorf("import module specifier is required")
	}

	stmt := fmt.Sprintf("import '%s';", from)
	if clause != "" {
		stmt = fmt.Sprintf("import %s from '%s';", clause, from)
	}

	lines := strings.Split(string(current), "\n")
	lastImport := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import'") {
			continue
		}
		lastImport = i
		if strings.Contains(trimmed, "'"+from+"'") || strings.Contains(trimmed, `"`+from+`"`) {
			// Already imported
			return current, nil
		}
	}

	if lastImport == -1 {
		return []byte(stmt + "\n" + string(current)), nil
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:lastImport+1]...)
	out = append(out, stmt)
	out = append(out, lines[lastImport+1:]...)
	return []byte(strings.Join(out, "\n")), nil
}

// configExportMarkers are the export forms wrapConfig recognizes
var configExportMarkers = []string{"export default ", "module.exports = "}

// wrapConfig wraps the exported config expression in wrapper(...) and
// prepends the wrapper's own import when given. The expression ends at
// the first semicolon outside brackets and string literals, so
// statements after the export stay outside the wrapper.
func wrapConfig(current []byte, wrapper, wrapperImport string) ([]byte, error) {
	if wrapper == "" {
		return nil, fmt.Errorf("wrapper name is required")
	}

	text := string(current)
	marker := ""
	idx := -1
	for _, m := range configExportMarkers {
		if i := strings.Index(text, m); i >= 0 {
			marker, idx = m, i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("no config export found to wrap")
	}

	exprStart := idx + len(marker)
	end := exprEnd(text[exprStart:])
	expr := strings.TrimRight(text[exprStart:exprStart+end], "\n")
	rest := text[exprStart+end:]
	hadSemicolon := strings.HasSuffix(expr, ";")
	expr = strings.TrimSuffix(expr, ";")

	wrapped := wrapper + "(" + expr + ")"
	if hadSemicolon {
		wrapped += ";"
	}

	out := text[:exprStart] + wrapped + rest
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if wrapperImport != "" && !strings.Contains(out, wrapperImport) {
		out = wrapperImport + "\n" + out
	}
	return []byte(out), nil
}

// exprEnd returns the length of the leading expression in src,
// including its terminating semicolon. Brackets and string literals
// (single, double, template) are tracked so semicolons inside them do
// not end the expression. Without a top-level semicolon the whole
// remainder is the expression.
func exprEnd(src string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case ';':
			if depth <= 0 {
				return i + 1
			}
		}
	}
	return len(src)
}

// extendSchema appends a model or enum block to a schema file,
// separated by a blank line. The append is skipped when the block's
// first line is already present.
func extendSchema(current []byte, block string) []byte {
	trimmedBlock := strings.TrimSpace(block)
	if trimmedBlock == "" {
		return current
	}

	firstLine := trimmedBlock
	if i := strings.IndexByte(trimmedBlock, '\n'); i >= 0 {
		firstLine = trimmedBlock[:i]
	}
	if strings.Contains(string(current), firstLine) {
		return current
	}

	if len(bytes.TrimSpace(current)) == 0 {
		return []byte(trimmedBlock + "\n")
	}
	out := bytes.TrimRight(current, "\n")
	return append(out, []byte("\n\n"+trimmedBlock+"\n")...)
}

// enhanceFile applies ordered text transforms to existing content. A
// missing marker fails the action.
func enhanceFile(current []byte, transforms []forge.Transform) ([]byte, error) {
	text := string(current)
	for i, tr := range transforms {
		if tr.Marker == "" {
			return nil, fmt.Errorf("transform %d: marker is required", i)
		}
		if tr.Replace {
			if !strings.Contains(text, tr.Marker) {
				return nil, fmt.Errorf("transform %d: marker %q not found", i, tr.Marker)
			}
			text = strings.Replace(text, tr.Marker, tr.Content, 1)
			continue
		}

		lines := strings.Split(text, "\n")
		inserted := false
		for j, line := range lines {
			if strings.Contains(line, tr.Marker) {
				rest := append([]string{}, lines[j+1:]...)
				lines = append(lines[:j+1], tr.Content)
				lines = append(lines, rest...)
				inserted = true
				break
			}
		}
		if !inserted {
			return nil, fmt.Errorf("transform %d: marker %q not found", i, tr.Marker)
		}
		text = strings.Join(lines, "\n")
	}
	return []byte(text), nil
}
