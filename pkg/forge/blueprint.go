package forge

// ActionType discriminates the blueprint action union
type ActionType string

const (
	ActionCreateFile      ActionType = "CREATE_FILE"
	ActionRunCommand      ActionType = "RUN_COMMAND"
	ActionInstallPackages ActionType = "INSTALL_PACKAGES"
	ActionAddScript       ActionType = "ADD_SCRIPT"
	ActionAddEnvVar       ActionType = "ADD_ENV_VAR"
	ActionEnhanceFile     ActionType = "ENHANCE_FILE"
	ActionMergeJSON       ActionType = "MERGE_JSON"
	ActionAddTSImport     ActionType = "ADD_TS_IMPORT"
	ActionAppendToFile    ActionType = "APPEND_TO_FILE"
	ActionPrependToFile   ActionType = "PREPEND_TO_FILE"
	ActionWrapConfig      ActionType = "WRAP_CONFIG"
	ActionExtendSchema    ActionType = "EXTEND_SCHEMA"
)

// vfsRequired is the single classification table consulted by both the
// analyzer and the executor. An action is VFS-required when it must read
// current file state before writing.
var vfsRequired = map[ActionType]bool{
	ActionEnhanceFile:   true,
	ActionMergeJSON:     true,
	ActionAddTSImport:   true,
	ActionAppendToFile:  true,
	ActionPrependToFile: true,
	ActionWrapConfig:    true,
	ActionExtendSchema:  true,
}

var knownActions = map[ActionType]bool{
	ActionCreateFile:      true,
	ActionRunCommand:      true,
	ActionInstallPackages: true,
	ActionAddScript:       true,
	ActionAddEnvVar:       true,
	ActionEnhanceFile:     true,
	ActionMergeJSON:       true,
	ActionAddTSImport:     true,
	ActionAppendToFile:    true,
	ActionPrependToFile:   true,
	ActionWrapConfig:      true,
	ActionExtendSchema:    true,
}

// RequiresVFS reports whether the action type must execute through the
// transactional overlay
func (t ActionType) RequiresVFS() bool {
	return vfsRequired[t]
}

// Known reports whether the action type is recognized by the executor
func (t ActionType) Known() bool {
	return knownActions[t]
}

// Blueprint is an ordered list of file actions owned by exactly one
// plugin. It is immutable template data and is never mutated during
// execution.
type Blueprint struct {
	ID      string            `json:"id" yaml:"id" validate:"required"`
	Name    string            `json:"name" yaml:"name"`
	Actions []BlueprintAction `json:"actions" yaml:"actions" validate:"required,dive"`
}

// Transform is one edit step of an ENHANCE_FILE action. Content is
// inserted after the first line containing Marker, or replaces the first
// occurrence of Marker when Replace is set.
type Transform struct {
	Marker  string `json:"marker" yaml:"marker"`
	Content string `json:"content" yaml:"content"`
	Replace bool   `json:"replace" yaml:"replace"`
}

// BlueprintAction is the tagged variant over all action kinds. Type
// selects the variant; the remaining fields are read per variant.
type BlueprintAction struct {
	Type ActionType `json:"type" yaml:"type" validate:"required"`

	// Path is the project-relative target for file actions
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Content carries file content for CREATE_FILE, APPEND_TO_FILE,
	// PREPEND_TO_FILE and the schema block for EXTEND_SCHEMA
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Command fields for RUN_COMMAND
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	WorkDir string   `json:"workdir,omitempty" yaml:"workdir,omitempty"`

	// Package fields for INSTALL_PACKAGES
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`
	Dev      bool     `json:"dev,omitempty" yaml:"dev,omitempty"`

	// Script fields for ADD_SCRIPT (Path defaults to package.json)
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Script string `json:"script,omitempty" yaml:"script,omitempty"`

	// Env fields for ADD_ENV_VAR (Path defaults to .env)
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Merge is the deep-merge patch for MERGE_JSON
	Merge map[string]any `json:"merge,omitempty" yaml:"merge,omitempty"`

	// Import fields for ADD_TS_IMPORT: the import clause (may be empty
	// for side-effect imports) and the module specifier
	ImportClause string `json:"import_clause,omitempty" yaml:"import_clause,omitempty"`
	ImportFrom   string `json:"import_from,omitempty" yaml:"import_from,omitempty"`

	// Wrapper fields for WRAP_CONFIG
	Wrapper       string `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
	WrapperImport string `json:"wrapper_import,omitempty" yaml:"wrapper_import,omitempty"`

	// Transforms for ENHANCE_FILE
	Transforms []Transform `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}
