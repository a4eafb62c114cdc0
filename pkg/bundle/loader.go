package bundle

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
)

// Bundle file names, all required.
const (
	FileManifest   = "manifest.json"
	FileRules      = "rules.json"
	FileReferences = "references.json"
	FileProcesses  = "processes.json"
	FileOverlays   = "overlays.json"
	FileRoles      = "roles.json"
	FileTemplates  = "templates.json"
	FileCostModel  = "cost_model.json"
)

// RequiredFiles lists every file a bundle directory must contain.
var RequiredFiles = []string{
	FileManifest,
	FileRules,
	FileReferences,
	FileProcesses,
	FileOverlays,
	FileRoles,
	FileTemplates,
	FileCostModel,
}

// Table wrappers matching the on-disk JSON layout.
type rulesFile struct {
	Packs []Pack `json:"packs"`
	Rules []Rule `json:"rules"`
}

type referencesFile struct {
	References []Reference `json:"references"`
}

type processesFile struct {
	ProcessFamilies []ProcessFamily `json:"process_families"`
	Heuristics      []Heuristic     `json:"heuristics"`
}

type overlaysFile struct {
	Overlays []Overlay `json:"overlays"`
}

type rolesFile struct {
	Roles []Role `json:"roles"`
}

type templatesFile struct {
	Templates []ReportTemplate `json:"templates"`
}

// Load reads, schema-validates, and cross-validates a bundle directory.
// Every violation found is accumulated; on any violation the load fails as
// a whole with a *ValidationError and no bundle is returned.
func Load(dir string) (*Bundle, error) {
	logger := slog.Default().With("component", "bundle.loader")
	violations := &violationList{}

	b := &Bundle{}

	readTable(dir, FileManifest, &b.Manifest, violations)

	var rules rulesFile
	readTable(dir, FileRules, &rules, violations)
	b.Packs = rules.Packs
	b.Rules = rules.Rules

	var refs referencesFile
	readTable(dir, FileReferences, &refs, violations)
	b.References = refs.References

	var processes processesFile
	readTable(dir, FileProcesses, &processes, violations)
	b.Processes = processes.ProcessFamilies
	b.Heuristics = processes.Heuristics

	var overlays overlaysFile
	readTable(dir, FileOverlays, &overlays, violations)
	b.Overlays = overlays.Overlays

	var roles rolesFile
	readTable(dir, FileRoles, &roles, violations)
	b.Roles = roles.Roles

	var templates templatesFile
	readTable(dir, FileTemplates, &templates, violations)
	b.Templates = templates.Templates

	readTable(dir, FileCostModel, &b.CostModel, violations)

	// A missing or unparsable file makes schema and cross checks noise;
	// report the file-level violations alone.
	if violations.hasErrors() {
		return nil, violations.toError(dir)
	}

	b.buildIndexes()

	validateSchema(b, violations)
	if !violations.hasErrors() {
		validateCrossReferences(b, violations)
		validateManifestCounts(b, violations)
	}

	if violations.hasErrors() {
		return nil, violations.toError(dir)
	}

	logger.Info("bundle loaded",
		"dir", dir,
		"version", b.Manifest.BundleVersion,
		"rules", len(b.Rules),
		"packs", len(b.Packs),
		"references", len(b.References),
		"processes", len(b.Processes),
	)

	return b, nil
}

// readTable reads and unmarshals one bundle file, recording violations for
// a missing file or invalid JSON.
func readTable(dir, file string, out any, violations *violationList) {
	path := filepath.Join(dir, file)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			violations.add(ViolationMissingFile, file, "", "required bundle file not found")
			return
		}
		violations.add(ViolationMissingFile, file, "", "failed to read bundle file: %v", err)
		return
	}

	if err := json.Unmarshal(data, out); err != nil {
		violations.add(ViolationBadJSON, file, "", "invalid JSON: %v", err)
	}
}
