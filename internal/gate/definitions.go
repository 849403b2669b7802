package gate

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/ninegate/pkg/models"
)

// DefinitionsFile is the optional per-project gate customization file.
const DefinitionsFile = ".ninegate/gates.yaml"

// Definition describes the exit criteria of one checkpoint.
type Definition struct {
	// RequiresProof gates approval on a passing proof batch.
	RequiresProof bool `yaml:"requires_proof"`
	// ProofTypes lists the evidence expected at this checkpoint.
	ProofTypes []models.ProofType `yaml:"proof_types"`
}

// Definitions maps checkpoints to their exit criteria. Checkpoints without
// an entry require no proof.
type Definitions struct {
	byType map[string]Definition
}

// DefaultDefinitions returns the built-in gate criteria: proof is demanded
// at the exit checkpoint of every stage that produces machine-checkable
// evidence.
func DefaultDefinitions() *Definitions {
	return &Definitions{byType: map[string]Definition{
		"G2_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofBuildOutput, models.ProofTestOutput,
		}},
		"G4_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofCoverageReport,
		}},
		"G5_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofLintOutput, models.ProofSecurityScan,
		}},
		"G6_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofTestOutput,
		}},
		"G7_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofSmokeTest, models.ProofDeploymentLog,
		}},
		"G8_COMPLETE": {RequiresProof: true, ProofTypes: []models.ProofType{
			models.ProofLighthouseReport, models.ProofAccessibilityScan,
		}},
	}}
}

// LoadDefinitions reads gates.yaml from a project workspace, overlaying
// the built-in defaults. A missing file returns the defaults unchanged.
func LoadDefinitions(workspace string) (*Definitions, error) {
	defs := DefaultDefinitions()

	path := filepath.Join(workspace, DefinitionsFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read gate definitions: %w", err)
	}

	var file struct {
		Gates map[string]Definition `yaml:"gates"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gate definitions: %w", err)
	}

	for key, def := range file.Gates {
		if _, err := models.ParseGateType(key); err != nil {
			return nil, fmt.Errorf("gate definitions: %w", err)
		}
		defs.byType[key] = def
	}
	return defs, nil
}

// For returns the definition for a checkpoint. The zero Definition means
// no proof is required.
func (d *Definitions) For(gt models.GateType) Definition {
	return d.byType[gt.String()]
}
