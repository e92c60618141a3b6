// Package importer turns an uploaded statement into stored, categorized
// transactions by running a fixed sequence of steps over a shared State.
package importer

import (
	"context"
	"fmt"

	"github.com/dvloznov/spendwise/internal/domain"
	"github.com/dvloznov/spendwise/internal/logger"
)

// Step is a single stage of the import pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// Request describes one statement to import.
type Request struct {
	UserID   string
	Filename string
	MimeType string

	// Data holds the file bytes. When empty, the file is fetched from
	// ArchiveURI.
	Data       []byte
	ArchiveURI string

	// DryRun parses and categorizes without storing anything.
	DryRun bool
}

// State is shared by every step of one run.
type State struct {
	Request

	Source       domain.Source
	Candidates   []domain.Candidate
	Categories   []string
	Transactions []domain.Transaction
	Result       Result
}

// Result summarizes an import.
type Result struct {
	ArchiveURI    string `json:"archiveUri,omitempty"`
	Parsed        int    `json:"parsed"`
	Imported      int    `json:"imported"`
	Skipped       int    `json:"skipped"`
	Uncategorized int    `json:"uncategorized"`

	Transactions []domain.Transaction `json:"transactions,omitempty"`
}

// Pipeline executes steps in order and stops at the first failure.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		log.Debug().Int("step", i+1).Str("name", step.Name()).Msg("Import step completed")
	}
	return nil
}
