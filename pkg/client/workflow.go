package client

import (
	"context"
	"fmt"

	"grundbuch-online/portal/pkg/address"
	"grundbuch-online/portal/pkg/uvst"
)

// Plan is one harness run: an optional address to resolve, the extract
// query and an optional deed lookup.
type Plan struct {
	Address  *address.Input
	Document uvst.DocumentQuery
	Deed     *uvst.DeedQuery
}

// Report collects what a run produced.
type Report struct {
	Authenticated bool
	Resolution    *address.Resolution
	Document      *Document
	Deed          *Document
}

// Workflow runs the wizard steps in order: authenticate, address lookup,
// document query, deed query. Each step gates the next.
type Workflow struct {
	session *Session
}

// NewWorkflow creates a workflow over s.
func NewWorkflow(s *Session) *Workflow {
	return &Workflow{session: s}
}

// Run executes p. Authentication only happens when the session token is
// not valid. The report holds every step that completed, also on error.
func (w *Workflow) Run(ctx context.Context, p Plan) (*Report, error) {
	s := w.session
	report := &Report{}

	if !s.Token().IsValid(s.now()) {
		if _, err := s.Authenticate(ctx); err != nil {
			return report, fmt.Errorf("authenticate: %w", err)
		}
		report.Authenticated = true
	}

	if p.Address != nil {
		res, err := s.NormalizeAddress(ctx, *p.Address)
		if err != nil {
			return report, fmt.Errorf("normalize address: %w", err)
		}
		report.Resolution = &res
	}

	doc, err := s.QueryDocument(ctx, p.Document)
	if err != nil {
		return report, fmt.Errorf("query document: %w", err)
	}
	report.Document = doc

	if p.Deed != nil {
		deed, err := s.QueryDeed(ctx, *p.Deed)
		if err != nil {
			return report, fmt.Errorf("query deed: %w", err)
		}
		report.Deed = deed
	}
	return report, nil
}
