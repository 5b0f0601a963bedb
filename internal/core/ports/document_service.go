package ports

import (
	"context"

	"github.com/permitology/permit-system/internal/core/domain"
)

// UploadDocumentInput carries the data for attaching a document to a case.
// DocumentRef is the opaque reference issued by the blob store; this core
// stores and echoes it, never interprets it.
type UploadDocumentInput struct {
	CaseID      string
	Purpose     domain.Purpose
	ActorEmail  string
	DocumentRef string
	Notes       string
}

// DocumentService is the attachment view over the ledger: documents are Update
// actions carrying a purpose, not rows in a separate store.
type DocumentService interface {
	// Upload appends an Update action with the given purpose, document
	// reference, and notes.
	Upload(ctx context.Context, input UploadDocumentInput) (*domain.Action, error)
	// GetDocument returns the most recent Update action for the case carrying
	// the purpose, or domain.ErrActionNotFound when none exists.
	GetDocument(ctx context.Context, caseID string, purpose domain.Purpose) (*domain.Action, error)
}
