// Package letter assembles outbound letter PDFs. A letter is always at least
// a rendered cover document; for bundled events the cover is concatenated with
// a direction-text document fetched from the external store.
package letter

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"casenotify/internal/types"
)

// Bundler builds the final letter PDF for a candidate. Bundling failures are
// content faults: they are terminal for the letter channel and must not be
// retried, because the same inputs will fail the same way.
type Bundler struct {
	store  types.DocumentStore
	logger types.Logger
}

func NewBundler(store types.DocumentStore, logger types.Logger) *Bundler {
	return &Bundler{store: store, logger: logger}
}

// Assemble returns the letter body for the event. Non-bundled events pass the
// cover through untouched. Bundled events locate the case's direction-text
// document, fetch it, and append it after the cover; a missing document
// degrades to sending the cover alone.
func (b *Bundler) Assemble(ctx context.Context, event types.EventType, snapshot *types.CaseSnapshot, cover []byte) ([]byte, error) {
	if !event.IsBundledLetter() {
		return cover, nil
	}

	doc := snapshot.FindDocument(types.DocumentTypeDirectionText)
	if doc == nil {
		b.logger.Warn("bundled letter has no direction text document, sending cover only",
			"event", string(event), "case_id", snapshot.CaseID)
		return cover, nil
	}

	attachment, err := b.store.Fetch(ctx, doc.Ref)
	if err != nil {
		return nil, types.NewCaseError(types.ErrCodeContentUnreadableDocument, snapshot.CaseID,
			fmt.Sprintf("fetch direction text %s", doc.Ref), err)
	}

	merged, err := mergePDFs(cover, attachment)
	if err != nil {
		return nil, types.NewCaseError(types.ErrCodeContentMergeFailed, snapshot.CaseID,
			fmt.Sprintf("merge direction text %s into letter", doc.Ref), err)
	}
	return merged, nil
}

// mergePDFs concatenates the documents in order into a single PDF.
func mergePDFs(docs ...[]byte) ([]byte, error) {
	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, d := range docs {
		readers = append(readers, bytes.NewReader(d))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, nil); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
