package storage

import (
	"context"
	"fmt"
)

// Externalizer turns inline data URLs into stored media references and can
// remove what it stored.
type Externalizer interface {
	Externalize(ctx context.Context, ref string, kind Kind) (string, error)
	Discard(ctx context.Context, url string) error
}

// Batch externalizes the media fields of one form. Rejected media is kept
// per field so it can be reported back; Err holds the first storage failure.
// Media stored by the batch is remembered until Discard removes it.
type Batch struct {
	ctx      context.Context
	ext      Externalizer
	stored   []string
	Rejected map[string]string
	Err      error
}

func NewBatch(ctx context.Context, ext Externalizer) *Batch {
	return &Batch{ctx: ctx, ext: ext, Rejected: map[string]string{}}
}

// Ref externalizes a single reference.
func (b *Batch) Ref(field, ref string, kind Kind) string {
	url, err := b.ext.Externalize(b.ctx, ref, kind)
	switch {
	case err == nil:
		if IsDataURL(ref) && url != "" {
			b.stored = append(b.stored, url)
		}
		return url
	case IsRejected(err):
		b.Rejected[field] = err.Error()
	case b.Err == nil:
		b.Err = err
	}
	return ""
}

// Refs externalizes a list, dropping blank entries. Rejections are keyed as
// field[i].
func (b *Batch) Refs(field string, refs []string, kind Kind) []string {
	out := make([]string, 0, len(refs))
	for i, ref := range refs {
		if url := b.Ref(fmt.Sprintf("%s[%d]", field, i), ref, kind); url != "" {
			out = append(out, url)
		}
	}
	return out
}

// Failed reports whether any field was rejected or could not be stored.
func (b *Batch) Failed() bool {
	return b.Err != nil || len(b.Rejected) > 0
}

// Stored lists the URLs of media the batch has written so far.
func (b *Batch) Stored() []string {
	return b.stored
}

// Discard removes every blob the batch stored. It keeps going past failures
// and returns the first one.
func (b *Batch) Discard() error {
	var first error
	for _, url := range b.stored {
		if err := b.ext.Discard(b.ctx, url); err != nil && first == nil {
			first = err
		}
	}
	b.stored = nil
	return first
}
