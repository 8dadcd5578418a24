// Package notes stores the player's free-form personal notes.
package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/localstore"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/markdown"
)

// Rendered is a note converted to HTML. Title comes from front matter.
type Rendered struct {
	Title string
	HTML  []byte
}

type Notes struct {
	kv     localstore.Store
	parser *markdown.Parser
}

func New(kv localstore.Store) *Notes {
	return &Notes{kv: kv, parser: markdown.NewParser()}
}

// Load returns the saved notes, or an empty string if there are none.
func (n *Notes) Load(ctx context.Context) (string, error) {
	v, err := n.kv.Get(ctx, localstore.NotesKey)
	if errors.Is(err, localstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Save replaces the notes. Empty text deletes them.
func (n *Notes) Save(ctx context.Context, text string) error {
	if text == "" {
		return n.kv.Delete(ctx, localstore.NotesKey)
	}
	return n.kv.Set(ctx, localstore.NotesKey, []byte(text))
}

func (n *Notes) Render(ctx context.Context) (*Rendered, error) {
	text, err := n.Load(ctx)
	if err != nil {
		return nil, err
	}

	html, meta, err := n.parser.ParseWithFrontmatter([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("render notes: %w", err)
	}

	r := &Rendered{HTML: html}
	if title, ok := meta["title"].(string); ok {
		r.Title = title
	}
	return r, nil
}
