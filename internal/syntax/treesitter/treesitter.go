// Package treesitter provides editor syntax trees backed by tree-sitter
// grammars.
package treesitter

import (
	"context"
	"sync"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"go.uber.org/zap"

	"github.com/dshills/amptab/internal/editor"
)

// grammars maps filetypes to tree-sitter languages.
var grammars = map[string]*sitter.Language{
	"go":         golang.GetLanguage(),
	"python":     python.GetLanguage(),
	"javascript": javascript.GetLanguage(),
	"typescript": typescript.GetLanguage(),
	"rust":       rust.GetLanguage(),
}

// Supported reports whether lang has a grammar.
func Supported(lang string) bool {
	_, ok := grammars[lang]
	return ok
}

type cached struct {
	tick int
	tree *Tree
}

// Provider parses buffers on demand and keeps the latest tree of each buffer
// until it changes.
type Provider struct {
	mu     sync.Mutex
	parser *sitter.Parser
	trees  map[editor.BufferID]cached
	log    *zap.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Provider) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a provider. Call Close to release parsed trees.
func New(opts ...Option) *Provider {
	p := &Provider{
		parser: sitter.NewParser(),
		trees:  make(map[editor.BufferID]cached),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TreeFor returns the tree for the current contents of b.
func (p *Provider) TreeFor(b editor.Buffer) (editor.Tree, bool) {
	if b == nil || !b.Valid() {
		return nil, false
	}
	lang, ok := grammars[b.Language()]
	if !ok {
		return nil, false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tick := b.Changedtick()
	if c, ok := p.trees[b.ID()]; ok && c.tick == tick {
		return c.tree, true
	}

	text, err := editor.Contents(b)
	if err != nil {
		return nil, false
	}
	p.parser.SetLanguage(lang)
	parsed, err := p.parser.ParseCtx(context.Background(), nil, []byte(text))
	if err != nil {
		p.log.Warn("parse failed",
			zap.Int("buffer", int(b.ID())),
			zap.String("language", b.Language()),
			zap.Error(err))
		return nil, false
	}

	if old, ok := p.trees[b.ID()]; ok {
		old.tree.t.Close()
	}
	t := &Tree{t: parsed}
	p.trees[b.ID()] = cached{tick: tick, tree: t}

	p.log.Debug("buffer parsed",
		zap.Int("buffer", int(b.ID())),
		zap.String("language", b.Language()),
		zap.Int("tick", tick))
	return t, true
}

// Forget releases the tree of buf.
func (p *Provider) Forget(buf editor.BufferID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.trees[buf]; ok {
		c.tree.t.Close()
		delete(p.trees, buf)
	}
}

// Close releases every tree and the parser.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, c := range p.trees {
		c.tree.t.Close()
		delete(p.trees, id)
	}
	p.parser.Close()
}

// Tree is a parsed buffer.
type Tree struct {
	t *sitter.Tree
}

// NodeAt returns the smallest named node covering line and col, or nil.
func (t *Tree) NodeAt(line, col int) editor.Node {
	row, err := safecast.Conv[uint32](line)
	if err != nil {
		return nil
	}
	column, err := safecast.Conv[uint32](col)
	if err != nil {
		return nil
	}
	pt := sitter.Point{Row: row, Column: column}
	return wrap(t.t.RootNode().NamedDescendantForPointRange(pt, pt))
}

type node struct {
	n *sitter.Node
}

// wrap returns an untyped nil for missing nodes so callers can compare
// against nil.
func wrap(n *sitter.Node) editor.Node {
	if n == nil {
		return nil
	}
	return node{n: n}
}

func (n node) Kind() string {
	return n.n.Type()
}

func (n node) Range() editor.Range {
	return editor.Range{
		Start: point(n.n.StartPoint()),
		End:   point(n.n.EndPoint()),
	}
}

func (n node) Parent() editor.Node {
	return wrap(n.n.Parent())
}

func (n node) Children() []editor.Node {
	count := int(n.n.NamedChildCount())
	out := make([]editor.Node, 0, count)
	for i := 0; i < count; i++ {
		if c := n.n.NamedChild(i); c != nil {
			out = append(out, node{n: c})
		}
	}
	return out
}

func (n node) FieldNamed(name string) editor.Node {
	return wrap(n.n.ChildByFieldName(name))
}

func point(p sitter.Point) editor.Position {
	return editor.Position{Line: int(p.Row), Col: int(p.Column)}
}
