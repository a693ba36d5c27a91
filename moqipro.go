// Package moqipro annotates RIME pronunciation dictionaries with
// tone-marked pinyin augmented by moqi auxiliary codes, producing the
// enriched .pro dictionary variant consumed by the input-method engine.
package moqipro

import (
	"context"

	"go.uber.org/zap"
)

// Annotator holds the loaded auxiliary-code map and the syllable
// resolver, and provides the public annotation API.
type Annotator struct {
	aux      AuxMap
	resolver *Resolver
	log      *zap.Logger
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithTransliterator replaces the default go-pinyin transliterator.
func WithTransliterator(tr Transliterator) Option {
	return func(a *Annotator) {
		a.resolver = NewResolver(tr, a.resolver.overlay, a.log)
	}
}

// WithOverlay attaches a pronunciation-correction overlay.
func WithOverlay(o *Overlay) Option {
	return func(a *Annotator) {
		a.resolver = NewResolver(a.resolver.tr, o, a.log)
	}
}

// WithLogger sets the logger used by the annotator and its resolver.
func WithLogger(log *zap.Logger) Option {
	return func(a *Annotator) {
		a.log = log
		a.resolver = NewResolver(a.resolver.tr, a.resolver.overlay, log)
	}
}

// New builds an Annotator over the given auxiliary-code map. By default
// it resolves syllables with go-pinyin and no correction overlay.
func New(aux AuxMap, opts ...Option) *Annotator {
	a := &Annotator{
		aux: aux,
		log: zap.NewNop(),
	}
	a.resolver = NewResolver(NewTonePinyin(), nil, a.log)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Syllables returns one tonal syllable per character of word.
func (a *Annotator) Syllables(ctx context.Context, word string) []string {
	return a.resolver.Syllables(ctx, word)
}

// AuxCode looks up the moqi auxiliary code for a single character.
func (a *Annotator) AuxCode(char string) (string, bool) {
	code, ok := a.aux[char]
	return code, ok
}

// Resolver exposes the underlying syllable resolver, mainly for its
// diagnostics.
func (a *Annotator) Resolver() *Resolver {
	return a.resolver
}
