package moqipro

import (
	"context"
	"sync/atomic"

	"github.com/mozillazg/go-pinyin"
	"go.uber.org/zap"
)

// Transliterator converts a word into romanized syllable candidates,
// one candidate list per resolvable character. Implementations may
// return fewer or more lists than the word has characters; the Resolver
// realigns in that case.
type Transliterator interface {
	Convert(word string) [][]string
}

// TonePinyin is the default Transliterator, backed by go-pinyin with
// tone-marked output, heteronyms disabled, and unresolvable runes
// rendered as themselves so the per-character mapping stays total.
type TonePinyin struct {
	args pinyin.Args
}

// NewTonePinyin returns a ready-to-use tone-marked transliterator.
func NewTonePinyin() *TonePinyin {
	a := pinyin.NewArgs()
	a.Style = pinyin.Tone
	a.Heteronym = false
	a.Fallback = func(r rune, a pinyin.Args) []string {
		return []string{string(r)}
	}
	return &TonePinyin{args: a}
}

// Convert implements Transliterator.
func (t *TonePinyin) Convert(word string) [][]string {
	return pinyin.Pinyin(word, t.args)
}

// Resolver produces one tonal syllable per character of a word. The
// correction overlay, when available, takes precedence over the
// transliterator; overlay absence silently degrades to the
// transliterator result, and a character with no pronunciation at all
// stands in for its own syllable.
type Resolver struct {
	tr      Transliterator
	overlay *Overlay
	log     *zap.Logger

	unresolved atomic.Int64
}

// NewResolver builds a Resolver. tr must be non-nil; overlay may be nil
// to disable corrections entirely.
func NewResolver(tr Transliterator, overlay *Overlay, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{tr: tr, overlay: overlay, log: log}
}

// Syllables returns exactly one tonal syllable per character of word.
// An empty word yields nil. The length invariant holds on every path:
// if the transliterator merges or splits characters, the whole-word
// result is discarded and each character is resolved independently.
func (r *Resolver) Syllables(ctx context.Context, word string) []string {
	runes := []rune(word)
	if len(runes) == 0 {
		return nil
	}

	if r.overlay != nil && len(runes) >= 2 {
		if syl, ok := r.overlay.Word(ctx, word); ok && len(syl) == len(runes) {
			out := make([]string, len(syl))
			copy(out, syl)
			return out
		}
	}

	if len(runes) == 1 {
		return []string{r.Single(ctx, runes[0])}
	}

	primary := firstCandidates(r.tr.Convert(word))
	if len(primary) == len(runes) {
		return primary
	}

	out := make([]string, len(runes))
	for i, c := range runes {
		out[i] = r.Single(ctx, c)
	}
	return out
}

// Single resolves one character. Overlay corrections win; otherwise the
// transliterator's first candidate; otherwise the character itself, a
// visible degradation counted in UnresolvedCount.
func (r *Resolver) Single(ctx context.Context, c rune) string {
	if r.overlay != nil {
		if s, ok := r.overlay.Single(ctx, c); ok {
			return s
		}
	}

	cands := r.tr.Convert(string(c))
	if len(cands) > 0 && len(cands[0]) > 0 && cands[0][0] != "" && cands[0][0] != string(c) {
		return cands[0][0]
	}

	r.unresolved.Add(1)
	return string(c)
}

// UnresolvedCount reports how many characters fell back to themselves
// because no pronunciation could be resolved.
func (r *Resolver) UnresolvedCount() int64 {
	return r.unresolved.Load()
}

// firstCandidates flattens candidate lists to their first entry; an
// empty list contributes an empty string, preserving positions.
func firstCandidates(cands [][]string) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		if len(c) > 0 {
			out[i] = c[0]
		}
	}
	return out
}
