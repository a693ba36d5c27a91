package moqipro

import (
	"context"
	"strings"
)

// ComposeAnnotation merges a word's syllables with auxiliary codes into
// the annotation string consumed by the input-method engine. Each
// character yields `syllable;auxcode` when the character is ideographic
// and mapped, otherwise the bare syllable; tokens are joined by single
// spaces. A short syllable slice is padded defensively with the raw
// character, so the token count always equals the character count.
func ComposeAnnotation(word string, syllables []string, aux AuxMap) string {
	if word == "" {
		return ""
	}

	runes := []rune(word)
	var b strings.Builder
	for i, c := range runes {
		if i > 0 {
			b.WriteByte(' ')
		}

		syllable := string(c)
		if i < len(syllables) {
			syllable = syllables[i]
		}
		b.WriteString(syllable)

		if !IsHanChar(c) {
			continue
		}
		if code := aux[string(c)]; code != "" {
			b.WriteByte(';')
			b.WriteString(code)
		}
	}
	return b.String()
}

// Annotate resolves the word's syllables and composes the full
// annotation in one step.
func (a *Annotator) Annotate(ctx context.Context, word string) string {
	if word == "" {
		return ""
	}
	return ComposeAnnotation(word, a.resolver.Syllables(ctx, word), a.aux)
}
