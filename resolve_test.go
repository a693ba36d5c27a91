package moqipro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakeTransliterator resolves from a fixed table. Unknown runes render
// as themselves, like the real backend's fallback. With drop set it
// silently omits them instead, imitating a backend that merges
// characters and breaks 1:1 alignment.
type fakeTransliterator struct {
	table map[rune]string
	drop  bool
}

func (f *fakeTransliterator) Convert(word string) [][]string {
	var out [][]string
	for _, r := range word {
		s, ok := f.table[r]
		if !ok {
			if f.drop {
				continue
			}
			out = append(out, []string{string(r)})
			continue
		}
		out = append(out, []string{s})
	}
	return out
}

// panicTransliterator panics on a chosen word, for fault-isolation tests.
type panicTransliterator struct {
	inner   Transliterator
	badWord string
}

func (p *panicTransliterator) Convert(word string) [][]string {
	if word == p.badWord {
		panic("transliteration backend exploded")
	}
	return p.inner.Convert(word)
}

var testTable = map[rune]string{
	'不': "bù",
	'能': "néng",
	'同': "tóng",
	'意': "yì",
	'更': "gèng",
	'多': "duō",
	'呵': "hē",
}

// newLoadedOverlay builds an overlay backed by a test server and loads
// it eagerly.
func newLoadedOverlay(t *testing.T, singleBody, phraseBody string) *Overlay {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/single", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(singleBody))
	})
	mux.HandleFunc("/phrase", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(phraseBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	o := NewOverlay(srv.Client(), srv.URL+"/single", srv.URL+"/phrase", nil)
	if err := o.Load(context.Background()); err != nil {
		t.Fatalf("overlay load: %v", err)
	}
	return o
}

func TestSyllablesAlignment(t *testing.T) {
	words := []string{"", "不", "不能", "不能同意更多", "不X能", "XYZ", "呵呵呵"}

	for _, drop := range []bool{false, true} {
		r := NewResolver(&fakeTransliterator{table: testTable, drop: drop}, nil, nil)
		for _, word := range words {
			got := r.Syllables(context.Background(), word)
			if len(got) != len([]rune(word)) {
				t.Errorf("drop=%v: len(Syllables(%q)) = %d, want %d",
					drop, word, len(got), len([]rune(word)))
			}
		}
	}
}

func TestSyllables(t *testing.T) {
	r := NewResolver(&fakeTransliterator{table: testTable}, nil, nil)

	got := r.Syllables(context.Background(), "不能")
	want := []string{"bù", "néng"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Syllables(不能) = %v, want %v", got, want)
	}

	if got := r.Syllables(context.Background(), ""); got != nil {
		t.Errorf("Syllables(\"\") = %v, want nil", got)
	}
}

func TestSyllablesUnresolvableFallsBackToChar(t *testing.T) {
	r := NewResolver(&fakeTransliterator{table: testTable, drop: true}, nil, nil)

	// X is unknown and dropped: the aligned result breaks, the
	// per-character pass kicks in and X stands in for itself.
	got := r.Syllables(context.Background(), "不X能")
	want := []string{"bù", "X", "néng"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Syllables(不X能)[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if r.UnresolvedCount() == 0 {
		t.Error("UnresolvedCount = 0, want > 0 after self-rendered character")
	}
}

func TestSyllablesPhraseOverlay(t *testing.T) {
	phrase := "---\nname: test\n...\n不能\tbú néng\n"
	o := newLoadedOverlay(t, "", phrase)
	r := NewResolver(&fakeTransliterator{table: testTable}, o, nil)

	got := r.Syllables(context.Background(), "不能")
	if got[0] != "bú" || got[1] != "néng" {
		t.Errorf("Syllables(不能) with overlay = %v, want [bú néng]", got)
	}

	// Words without an overlay entry use the transliterator.
	got = r.Syllables(context.Background(), "同意")
	if got[0] != "tóng" || got[1] != "yì" {
		t.Errorf("Syllables(同意) = %v, want [tóng yì]", got)
	}
}

func TestSingleOverlayOverride(t *testing.T) {
	single := "---\nname: test\n...\n呵\thè\n"
	o := newLoadedOverlay(t, single, "")
	r := NewResolver(&fakeTransliterator{table: testTable}, o, nil)

	if got := r.Single(context.Background(), '呵'); got != "hè" {
		t.Errorf("Single(呵) = %q, want overlay value %q", got, "hè")
	}
	if got := r.Single(context.Background(), '不'); got != "bù" {
		t.Errorf("Single(不) = %q, want transliterator value %q", got, "bù")
	}
}

func TestTonePinyin(t *testing.T) {
	tr := NewTonePinyin()

	got := firstCandidates(tr.Convert("中国"))
	if len(got) != 2 {
		t.Fatalf("Convert(中国) yielded %d syllables, want 2", len(got))
	}
	if got[0] != "zhōng" || got[1] != "guó" {
		t.Errorf("Convert(中国) = %v, want [zhōng guó]", got)
	}

	// The fallback keeps non-Han runes in place.
	got = firstCandidates(tr.Convert("A中"))
	if len(got) != 2 || got[0] != "A" {
		t.Errorf("Convert(A中) = %v, want [A zhōng]", got)
	}
}
