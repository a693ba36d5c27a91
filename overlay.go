package moqipro

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default sources for the pronunciation correction overlay (RIME-LMDG
// wanxiang branch). Both files use the RIME dictionary layout: a YAML
// header opened by "---", then "..." introducing tab-separated data
// rows `word<TAB>toned syllables`.
const (
	DefaultSingleDictURL = "https://raw.githubusercontent.com/amzxyz/RIME-LMDG/wanxiang/pinyin_data/%E5%8D%95%E5%AD%97.dict.yaml"
	DefaultPhraseDictURL = "https://raw.githubusercontent.com/amzxyz/RIME-LMDG/wanxiang/pinyin_data/%E8%AF%8D%E7%BB%84.dict.yaml"

	// OverlayFetchTimeout bounds each overlay download. A timeout is a
	// soft failure: resolution falls back to the transliterator.
	OverlayFetchTimeout = 10 * time.Second
)

// rimeEntry is one data row of a RIME dictionary file.
type rimeEntry struct {
	word      string
	syllables []string
}

// parseRimeEntries extracts the data rows from a RIME dictionary file.
// Everything between "---" and "..." is header and is ignored; rows
// before any "---" are accepted too, so headerless fragments parse.
func parseRimeEntries(content string) []rimeEntry {
	var entries []rimeEntry
	sawHeader := false
	inData := false

	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "---" {
			sawHeader = true
			inData = false
			continue
		}
		if line == "..." {
			inData = true
			continue
		}
		if sawHeader && !inData {
			continue
		}

		word, pron, ok := strings.Cut(raw, "\t")
		if !ok {
			continue
		}
		word = strings.TrimSpace(word)
		syllables := strings.Fields(pron)
		if word == "" || len(syllables) == 0 {
			continue
		}
		entries = append(entries, rimeEntry{word: word, syllables: syllables})
	}
	return entries
}

// parseSingleDict keeps the single-character entries: one rune mapped to
// its corrected toned syllable. A multi-syllable row keeps only the
// first reading.
func parseSingleDict(content string) map[rune]string {
	single := make(map[rune]string)
	for _, e := range parseRimeEntries(content) {
		runes := []rune(e.word)
		if len(runes) != 1 {
			continue
		}
		single[runes[0]] = e.syllables[0]
	}
	return single
}

// parsePhraseDict keeps the multi-character entries whose syllable count
// matches the character count; anything else cannot be aligned and is
// dropped.
func parsePhraseDict(content string) map[string][]string {
	phrases := make(map[string][]string)
	for _, e := range parseRimeEntries(content) {
		runes := []rune(e.word)
		if len(runes) <= 1 {
			continue
		}
		if len(e.syllables) != len(runes) {
			continue
		}
		phrases[e.word] = e.syllables
	}
	return phrases
}

// Overlay is the process-scoped pronunciation-correction cache. It is
// fetched lazily on first use; the mutex guarantees a single download
// attempt across all callers, and the outcome (loaded or failed) is
// remembered for the rest of the process so the fetch never repeats.
type Overlay struct {
	client    *http.Client
	singleURL string
	phraseURL string
	log       *zap.Logger

	mu        sync.Mutex
	attempted bool
	loaded    bool
	single    map[rune]string
	phrases   map[string][]string
}

// NewOverlay builds an overlay cache. A nil client falls back to
// http.DefaultClient; empty URLs fall back to the RIME-LMDG defaults.
func NewOverlay(client *http.Client, singleURL, phraseURL string, log *zap.Logger) *Overlay {
	if client == nil {
		client = http.DefaultClient
	}
	if singleURL == "" {
		singleURL = DefaultSingleDictURL
	}
	if phraseURL == "" {
		phraseURL = DefaultPhraseDictURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Overlay{
		client:    client,
		singleURL: singleURL,
		phraseURL: phraseURL,
		log:       log,
	}
}

// ErrOverlayFailed reports that a previous overlay download attempt
// failed; the failure is remembered and the fetch is not retried within
// the same process.
var ErrOverlayFailed = errors.New("correction overlay load already failed")

// Load fetches and installs the correction data. It is safe to call
// from multiple goroutines: the first caller performs the download
// under the lock, later callers observe the recorded outcome without
// triggering another fetch. A previous failure stays failed and is
// reported as ErrOverlayFailed.
func (o *Overlay) Load(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.attempted {
		if o.loaded {
			return nil
		}
		return ErrOverlayFailed
	}
	o.attempted = true
	return o.loadLocked(ctx)
}

// ensure performs the lazy first load. Unlike Load it never reports the
// outcome to the caller: overlay absence only degrades resolution
// quality. The warning is emitted once, on the failing attempt itself.
func (o *Overlay) ensure(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempted {
		return
	}
	o.attempted = true
	if err := o.loadLocked(ctx); err != nil {
		o.log.Warn("correction overlay unavailable", zap.Error(err))
	}
}

// loadLocked downloads and parses both correction files. Callers hold
// o.mu and have already marked the attempt.
func (o *Overlay) loadLocked(ctx context.Context) error {
	singleContent, err := o.fetch(ctx, o.singleURL)
	if err != nil {
		return fmt.Errorf("fetch single-character corrections: %w", err)
	}
	phraseContent, err := o.fetch(ctx, o.phraseURL)
	if err != nil {
		return fmt.Errorf("fetch phrase corrections: %w", err)
	}

	o.single = parseSingleDict(singleContent)
	o.phrases = parsePhraseDict(phraseContent)
	o.loaded = true
	o.log.Info("loaded pronunciation corrections",
		zap.Int("single", len(o.single)),
		zap.Int("phrases", len(o.phrases)))
	return nil
}

func (o *Overlay) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, OverlayFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Word returns the corrected per-character syllables for an exact
// multi-character match, or ok=false when the overlay has no entry (or
// is not loaded).
func (o *Overlay) Word(ctx context.Context, word string) ([]string, bool) {
	o.ensure(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loaded {
		return nil, false
	}
	syl, ok := o.phrases[word]
	return syl, ok
}

// Single returns the corrected syllable for one character, or ok=false.
func (o *Overlay) Single(ctx context.Context, r rune) (string, bool) {
	o.ensure(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.loaded {
		return "", false
	}
	s, ok := o.single[r]
	return s, ok
}
