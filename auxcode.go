package moqipro

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAuxURL is the canonical auxiliary-code source (RIME-LMDG
// wanxiang branch). Despite the .yaml suffix the file is tab-separated
// plain text, one record per line:
//
//	字符<TAB>;zrm;flypy;moqi;hanxin;shouyou;tiger;wubi;unknown;
const DefaultAuxURL = "https://raw.githubusercontent.com/amzxyz/RIME-LMDG/wanxiang/scripts/auxiliary_code.yaml"

// moqiIndex is the position of the moqi scheme after splitting the code
// column on ';'. Index 0 is the empty string before the leading ';'.
const moqiIndex = 3

// DefaultFetchTimeout bounds the auxiliary-table download.
const DefaultFetchTimeout = 30 * time.Second

// AuxMap maps a single ideographic character to its moqi auxiliary code.
// Built once per run and treated as immutable afterwards.
type AuxMap map[string]string

// AuxParseStats counts the rows ParseAuxTable could not use. The counts
// are informational; they never make parsing fail.
type AuxParseStats struct {
	// Entries is the number of usable rows retained in the map.
	Entries int
	// SkippedEmpty counts rows whose moqi slot was empty after trimming.
	SkippedEmpty int
	// SkippedMalformed counts rows with no tab, a multi-character or
	// empty character field, or fewer than four code slots.
	SkippedMalformed int
}

// ParseAuxTable parses the auxiliary-code source text into an AuxMap.
//
// Blank lines and lines starting with '#' are skipped. Each remaining
// line must contain a tab separating the character field from the
// ';'-joined code column; the slot at moqiIndex is the retained code.
// A slot holding comma-separated candidates contributes only the first
// candidate. A later row for the same character overwrites an earlier
// one.
func ParseAuxTable(text string) (AuxMap, AuxParseStats) {
	m := make(AuxMap)
	var stats AuxParseStats

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		char, codes, ok := strings.Cut(line, "\t")
		if !ok {
			stats.SkippedMalformed++
			continue
		}
		if len([]rune(char)) != 1 {
			stats.SkippedMalformed++
			continue
		}

		slots := strings.Split(codes, ";")
		if len(slots) <= moqiIndex {
			stats.SkippedMalformed++
			continue
		}

		code := strings.TrimSpace(slots[moqiIndex])
		if code == "" {
			stats.SkippedEmpty++
			continue
		}
		if before, _, found := strings.Cut(code, ","); found {
			code = strings.TrimSpace(before)
		}

		m[char] = code
	}

	stats.Entries = len(m)
	return m, stats
}

// DownloadAuxTable retrieves the raw auxiliary-code text from url.
// The request is bounded by DefaultFetchTimeout unless ctx imposes a
// shorter deadline. Any transport or non-2xx failure is returned to the
// caller; the table is required, so there is no degraded path here.
func DownloadAuxTable(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build aux table request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch aux table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch aux table: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read aux table body: %w", err)
	}
	return string(body), nil
}

// FetchAuxMap downloads and parses the moqi auxiliary-code map in one
// step. Parse statistics are logged at info level.
func FetchAuxMap(ctx context.Context, client *http.Client, url string, log *zap.Logger) (AuxMap, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if url == "" {
		url = DefaultAuxURL
	}

	log.Info("downloading auxiliary-code table", zap.String("url", url))
	text, err := DownloadAuxTable(ctx, client, url)
	if err != nil {
		return nil, err
	}

	m, stats := ParseAuxTable(text)
	log.Info("parsed moqi auxiliary codes",
		zap.Int("entries", stats.Entries),
		zap.Int("skipped_empty", stats.SkippedEmpty),
		zap.Int("skipped_malformed", stats.SkippedMalformed))
	return m, nil
}
