package moqipro

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseAuxTable(t *testing.T) {
	text := "# 注释行\n" +
		"\n" +
		"呵\t;kk;kk;kk;oj;rr;dz;ks;kk;\n" +
		"不\t;bf;bf;kx;aa;bb;cc;dd;ee;\n" +
		"多\t;dd;dd;e,f;aa;bb;cc;dd;ee;\n" +
		"能\t;nn;nn; bq ;aa;bb;cc;dd;ee;\n"

	m, stats := ParseAuxTable(text)

	want := map[string]string{
		"呵": "kk",
		"不": "kx",
		"多": "e", // first comma candidate only
		"能": "bq",
	}
	if len(m) != len(want) {
		t.Fatalf("ParseAuxTable: got %d entries, want %d (%v)", len(m), len(want), m)
	}
	for char, code := range want {
		if got := m[char]; got != code {
			t.Errorf("ParseAuxTable[%q] = %q, want %q", char, got, code)
		}
	}
	if stats.Entries != len(want) {
		t.Errorf("stats.Entries = %d, want %d", stats.Entries, len(want))
	}
	for _, code := range m {
		if code == "" {
			t.Error("ParseAuxTable produced an empty code value")
		}
	}
}

func TestParseAuxTableSkipsBadRows(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		wantEmpty     int
		wantMalformed int
	}{
		{"no tab", "呵;kk;kk;kk;", 0, 1},
		{"multi-char field", "呵呵\t;kk;kk;kk;oj;", 0, 1},
		{"empty char field", "\t;kk;kk;kk;oj;", 0, 1},
		{"too few slots", "呵\t;kk;kk", 0, 1},
		{"empty moqi slot", "呵\t;kk;kk;;oj;", 1, 0},
		{"whitespace moqi slot", "呵\t;kk;kk;   ;oj;", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, stats := ParseAuxTable(tt.line + "\n")
			if len(m) != 0 {
				t.Errorf("got %d entries, want 0", len(m))
			}
			if stats.SkippedEmpty != tt.wantEmpty {
				t.Errorf("SkippedEmpty = %d, want %d", stats.SkippedEmpty, tt.wantEmpty)
			}
			if stats.SkippedMalformed != tt.wantMalformed {
				t.Errorf("SkippedMalformed = %d, want %d", stats.SkippedMalformed, tt.wantMalformed)
			}
		})
	}
}

func TestParseAuxTableLastWriteWins(t *testing.T) {
	text := "呵\t;a;a;first;a;\n呵\t;a;a;second;a;\n"
	m, _ := ParseAuxTable(text)
	if got := m["呵"]; got != "second" {
		t.Errorf(`m["呵"] = %q, want "second"`, got)
	}
}

func TestDownloadAuxTable(t *testing.T) {
	const body = "呵\t;kk;kk;kk;oj;\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	got, err := DownloadAuxTable(context.Background(), srv.Client(), srv.URL)
	if err != nil {
		t.Fatalf("DownloadAuxTable: %v", err)
	}
	if got != body {
		t.Errorf("DownloadAuxTable = %q, want %q", got, body)
	}
}

func TestDownloadAuxTableBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := DownloadAuxTable(context.Background(), srv.Client(), srv.URL); err == nil {
		t.Fatal("DownloadAuxTable on 500 response: want error, got nil")
	}
}

func TestFetchAuxMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("呵\t;kk;kk;kk;oj;rr;dz;ks;kk;\n"))
	}))
	defer srv.Close()

	m, err := FetchAuxMap(context.Background(), srv.Client(), srv.URL, nil)
	if err != nil {
		t.Fatalf("FetchAuxMap: %v", err)
	}
	if got := m["呵"]; got != "kk" {
		t.Errorf(`m["呵"] = %q, want "kk"`, got)
	}
}
