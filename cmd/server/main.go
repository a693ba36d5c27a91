// Command server exposes the moqipro annotator as a JSON REST API.
//
// Endpoints:
//
//	GET  /api/annotate?word=<word>
//	POST /api/annotate/batch   body: {"words":["..."]}
//	GET  /api/auxcode?char=<character>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/rimetools/moqipro"
)

// ---- JSON response types ------------------------------------------------

type annotateResponse struct {
	Word       string   `json:"word"`
	Syllables  []string `json:"syllables"`
	Annotation string   `json:"annotation"`
}

type batchRequest struct {
	Words []string `json:"words"`
}

type batchResponse struct {
	Results []annotateResponse `json:"results"`
}

type auxCodeResponse struct {
	Char string `json:"char"`
	Code string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func annotateOne(ctx context.Context, ann *moqipro.Annotator, word string) annotateResponse {
	return annotateResponse{
		Word:       word,
		Syllables:  ann.Syllables(ctx, word),
		Annotation: ann.Annotate(ctx, word),
	}
}

// ---- handlers -----------------------------------------------------------

func handleAnnotate(ann *moqipro.Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		word := r.URL.Query().Get("word")
		if word == "" {
			writeError(w, http.StatusBadRequest, "missing 'word' query parameter")
			return
		}
		writeJSON(w, http.StatusOK, annotateOne(r.Context(), ann, word))
	}
}

func handleAnnotateBatch(ann *moqipro.Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}
		var body batchRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Words) == 0 {
			writeError(w, http.StatusBadRequest, "body must be JSON with a non-empty 'words' array")
			return
		}

		out := make([]annotateResponse, 0, len(body.Words))
		for _, word := range body.Words {
			out = append(out, annotateOne(r.Context(), ann, word))
		}
		writeJSON(w, http.StatusOK, batchResponse{Results: out})
	}
}

func handleAuxCode(ann *moqipro.Annotator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		char := r.URL.Query().Get("char")
		if char == "" {
			writeError(w, http.StatusBadRequest, "missing 'char' query parameter")
			return
		}
		code, ok := ann.AuxCode(char)
		if !ok {
			writeError(w, http.StatusNotFound, "no auxiliary code for "+char)
			return
		}
		writeJSON(w, http.StatusOK, auxCodeResponse{Char: char, Code: code})
	}
}

// ---- main ---------------------------------------------------------------

func main() {
	auxURL := flag.String("aux-url", "", "auxiliary-code table URL (default: RIME-LMDG)")
	addr := flag.String("addr", ":8080", "listen address")
	noOverlay := flag.Bool("no-overlay", false, "skip the pronunciation-correction overlay")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	aux, err := moqipro.FetchAuxMap(ctx, nil, *auxURL, logger)
	if err != nil {
		log.Fatalf("failed to load auxiliary codes: %v", err)
	}

	opts := []moqipro.Option{moqipro.WithLogger(logger)}
	if !*noOverlay {
		opts = append(opts, moqipro.WithOverlay(moqipro.NewOverlay(nil, "", "", logger)))
	}
	ann := moqipro.New(aux, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/annotate/batch", handleAnnotateBatch(ann))
	mux.HandleFunc("/api/annotate", handleAnnotate(ann))
	mux.HandleFunc("/api/auxcode", handleAuxCode(ann))

	handler := cors.Default().Handler(mux)

	log.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
