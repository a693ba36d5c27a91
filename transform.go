package moqipro

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// headerMarkers are the five canonical header lines of a RIME dict
// file. Only their count matters: the first len(headerMarkers) lines
// form the positional header zone.
var headerMarkers = [...]string{"---", "name:", "version:", "sort:", "..."}

const headerZone = len(headerMarkers)

// nameSuffix marks an annotated dictionary in its header name field.
const nameSuffix = ".pro"

// headerKVRe matches `indent key: value [# comment]` for the two header
// fields the transformer rewrites.
var headerKVRe = regexp.MustCompile(`^(\s*)(name|version):\s*(.*?)(\s*#.*)?$`)

// Transformer streams a dictionary file through the annotation
// pipeline: header fields are rewritten, data rows get a fresh
// annotation column, everything else passes through untouched. One
// input line always yields exactly one output line, in order.
type Transformer struct {
	ann *Annotator
	log *zap.Logger

	// now supplies the date written into the version field.
	now func() time.Time
}

// NewTransformer builds a Transformer over ann.
func NewTransformer(ann *Annotator, log *zap.Logger) *Transformer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transformer{ann: ann, log: log, now: time.Now}
}

// Transform reads dictionary lines from r and writes the annotated
// dictionary to w. The input is consumed exactly once. Per-line
// processing failures are logged and leave the original line in place;
// only I/O errors abort the run.
func (t *Transformer) Transform(ctx context.Context, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			lineNo++

			var out string
			switch {
			case lineNo <= headerZone:
				out = t.headerLine(line)
			default:
				out = t.dataLine(ctx, line, lineNo)
			}
			if _, err := bw.WriteString(out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read input: %w", readErr)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// headerLine handles one line of the positional header zone. Only
// name: and version: lines are rewritten; everything else passes
// through verbatim.
func (t *Transformer) headerLine(line string) string {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if !strings.HasPrefix(trimmed, "name:") && !strings.HasPrefix(trimmed, "version:") {
		return line
	}
	return t.rewriteHeaderLine(line)
}

// rewriteHeaderLine applies the header rewrite rule: the name field
// gains the .pro suffix exactly once, the version field is always
// replaced with today's date. Indentation, quoting style and any
// trailing comment survive unchanged; a line that does not match the
// key/value shape passes through.
func (t *Transformer) rewriteHeaderLine(line string) string {
	content, nl := splitNewline(line)

	m := headerKVRe.FindStringSubmatch(content)
	if m == nil {
		return line
	}
	indent, key, comment := m[1], m[2], m[4]
	value := strings.TrimSpace(m[3])

	quote := ""
	inner := value
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		quote = string(value[0])
		inner = value[1 : len(value)-1]
	}

	if key == "name" {
		if inner != "" && !strings.HasSuffix(inner, nameSuffix) {
			inner += nameSuffix
		}
		return indent + "name: " + quote + inner + quote + comment + nl
	}

	// version: unquoted values gain double quotes.
	if quote == "" {
		quote = `"`
	}
	today := t.now().Format("2006.01.02")
	return indent + "version: " + quote + today + quote + comment + nl
}

// dataLine processes one line of the data zone with per-line fault
// isolation: whatever goes wrong, the original line is emitted and the
// failure is only logged.
func (t *Transformer) dataLine(ctx context.Context, line string, lineNo int) string {
	out, err := t.rewriteDataLine(ctx, line)
	if err != nil {
		t.log.Warn("keeping line unchanged after processing failure",
			zap.Int("line", lineNo), zap.Error(err))
		return line
	}
	return out
}

// rewriteDataLine classifies and rewrites a single data-zone line. A
// panic out of the annotation pipeline (a misbehaving Transliterator,
// typically) is converted into the error return so it never crosses the
// line-processing boundary.
func (t *Transformer) rewriteDataLine(ctx context.Context, line string) (out string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("line processing panic: %v", p)
		}
	}()

	if strings.TrimSpace(line) == "" {
		return line, nil
	}
	if strings.HasPrefix(strings.TrimLeftFunc(line, unicode.IsSpace), "#") {
		return line, nil
	}

	content, nl := splitNewline(line)

	if strings.Contains(content, "\t") {
		cols := strings.Split(content, "\t")
		word := strings.TrimSpace(cols[0])
		if word == "" || !ContainsHan(word) {
			return line, nil
		}

		annotated := []string{word, t.ann.Annotate(ctx, word)}
		if len(cols) > 2 {
			annotated = append(annotated, cols[2:]...)
		}
		return strings.Join(annotated, "\t") + nl, nil
	}

	word := strings.TrimSpace(content)
	if word == "" || !ContainsHan(word) {
		return line, nil
	}
	return word + "\t" + t.ann.Annotate(ctx, word) + nl, nil
}

// splitNewline separates a line's content from its terminator so the
// terminator can be re-attached verbatim, keeping each line's ending
// style intact.
func splitNewline(line string) (content, nl string) {
	if strings.HasSuffix(line, "\r\n") {
		return line[:len(line)-2], "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// ProcessFile streams the dictionary at inPath into outPath, creating
// the output directory if needed. Missing input, unwritable output and
// mid-stream I/O failures are fatal.
func (t *Transformer) ProcessFile(ctx context.Context, inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := t.Transform(ctx, in, out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	t.log.Info("dictionary processed",
		zap.String("input", inPath), zap.String("output", outPath))
	return nil
}

// Job names one dictionary to process and the output file name it maps
// to inside the batch output directory.
type Job struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// ProcessAll runs a batch of jobs into outputDir sequentially. The
// first failing job aborts the batch.
func (t *Transformer) ProcessAll(ctx context.Context, jobs []Job, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, job := range jobs {
		if err := t.ProcessFile(ctx, job.Input, filepath.Join(outputDir, job.Output)); err != nil {
			return fmt.Errorf("process %s: %w", job.Input, err)
		}
	}
	return nil
}
