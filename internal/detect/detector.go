// Package detect classifies input files before any parsing happens:
// language, size band, and the binary/backup/markup/text/code flags that
// drive strategy selection. Detection is cheap and never builds a tree.
package detect

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/standardbeagle/codemill/internal/types"
)

// sniffLen bounds how much of the file the binary check inspects.
const sniffLen = 8 * 1024

// extLanguages maps file extensions to language tags.
var extLanguages = map[string]string{
	".go":     "go",
	".c":      "c",
	".h":      "c",
	".cpp":    "cpp",
	".cc":     "cpp",
	".cxx":    "cpp",
	".hpp":    "cpp",
	".hh":     "cpp",
	".js":     "javascript",
	".jsx":    "javascript",
	".mjs":    "javascript",
	".ts":     "typescript",
	".tsx":    "typescript",
	".py":     "python",
	".pyw":    "python",
	".rs":     "rust",
	".java":   "java",
	".cs":     "csharp",
	".php":    "php",
	".phtml":  "php",
	".zig":    "zig",
	".md":     "markdown",
	".mdx":    "markdown",
	".xml":    "xml",
	".svg":    "xml",
	".html":   "html",
	".htm":    "html",
	".xhtml":  "html",
	".txt":    "text",
	".rst":    "text",
	".log":    "text",
	".json":   "json",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".sh":     "shell",
	".bash":   "shell",
	".sql":    "sql",
	".proto":  "proto",
	".gradle": "groovy",
}

// codeLanguages are languages the parser registry may have a grammar for.
var codeLanguages = map[string]bool{
	"go": true, "c": true, "cpp": true, "javascript": true, "typescript": true,
	"python": true, "rust": true, "java": true, "csharp": true, "php": true,
	"zig": true, "json": true, "yaml": true, "toml": true, "shell": true,
	"sql": true, "proto": true, "groovy": true,
}

var markupLanguages = map[string]bool{
	"markdown": true, "xml": true, "html": true,
}

// shebangs maps interpreter names to language tags for extensionless files.
var shebangs = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "javascript",
	"sh":      "shell",
	"bash":    "shell",
	"zsh":     "shell",
	"php":     "php",
}

// backupSuffix matches trailing timestamp or numeric backup markers like
// "config.json.2024-01-02" or "main.go.1".
var backupSuffix = regexp.MustCompile(`\.(\d{4}-\d{2}-\d{2}|\d{8}|\d{1,3})$`)

// Detector classifies files by path and content.
type Detector struct{}

func New() *Detector {
	return &Detector{}
}

// Detect classifies one input. Binary and content-based language checks
// look at no more than the first 8 KB; the line count covers the whole
// content. It never parses.
func (d *Detector) Detect(path string, content []byte) types.Detection {
	det := types.Detection{Language: "unknown"}

	det.IsBinary = isBinary(content)
	det.IsBackup = isBackup(path)

	lines := countLines(content)
	det.Lines = lines
	det.SizeBand = sizeBand(lines)

	if det.IsBinary {
		return det
	}

	lang := languageFromExtension(path)
	if lang == "" {
		lang = languageFromContent(content)
	}
	if lang != "" {
		det.Language = lang
	}

	det.IsMarkup = markupLanguages[det.Language]
	det.IsCode = codeLanguages[det.Language]
	det.IsText = !det.IsBinary && !det.IsCode
	return det
}

// languageFromExtension resolves the language tag from the path alone.
func languageFromExtension(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), "~")
	for _, stripped := range []string{".bak", ".orig"} {
		base = strings.TrimSuffix(base, stripped)
	}
	ext := strings.ToLower(filepath.Ext(base))
	return extLanguages[ext]
}

// languageFromContent applies cheap heuristics when the extension is
// unknown: shebang line first, then distinctive token scoring.
func languageFromContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}
	sample := content
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}

	if lang := languageFromShebang(sample); lang != "" {
		return lang
	}

	text := string(sample)
	type scored struct {
		lang  string
		score int
	}
	candidates := []scored{
		{"go", countTokens(text, "func ", "package ", ":= ", "chan ")},
		{"python", countTokens(text, "def ", "import ", "self.", "elif ")},
		{"javascript", countTokens(text, "function ", "const ", "=> ", "var ")},
		{"c", countTokens(text, "#include", "int main", "->", "typedef ")},
		{"rust", countTokens(text, "fn ", "let mut ", "impl ", "pub ")},
		{"xml", countTokens(text, "<?xml", "</", "/>")},
	}
	best := scored{}
	for _, c := range candidates {
		if c.score > best.score {
			best = c
		}
	}
	if best.score >= 2 {
		return best.lang
	}
	return ""
}

func languageFromShebang(sample []byte) string {
	if !bytes.HasPrefix(sample, []byte("#!")) {
		return ""
	}
	line := sample
	if idx := bytes.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(string(line[2:]))
	if len(fields) == 0 {
		return ""
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	// Trim version suffixes like python3.12.
	interp = strings.TrimRight(interp, "0123456789.")
	if lang, ok := shebangs[interp]; ok {
		return lang
	}
	if lang, ok := shebangs[interp+"3"]; ok {
		return lang
	}
	return ""
}

func countTokens(text string, tokens ...string) int {
	score := 0
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			score++
		}
	}
	return score
}

// isBinary reports a NUL byte or invalid UTF-8 prefix in the first 8 KB.
func isBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	truncated := false
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
		truncated = true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	// A truncated sample may end mid-rune; trim the partial tail before
	// validating.
	if truncated {
		for i := 0; i < 4 && len(sample) > 0; i++ {
			if utf8.Valid(sample) {
				return false
			}
			sample = sample[:len(sample)-1]
		}
		return !utf8.Valid(sample)
	}
	return !utf8.Valid(sample)
}

// isBackup detects editor/backup artifacts by suffix conventions.
func isBackup(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == ".bak" || ext == ".orig" || ext == ".old" || ext == ".swp" {
		return true
	}
	// Trailing timestamp patterns only count as backups when the name has
	// a real extension underneath, e.g. "app.conf.2024-01-02".
	if backupSuffix.MatchString(base) {
		rest := backupSuffix.ReplaceAllString(base, "")
		return filepath.Ext(rest) != ""
	}
	return false
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte("\n"))
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

func sizeBand(lines int) types.SizeBand {
	switch {
	case lines < 20:
		return types.SizeTiny
	case lines < 200:
		return types.SizeSmall
	case lines < 2000:
		return types.SizeMedium
	case lines < 20000:
		return types.SizeLarge
	default:
		return types.SizeHuge
	}
}
