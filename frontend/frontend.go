package frontend

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luaforge/tslc/diag"
	"github.com/luaforge/tslc/graph"
	"github.com/luaforge/tslc/pathmap"
)

// RawImport is one import specifier found in a source file.
type RawImport struct {
	Specifier string
	Line      int
}

// ScanImports extracts import specifiers from TypeScript source text.
// It recognizes import declarations, re-exports (export ... from), and
// dynamic import() calls, and ignores anything inside strings or
// comments. An unterminated specifier string is a node-scoped failure.
func ScanImports(path string, src []byte) ([]RawImport, error) {
	var (
		imports   []RawImport
		word      strings.Builder
		spec      strings.Builder
		pending   bool // the next quoted string is a specifier
		exported  bool // inside an export clause, waiting for "from"
		capturing bool
		specLine  int
		lastByte  byte // last significant code byte, for ".import" members
	)

	finishWord := func() {
		if word.Len() == 0 {
			return
		}
		switch word.String() {
		case "import":
			if lastByte != '.' {
				pending = true
				exported = false
			}
		case "export":
			exported = true
		case "from":
			if exported {
				pending = true
			}
		}
		lastByte = 0
		word.Reset()
	}

	s := newCodeScanner(string(src))
	for ch, ok := s.next(); ok; ch, ok = s.next() {
		if capturing {
			if s.inQuote() {
				spec.WriteByte(ch)
				continue
			}
			// Closing quote ends the capture.
			imports = append(imports, RawImport{Specifier: spec.String(), Line: specLine})
			spec.Reset()
			capturing = false
			pending = false
			continue
		}

		if s.inComment() {
			finishWord()
			continue
		}

		if s.opening && (ch == '\'' || ch == '"') {
			finishWord()
			if pending {
				capturing = true
				specLine = s.lineNo()
			}
			continue
		}
		if s.inString() {
			finishWord()
			continue
		}

		if isIdentByte(ch) {
			word.WriteByte(ch)
			continue
		}
		finishWord()
		if ch == ';' {
			pending = false
			exported = false
		}
		if ch != ' ' && ch != '\t' && ch != '\n' && ch != '\r' {
			lastByte = ch
		}
	}

	if capturing {
		return nil, diag.GenErrorf(path, specLine, "unterminated import specifier")
	}
	return imports, nil
}

func isIdentByte(ch byte) bool {
	return ch == '_' || ch == '$' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

// Parser adapts import scanning to the source graph's parse boundary,
// resolving relative specifiers to files on disk.
type Parser struct{}

// Parse implements graph.ParseFunc.
func (p *Parser) Parse(path string, src []byte) ([]graph.Import, bool, error) {
	raws, err := ScanImports(path, src)
	if err != nil {
		return nil, false, err
	}
	imports := make([]graph.Import, 0, len(raws))
	for _, raw := range raws {
		imports = append(imports, graph.Import{
			Specifier: raw.Specifier,
			Line:      raw.Line,
			Resolved:  resolveSpecifier(path, raw.Specifier),
		})
	}
	return imports, pathmap.IsDeclarationFile(path), nil
}

// resolveSpecifier maps a relative specifier to an existing file next to
// the importer, trying the primary extension, the alternate dialect, a
// declaration file, and finally a directory root module. Non-relative
// specifiers (packages, partitions addressed by identity) resolve to ""
// here; they carry no intra-project edge.
func resolveSpecifier(from, spec string) string {
	if !strings.HasPrefix(spec, ".") {
		return ""
	}
	base := filepath.Join(filepath.Dir(from), filepath.FromSlash(spec))

	var candidates []string
	if pathmap.IsSourceFile(base) || pathmap.IsDeclarationFile(base) {
		candidates = append(candidates, base)
	}
	candidates = append(candidates,
		base+pathmap.SourceExt,
		base+pathmap.AltSourceExt,
		base+pathmap.DeclExt,
		filepath.Join(base, "index"+pathmap.SourceExt),
		filepath.Join(base, "index"+pathmap.AltSourceExt),
	)
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
