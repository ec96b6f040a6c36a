package schema

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// builtinNames are constructors the wire format hardcodes. Their
// definitions appear in real schema files but must not produce generated
// code, so the parser recognizes and skips them.
var builtinNames = map[string]bool{
	"boolFalse": true,
	"boolTrue":  true,
	"true":      true,
	"vector":    true,
	"null":      true,
}

// Parse parses schema text into a document. Diagnostics carry no file name;
// use ParseFile when position information should name its source.
func Parse(data []byte) (*Document, Diagnostics) {
	p := newParser()
	p.parse("", data)
	return p.doc, p.diags
}

// ParseFile reads and parses one schema file. The returned error covers I/O
// only; parse problems are diagnostics.
func ParseFile(path string) (*Document, Diagnostics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	p := newParser()
	p.parse(path, data)
	return p.doc, p.diags, nil
}

// ParseFiles parses several schema files into one merged document.
// Definitions keep the order of the file list, then their line order. The
// section state resets per file: every file starts in ---types---.
func ParseFiles(paths []string) (*Document, Diagnostics, error) {
	p := newParser()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read schema %s: %w", path, err)
		}
		p.parse(path, data)
	}
	return p.doc, p.diags, nil
}

type parser struct {
	file        string
	inFunctions bool
	doc         *Document
	diags       Diagnostics
}

func newParser() *parser {
	return &parser{doc: &Document{}}
}

func (p *parser) parse(file string, data []byte) {
	p.file = file
	p.inFunctions = false

	sc := bufio.NewScanner(bytes.NewReader(data))
	n := 0
	for sc.Scan() {
		n++
		p.line(n, sc.Text())
	}
	if err := sc.Err(); err != nil {
		p.errorf(KindSyntax, n, "", "", "read schema line: %v", err)
	}
}

func (p *parser) errorf(kind Kind, line int, text, def, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Kind:       kind,
		File:       p.file,
		Line:       line,
		Definition: def,
		Text:       text,
		Message:    fmt.Sprintf(format, args...),
	})
}

func (p *parser) line(n int, raw string) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "//") {
		return
	}
	if strings.HasPrefix(s, "---") {
		p.marker(n, s)
		return
	}
	p.definition(n, s)
}

func (p *parser) marker(n int, s string) {
	switch name := strings.Trim(s, "-"); name {
	case "functions":
		p.inFunctions = true
	case "types":
		p.inFunctions = false
	default:
		p.errorf(KindSyntax, n, s, "", "unknown section marker %q", name)
	}
}

func (p *parser) definition(n int, s string) {
	raw := s
	if !strings.HasSuffix(s, ";") {
		p.errorf(KindSyntax, n, raw, "", "definition must end with ';'")
		return
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))

	left, result, ok := strings.Cut(s, "=")
	if !ok {
		p.errorf(KindSyntax, n, raw, "", "missing '=' before result type")
		return
	}
	result = strings.TrimSpace(result)
	if result == "" {
		p.errorf(KindSyntax, n, raw, "", "missing result type")
		return
	}

	fields := strings.Fields(left)
	if len(fields) == 0 {
		p.errorf(KindSyntax, n, raw, "", "missing constructor name")
		return
	}

	ns, name, id, err := splitHeader(fields[0])
	if err != nil {
		p.errorf(KindSyntax, n, raw, "", "%v", err)
		return
	}
	if ns == "" && builtinNames[name] {
		return
	}

	def := &Definition{
		Name:       name,
		Namespace:  ns,
		ID:         id,
		IsFunction: p.inFunctions,
		Result:     result,
		File:       p.file,
		Line:       n,
		Raw:        raw,
	}
	for _, tok := range fields[1:] {
		arg, err := parseArgument(tok)
		if err != nil {
			p.errorf(KindSyntax, n, raw, def.FullName(), "argument %q: %v", tok, err)
			return
		}
		if arg.IsGenericDef {
			def.GenericParams = append(def.GenericParams, arg.Name)
		}
		def.Args = append(def.Args, arg)
	}
	p.doc.Definitions = append(p.doc.Definitions, def)
}

// splitHeader breaks "ns.name#hexid" into its parts.
func splitHeader(head string) (ns, name string, id uint32, err error) {
	full, hex, ok := strings.Cut(head, "#")
	if !ok || hex == "" {
		return "", "", 0, fmt.Errorf("constructor %q has no id: expected name#hexid", head)
	}
	v, perr := strconv.ParseUint(hex, 16, 32)
	if perr != nil {
		return "", "", 0, fmt.Errorf("constructor %q has a malformed id %q", full, hex)
	}

	name = full
	if before, after, dotted := strings.Cut(full, "."); dotted {
		if strings.Contains(after, ".") {
			return "", "", 0, fmt.Errorf("constructor %q: nested namespaces are not supported", full)
		}
		ns, name = before, after
	}
	if !isValidIdentifier(name) {
		return "", "", 0, fmt.Errorf("constructor name %q is not a valid identifier", name)
	}
	if ns != "" && !isValidIdentifier(ns) {
		return "", "", 0, fmt.Errorf("namespace %q is not a valid identifier", ns)
	}
	return ns, name, uint32(v), nil
}

// parseArgument parses one whitespace-delimited argument token.
func parseArgument(tok string) (Argument, error) {
	if strings.HasPrefix(tok, "{") {
		if !strings.HasSuffix(tok, "}") {
			return Argument{}, fmt.Errorf("unterminated generic declaration")
		}
		name, typ, ok := strings.Cut(tok[1:len(tok)-1], ":")
		if !ok || name == "" || typ == "" {
			return Argument{}, fmt.Errorf("generic declaration must be {Name:Type}")
		}
		if !isValidIdentifier(name) {
			return Argument{}, fmt.Errorf("generic name %q is not a valid identifier", name)
		}
		return Argument{Name: name, Type: typ, IsGenericDef: true}, nil
	}

	name, typ, ok := strings.Cut(tok, ":")
	if !ok {
		return Argument{}, fmt.Errorf("missing type")
	}
	if name == "" {
		return Argument{}, fmt.Errorf("missing name")
	}
	if !isValidIdentifier(name) {
		return Argument{}, fmt.Errorf("name %q is not a valid identifier", name)
	}
	if typ == "" {
		return Argument{}, fmt.Errorf("missing type")
	}

	arg := Argument{Name: name}
	if typ == "#" {
		arg.IsFlagIndicator = true
		arg.Type = "#"
		return arg, nil
	}

	if cond, rest, gated := strings.Cut(typ, "?"); gated {
		flagName, idxText, dotted := strings.Cut(cond, ".")
		if !dotted || flagName == "" {
			return Argument{}, fmt.Errorf("conditional %q must take the form flags.N?type", typ)
		}
		idx, err := strconv.Atoi(idxText)
		if err != nil {
			return Argument{}, fmt.Errorf("flag index %q is not a number", idxText)
		}
		if idx < 0 || idx > 31 {
			return Argument{}, fmt.Errorf("flag index %d is out of range [0,31]", idx)
		}
		arg.IsFlag = true
		arg.FlagName = flagName
		arg.FlagIndex = idx
		typ = rest
		if typ == "" {
			return Argument{}, fmt.Errorf("missing type after conditional")
		}
	}

	if open := strings.IndexByte(typ, '<'); open >= 0 {
		base := typ[:open]
		if (base != "Vector" && base != "vector") || !strings.HasSuffix(typ, ">") {
			return Argument{}, fmt.Errorf("malformed parameterized type %q", typ)
		}
		arg.IsVector = true
		typ = typ[open+1 : len(typ)-1]
		if typ == "" {
			return Argument{}, fmt.Errorf("empty vector element type")
		}
	}

	if strings.HasPrefix(typ, "!") {
		arg.IsGeneric = true
		typ = typ[1:]
		if typ == "" {
			return Argument{}, fmt.Errorf("missing type after '!'")
		}
	}

	if !isValidTypeName(typ) {
		return Argument{}, fmt.Errorf("type %q is not a valid type name", typ)
	}
	arg.Type = typ
	return arg, nil
}

// isValidIdentifier reports whether s is a plain schema identifier:
// a letter or underscore followed by letters, digits and underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isValidTypeName accepts identifiers with at most one namespace dot,
// e.g. "InputPeer" or "storage.FileType".
func isValidTypeName(s string) bool {
	before, after, dotted := strings.Cut(s, ".")
	if !dotted {
		return isValidIdentifier(s)
	}
	return isValidIdentifier(before) && isValidIdentifier(after)
}
