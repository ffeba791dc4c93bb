// Package matchspec parses conda match spec text into domain predicates.
package matchspec

import (
	"strconv"
	"strings"

	"go.trai.ch/rattle/internal/core/domain"
)

// knownSubdirs lists the platform subdirectories recognized after a '/' in a channel.
var knownSubdirs = map[string]bool{
	"noarch":            true,
	"linux-32":          true,
	"linux-64":          true,
	"linux-aarch64":     true,
	"linux-armv6l":      true,
	"linux-armv7l":      true,
	"linux-ppc64":       true,
	"linux-ppc64le":     true,
	"linux-riscv64":     true,
	"linux-s390x":       true,
	"osx-64":            true,
	"osx-arm64":         true,
	"win-32":            true,
	"win-64":            true,
	"win-arm64":         true,
	"zos-z":             true,
	"emscripten-wasm32": true,
	"wasi-wasm32":       true,
}

// Parse parses a single match spec such as "conda-forge::numpy >=1.20,<2 py39*".
func Parse(input string) (domain.MatchSpec, error) {
	p := &parser{input: input}
	return p.spec(0, len(input))
}

// MustParse is like Parse but panics on malformed input.
func MustParse(input string) domain.MatchSpec {
	m, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAll parses every spec of the list, stopping at the first error.
func ParseAll(inputs []string) ([]domain.MatchSpec, error) {
	specs := make([]domain.MatchSpec, 0, len(inputs))
	for _, in := range inputs {
		m, err := Parse(in)
		if err != nil {
			return nil, err
		}
		specs = append(specs, m)
	}
	return specs, nil
}

// ParseDependency parses one entry of a depends list. A '|' followed by a package
// name starts an alternative spec ("libblas * *mkl | openblas"); any other '|' is a
// version alternative.
func ParseDependency(input string) (domain.Dependency, error) {
	p := &parser{input: input}
	var dep domain.Dependency
	for _, span := range p.alternatives() {
		m, err := p.spec(span[0], span[1])
		if err != nil {
			return domain.Dependency{}, err
		}
		dep.Alternatives = append(dep.Alternatives, m)
	}
	return dep, nil
}

// ParseVersionSpec parses a version predicate such as ">=1.2,<2|3.*". It returns a
// nil spec for "*".
func ParseVersionSpec(input string) (domain.VersionSpec, error) {
	p := &parser{input: input}
	start, end := p.trim(0, len(input))
	if start == end {
		return nil, p.fail(start, end, "empty version spec")
	}
	return p.versionSpec(start, end)
}

type parser struct {
	input string
}

func (p *parser) fail(pos, end int, reason string) error {
	pos = min(max(pos, 0), len(p.input))
	end = min(max(end, pos), len(p.input))
	return &domain.ParseError{
		Input:    p.input,
		Pos:      pos,
		Fragment: p.input[pos:end],
		Reason:   reason,
	}
}

func (p *parser) trim(start, end int) (int, int) {
	for start < end && isSpace(p.input[start]) {
		start++
	}
	for end > start && isSpace(p.input[end-1]) {
		end--
	}
	return start, end
}

func (p *parser) spec(start, end int) (domain.MatchSpec, error) {
	start, end = p.trim(start, end)
	if start == end {
		return domain.MatchSpec{}, p.fail(start, end, "empty spec")
	}

	var m domain.MatchSpec

	bodyEnd := end
	attrStart := -1
	if open := strings.IndexByte(p.input[start:end], '['); open >= 0 {
		if p.input[end-1] != ']' {
			return domain.MatchSpec{}, p.fail(start+open, end, "unterminated bracket")
		}
		bodyEnd = start + open
		attrStart = bodyEnd + 1
	} else if cl := strings.IndexByte(p.input[start:end], ']'); cl >= 0 {
		return domain.MatchSpec{}, p.fail(start+cl, end, "unbalanced bracket")
	}

	if sep := strings.Index(p.input[start:bodyEnd], "::"); sep >= 0 {
		chStart, chEnd := p.trim(start, start+sep)
		if chStart == chEnd {
			return domain.MatchSpec{}, p.fail(start, start+sep+2, "empty channel")
		}
		m.Channel, m.Subdir = splitChannel(p.input[chStart:chEnd])
		start += sep + 2
	}

	nameEnd := start
	for nameEnd < bodyEnd && isNameChar(p.input[nameEnd]) {
		nameEnd++
	}
	if nameEnd == start {
		return domain.MatchSpec{}, p.fail(start, bodyEnd, "expected package name")
	}
	m.Name = strings.ToLower(p.input[start:nameEnd])

	if err := p.versionAndBuild(&m, nameEnd, bodyEnd); err != nil {
		return domain.MatchSpec{}, err
	}

	if attrStart >= 0 {
		if err := p.attributes(&m, attrStart, end-1); err != nil {
			return domain.MatchSpec{}, err
		}
	}
	return m, nil
}

func (p *parser) versionAndBuild(m *domain.MatchSpec, start, end int) error {
	start, end = p.trim(start, end)
	if start == end {
		return nil
	}

	// name=version=build
	if body, verEnd, ok := p.exactWithBuild(start, end); ok {
		if verEnd == body {
			return p.fail(start, end, "missing version")
		}
		vs, err := p.versionSpec(body, verEnd)
		if err != nil {
			return err
		}
		m.Version = vs
		return p.build(m, verEnd+1, end)
	}

	groups := p.fieldGroups(start, end)
	switch len(groups) {
	case 1, 2:
	default:
		return p.fail(groups[2][0], end, "unexpected trailing text")
	}

	vs, err := p.versionSpec(groups[0][0], groups[0][1])
	if err != nil {
		return err
	}
	m.Version = vs

	if len(groups) == 2 {
		return p.build(m, groups[1][0], groups[1][1])
	}
	return nil
}

// exactWithBuild detects the "=version=build" form and returns the version span.
func (p *parser) exactWithBuild(start, end int) (body, verEnd int, ok bool) {
	text := p.input[start:end]
	if text[0] != '=' || (len(text) > 1 && text[1] == '=') {
		return 0, 0, false
	}
	body = start + 1
	for i := body; i < end; i++ {
		switch p.input[i] {
		case ' ', '\t':
			return 0, 0, false
		case '=':
			return body, i, true
		}
	}
	return 0, 0, false
}

func (p *parser) build(m *domain.MatchSpec, start, end int) error {
	start, end = p.trim(start, end)
	if start == end {
		return p.fail(start, end, "missing build string")
	}
	build := p.input[start:end]
	if i := strings.IndexFunc(build, func(r rune) bool { return r == ' ' || r == '\t' || r == '=' }); i >= 0 {
		return p.fail(start+i, end, "invalid build string")
	}
	if build != "*" {
		m.Build = build
	}
	return nil
}

// fieldGroups splits on whitespace, keeping operators attached to their operands so
// ">= 1.0 , <2 py39*" yields the groups ">= 1.0 , <2" and "py39*".
func (p *parser) fieldGroups(start, end int) [][2]int {
	var fields [][2]int
	for i := start; i < end; {
		for i < end && isSpace(p.input[i]) {
			i++
		}
		if i == end {
			break
		}
		j := i
		for j < end && !isSpace(p.input[j]) {
			j++
		}
		fields = append(fields, [2]int{i, j})
		i = j
	}

	var groups [][2]int
	for _, f := range fields {
		if n := len(groups); n > 0 {
			last := groups[n-1]
			tail := p.input[last[1]-1]
			head := p.input[f[0]]
			if strings.IndexByte("=<>!~,|(", tail) >= 0 || strings.IndexByte(",|)", head) >= 0 {
				groups[n-1][1] = f[1]
				continue
			}
		}
		groups = append(groups, f)
	}
	return groups
}

// alternatives splits a depends entry into its alternative spec spans.
func (p *parser) alternatives() [][2]int {
	var spans [][2]int
	start, depth := 0, 0
	var quote byte
	for i := 0; i < len(p.input); i++ {
		c := p.input[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == '|' && depth == 0 && p.startsName(i+1):
			spans = append(spans, [2]int{start, i})
			start = i + 1
		}
	}
	return append(spans, [2]int{start, len(p.input)})
}

func (p *parser) startsName(i int) bool {
	for i < len(p.input) && isSpace(p.input[i]) {
		i++
	}
	if i == len(p.input) {
		return false
	}
	c := p.input[i]
	if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	if !isDigit(c) {
		return false
	}
	// A digit starts a name ("7za") only when the word holds a letter and no
	// version punctuation, so "1.2", "3" and "2.7.*" stay version alternatives.
	letter := false
	for ; i < len(p.input) && !isSpace(p.input[i]) && p.input[i] != '[' && p.input[i] != '|'; i++ {
		c := p.input[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			letter = true
		case isDigit(c), c == '_', c == '-':
		default:
			return false
		}
	}
	return letter
}

func (p *parser) attributes(m *domain.MatchSpec, start, end int) error {
	i := start
	for {
		for i < end && isSpace(p.input[i]) {
			i++
		}
		if i == end {
			return nil
		}

		keyStart := i
		for i < end && (isLower(p.input[i]) || p.input[i] == '_' || (i > keyStart && isDigit(p.input[i]))) {
			i++
		}
		key := p.input[keyStart:i]
		if key == "" {
			return p.fail(keyStart, end, "expected attribute key")
		}
		for i < end && isSpace(p.input[i]) {
			i++
		}
		if i == end || p.input[i] != '=' {
			return p.fail(keyStart, end, "expected '=' after attribute key")
		}
		i++
		for i < end && isSpace(p.input[i]) {
			i++
		}

		valStart, valEnd := i, i
		if i < end && (p.input[i] == '\'' || p.input[i] == '"') {
			quote := p.input[i]
			valStart = i + 1
			closing := strings.IndexByte(p.input[valStart:end], quote)
			if closing < 0 {
				return p.fail(i, end, "unterminated quote")
			}
			valEnd = valStart + closing
			i = valEnd + 1
		} else {
			for i < end && p.input[i] != ',' {
				i++
			}
			valStart, valEnd = p.trim(valStart, i)
		}

		if err := p.attribute(m, key, keyStart, valStart, valEnd); err != nil {
			return err
		}

		for i < end && isSpace(p.input[i]) {
			i++
		}
		if i == end {
			return nil
		}
		if p.input[i] != ',' {
			return p.fail(i, end, "expected ',' between attributes")
		}
		i++
	}
}

func (p *parser) attribute(m *domain.MatchSpec, key string, keyStart, start, end int) error {
	value := p.input[start:end]
	if value == "" {
		return p.fail(keyStart, end, "empty value for "+key)
	}

	switch key {
	case "version":
		vs, err := p.versionSpec(start, end)
		if err != nil {
			return err
		}
		m.Version = vs
	case "build":
		return p.build(m, start, end)
	case "build_number":
		bn, err := p.buildNumber(start, end)
		if err != nil {
			return err
		}
		m.BuildNumber = bn
	case "channel":
		ch, sd := splitChannel(value)
		m.Channel = ch
		if sd != "" {
			m.Subdir = sd
		}
	case "subdir":
		m.Subdir = value
	case "md5":
		m.MD5 = strings.ToLower(value)
	case "sha256":
		m.SHA256 = strings.ToLower(value)
	case "track_features":
		m.TrackFeatures = strings.FieldsFunc(value, func(r rune) bool { return r == ' ' || r == ',' })
	default:
		return p.fail(keyStart, end, "unknown attribute key "+strconv.Quote(key))
	}
	return nil
}

func (p *parser) buildNumber(start, end int) (*domain.BuildNumberSpec, error) {
	op, i := p.operator(start, end)
	switch op {
	case opNone, opFuzzy:
		op = opExact
	case opCompatible:
		return nil, p.fail(start, end, "operator ~= is not valid for build numbers")
	}
	for i < end && isSpace(p.input[i]) {
		i++
	}
	n, err := strconv.ParseUint(p.input[i:end], 10, 64)
	if err != nil {
		return nil, p.fail(i, end, "invalid build number")
	}
	return &domain.BuildNumberSpec{Op: op.domain(), Value: n}, nil
}

func splitChannel(text string) (channel, subdir string) {
	if i := strings.LastIndexByte(text, '/'); i >= 0 && knownSubdirs[text[i+1:]] {
		return text[:i], text[i+1:]
	}
	return text, ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

func isLower(c byte) bool {
	return c >= 'a' && c <= 'z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '-', c == '.':
		return true
	default:
		return false
	}
}
