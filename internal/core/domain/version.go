package domain

import (
	"cmp"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Version is a parsed conda package version.
//
// Versions are compared component-wise: the optional epoch ("N!") first, then the
// release segments, then the optional local segments ("+local"). Segments are split
// on '.', '_' and '-', and each segment is split into runs of digits and letters.
type Version struct {
	source  string
	epoch   uint64
	release []segment
	local   []segment
}

type segment []component

type component struct {
	num   uint64
	str   string
	isStr bool
}

// Ranks of component kinds, lowest first.
const (
	rankDev = iota
	rankString
	rankNumber
	rankPost
)

var zeroComponent = component{}

// ParseVersion parses a conda version string.
func ParseVersion(s string) (Version, error) {
	src := strings.TrimSpace(s)
	if src == "" {
		return Version{}, zerr.With(ErrInvalidVersion, "reason", "empty version")
	}

	text := strings.ToLower(src)
	if i := strings.IndexFunc(text, isInvalidVersionRune); i >= 0 {
		return Version{}, zerr.With(zerr.With(ErrInvalidVersion, "version", src), "reason", "invalid character "+strconv.QuoteRune([]rune(text[i:])[0]))
	}
	v := Version{source: src}

	if idx := strings.IndexByte(text, '!'); idx >= 0 {
		epoch, err := strconv.ParseUint(text[:idx], 10, 64)
		if err != nil {
			return Version{}, zerr.With(zerr.With(ErrInvalidVersion, "version", src), "reason", "invalid epoch")
		}
		v.epoch = epoch
		text = text[idx+1:]
	}

	if strings.Contains(text, "!") || strings.Count(text, "+") > 1 {
		return Version{}, zerr.With(zerr.With(ErrInvalidVersion, "version", src), "reason", "misplaced epoch or local marker")
	}

	releaseText, localText, hasLocal := strings.Cut(text, "+")

	release, err := parseSegments(releaseText)
	if err != nil {
		return Version{}, zerr.With(zerr.With(ErrInvalidVersion, "version", src), "reason", err.Error())
	}
	v.release = release

	if hasLocal {
		local, err := parseSegments(localText)
		if err != nil {
			return Version{}, zerr.With(zerr.With(ErrInvalidVersion, "version", src), "reason", err.Error())
		}
		v.local = local
	}

	return v, nil
}

// MustParseVersion is like ParseVersion but panics on malformed input.
// It is meant for literals in tests and tables.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseSegments(text string) ([]segment, error) {
	if text == "" {
		return nil, zerr.New("empty segment list")
	}

	parts := strings.FieldsFunc(text, isSeparator)
	if len(parts) == 0 || hasEmptySegment(text) {
		return nil, zerr.New("empty version segment")
	}

	segs := make([]segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseSegment(part string) (segment, error) {
	var seg segment
	for i := 0; i < len(part); {
		j := i
		if isDigit(part[i]) {
			for j < len(part) && isDigit(part[j]) {
				j++
			}
			n, err := strconv.ParseUint(part[i:j], 10, 64)
			if err != nil {
				return nil, zerr.New("numeric component out of range")
			}
			seg = append(seg, component{num: n})
		} else {
			for j < len(part) && !isDigit(part[j]) {
				j++
			}
			if len(seg) == 0 {
				// Segments starting with letters get an implicit leading zero.
				seg = append(seg, zeroComponent)
			}
			seg = append(seg, component{str: part[i:j], isStr: true})
		}
		i = j
	}
	return seg, nil
}

func isInvalidVersionRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
		return false
	case r == '.', r == '_', r == '-', r == '+', r == '!':
		return false
	default:
		return true
	}
}

func isSeparator(r rune) bool {
	return r == '.' || r == '_' || r == '-'
}

// hasEmptySegment reports leading, trailing or doubled separators, which FieldsFunc
// would otherwise drop silently.
func hasEmptySegment(text string) bool {
	prevSep := true
	for _, r := range text {
		sep := isSeparator(r)
		if sep && prevSep {
			return true
		}
		prevSep = sep
	}
	return prevSep
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// String returns the version as it was written.
func (v Version) String() string {
	return v.source
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v.source == "" && v.release == nil
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to or after o.
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.epoch, o.epoch); c != 0 {
		return c
	}
	if c := compareSegmentLists(v.release, o.release); c != 0 {
		return c
	}
	return compareSegmentLists(v.local, o.local)
}

// Equal reports whether v and o denote the same version.
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// StartsWith reports whether v lies in the prefix range of p, the way "1.2.*" selects
// "1.2" and "1.2.3" but not "1.20".
func (v Version) StartsWith(p Version) bool {
	if v.epoch != p.epoch {
		return false
	}
	if !segmentsStartWith(v.release, p.release) {
		return false
	}
	if len(p.local) == 0 {
		return true
	}
	return segmentsStartWith(v.local, p.local)
}

// CompatibleWith implements the "~=" operator: v >= p and v starts with p minus its
// last release segment.
func (v Version) CompatibleWith(p Version) bool {
	if v.Compare(p) < 0 {
		return false
	}
	if len(p.release) < 2 {
		return true
	}
	trimmed := Version{epoch: p.epoch, release: p.release[:len(p.release)-1]}
	return v.StartsWith(trimmed)
}

func segmentsStartWith(vs, prefix []segment) bool {
	last := len(prefix) - 1
	for i, ps := range prefix {
		seg := segment{zeroComponent}
		if i < len(vs) {
			seg = vs[i]
		}

		// Only the last prefix segment may be a component prefix of the version segment.
		if i < last || len(seg) < len(ps) {
			if compareSegment(seg, ps) != 0 {
				return false
			}
			continue
		}
		for j, c := range ps {
			if compareComponent(seg[j], c) != 0 {
				return false
			}
		}
	}
	return true
}

func compareSegmentLists(a, b []segment) int {
	n := max(len(a), len(b))
	for i := range n {
		var sa, sb segment
		if i < len(a) {
			sa = a[i]
		}
		if i < len(b) {
			sb = b[i]
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b segment) int {
	n := max(len(a), len(b))
	for i := range n {
		ca, cb := zeroComponent, zeroComponent
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

func compareComponent(a, b component) int {
	ra, rb := a.rank(), b.rank()
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNumber:
		return cmp.Compare(a.num, b.num)
	case rankString:
		return strings.Compare(a.str, b.str)
	default:
		return 0
	}
}

func (c component) rank() int {
	if !c.isStr {
		return rankNumber
	}
	switch c.str {
	case "dev":
		return rankDev
	case "post":
		return rankPost
	default:
		return rankString
	}
}
