// Package regexengine implements §6.4: the regex backend. Go's standard
// `regexp` package is RE2-based and categorically cannot express
// backreferences or lookbehind, both of which spec §6.4 requires, so this
// package wraps github.com/dlclark/regexp2 (a backtracking engine with a
// JS-compatible syntax mode) instead. Indices are reported in UTF-16 code
// units per §6.4/Invariant I6: every public offset in this package is a
// UTF-16 unit count, converted from regexp2's rune-indexed API.
package regexengine

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Compiled is a compiled pattern plus its declared flags. It implements
// value.CompiledRegex via Source()/Flags().
type Compiled struct {
	source string
	flags  string
	re     *regexp2.Regexp
	named  []string // capture group names in group-index order, "" for unnamed
}

func (c *Compiled) Source() string { return c.source }
func (c *Compiled) Flags() string  { return c.flags }

// Compile builds a Compiled pattern from source/flags, returning a
// descriptive error for invalid escapes, duplicate flags, quantified
// lookbehind, or unknown backreferences (§6.4 "Required diagnostics").
// Compile-failure surfacing (ScriptParse for literals vs ScriptRuntime for
// dynamic `new RegExp`) is the caller's responsibility — see
// internal/eval/dispatch.go's compileRegexLiteral (literals) and
// newRegExpValue (dynamic).
func Compile(source, flags string) (*Compiled, error) {
	if err := validateFlags(flags); err != nil {
		return nil, err
	}
	var opts regexp2.RegexOptions
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	if strings.ContainsRune(flags, 's') {
		opts |= regexp2.Singleline
	}
	// regexp2's Unicode mode for 'u'/'v' is implicit (it matches over runes
	// throughout); no separate option is required beyond accepting the
	// flags for diagnostics purposes.
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, classifyCompileError(err)
	}
	re.MatchTimeout = 0
	names := re.GetGroupNames()
	return &Compiled{source: source, flags: flags, re: re, named: names}, nil
}

func validateFlags(flags string) error {
	seen := map[rune]bool{}
	for _, f := range flags {
		switch f {
		case 'g', 'i', 'm', 's', 'u', 'v', 'y', 'd':
		default:
			return fmt.Errorf("invalid regular expression flag %q", string(f))
		}
		if seen[f] {
			return fmt.Errorf("duplicate regular expression flag %q", string(f))
		}
		seen[f] = true
	}
	if strings.ContainsRune(flags, 'u') && strings.ContainsRune(flags, 'v') {
		return fmt.Errorf("the 'u' and 'v' regular expression flags are mutually exclusive")
	}
	return nil
}

func classifyCompileError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "lookbehind") && strings.Contains(msg, "quantif"):
		return fmt.Errorf("invalid regular expression: quantified lookbehind is not allowed")
	case strings.Contains(msg, "reference to undefined group") || strings.Contains(msg, "unknown group"):
		return fmt.Errorf("invalid regular expression: unknown backreference")
	case strings.Contains(msg, "escape"):
		return fmt.Errorf("invalid regular expression: invalid escape sequence")
	default:
		return fmt.Errorf("invalid regular expression: %s", msg)
	}
}

// Match is one exec() result: 0-indexed UTF-16 code-unit Start/End,
// per-group captures (absent groups have Matched=false), and named groups.
type Match struct {
	Start, End int
	Text       string
	Groups     []Group
	Named      map[string]Group
}

type Group struct {
	Matched    bool
	Start, End int
	Text       string
}

// Exec runs the pattern against input starting at fromUTF16 (a UTF-16 code
// unit offset, honoring lastIndex semantics for g/y the caller already
// resolved), returning nil if no match.
func (c *Compiled) Exec(input string, fromUTF16 int) (*Match, error) {
	u16 := utf16Units(input)
	if fromUTF16 < 0 || fromUTF16 > len(u16) {
		return nil, nil
	}
	m, err := c.re.FindStringMatchStartingAt(input, utf16ToRuneIndex(input, fromUTF16))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	return toMatch(input, m, c.named), nil
}

// ExecSticky is Exec but fails (returns nil) unless the match begins
// exactly at fromUTF16, per the `y` flag's anchoring semantics.
func (c *Compiled) ExecSticky(input string, fromUTF16 int) (*Match, error) {
	m, err := c.Exec(input, fromUTF16)
	if err != nil || m == nil {
		return nil, err
	}
	if m.Start != fromUTF16 {
		return nil, nil
	}
	return m, nil
}

// FindAll returns every non-overlapping match, used by String.match/matchAll
// and split under the `g` flag.
func (c *Compiled) FindAll(input string) ([]*Match, error) {
	var out []*Match
	m, err := c.re.FindStringMatch(input)
	if err != nil {
		return nil, err
	}
	for m != nil {
		out = append(out, toMatch(input, m, c.named))
		m, err = c.re.FindNextMatch(m)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func toMatch(input string, m *regexp2.Match, named []string) *Match {
	groups := m.Groups()
	result := &Match{
		Start: runeToUTF16Index(input, m.Index),
		End:   runeToUTF16Index(input, m.Index+m.Length),
		Text:  m.String(),
		Named: map[string]Group{},
	}
	for gi, g := range groups {
		if gi == 0 {
			continue
		}
		grp := Group{}
		if len(g.Captures) > 0 {
			cap := g.Captures[len(g.Captures)-1]
			grp = Group{
				Matched: true,
				Start:   runeToUTF16Index(input, cap.Index),
				End:     runeToUTF16Index(input, cap.Index+cap.Length),
				Text:    cap.String(),
			}
		}
		result.Groups = append(result.Groups, grp)
		if gi-1 < len(named) && named[gi-1] != "" {
			result.Named[named[gi-1]] = grp
		} else if g.Name != "" && g.Name != fmt.Sprint(gi) {
			result.Named[g.Name] = grp
		}
	}
	return result
}

// utf16Units returns the UTF-16 code units of s, used only for length/bounds
// checks (callers index via *ToIndex helpers, not this slice directly).
func utf16Units(s string) []uint16 {
	var out []uint16
	for _, r := range s {
		if r > 0xFFFF {
			r -= 0x10000
			out = append(out, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
		} else {
			out = append(out, uint16(r))
		}
	}
	return out
}

// runeToUTF16Index converts a rune (Go regexp2 native) index in s to a
// UTF-16 code-unit index, per §6.4/Invariant I6.
func runeToUTF16Index(s string, runeIdx int) int {
	units := 0
	i := 0
	for _, r := range s {
		if i == runeIdx {
			return units
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i++
	}
	return units
}

// utf16ToRuneIndex converts a UTF-16 code-unit index back to a rune index,
// the inverse of runeToUTF16Index, for feeding regexp2's rune-indexed API.
func utf16ToRuneIndex(s string, u16Idx int) int {
	units := 0
	i := 0
	for _, r := range s {
		if units >= u16Idx {
			return i
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		i++
	}
	return i
}
