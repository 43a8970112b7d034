// Package lexcursor implements C1: a byte-indexed text cursor plus a
// lexical-state scanner over JavaScript-like source. Everything above this
// package (internal/parser) asks the cursor "what's next" and the scanner
// "is this top-level" rather than re-deriving string/comment/regex state by
// hand.
package lexcursor

import "strings"

// Cursor is a byte-indexed reader over UTF-8 source.
type Cursor struct {
	src []byte
	pos int
}

// New wraps src in a Cursor positioned at the start.
func New(src string) *Cursor {
	return &Cursor{src: []byte(src)}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int { return c.pos }

// SetPos rewinds or advances to an arbitrary offset.
func (c *Cursor) SetPos(p int) { c.pos = p }

// Len returns the length of the source in bytes.
func (c *Cursor) Len() int { return len(c.src) }

// Eof reports whether the cursor has consumed all input.
func (c *Cursor) Eof() bool { return c.pos >= len(c.src) }

// Peek returns the byte at the current position without advancing, or
// (0, false) at EOF.
func (c *Cursor) Peek() (byte, bool) {
	if c.Eof() {
		return 0, false
	}
	return c.src[c.pos], true
}

// PeekAt looks ahead offset bytes from the current position.
func (c *Cursor) PeekAt(offset int) (byte, bool) {
	i := c.pos + offset
	if i < 0 || i >= len(c.src) {
		return 0, false
	}
	return c.src[i], true
}

// Advance consumes and returns the current byte.
func (c *Cursor) Advance() (byte, bool) {
	b, ok := c.Peek()
	if ok {
		c.pos++
	}
	return b, ok
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\v', '\f', '\n', '\r':
		return true
	}
	return false
}

// SkipWS skips spaces, tabs, vertical tabs, form feeds, line terminators,
// and both `//` and `/* … */` comments.
func (c *Cursor) SkipWS() {
	for !c.Eof() {
		b, _ := c.Peek()
		if isSpace(b) {
			c.pos++
			continue
		}
		if b == '/' {
			if nb, ok := c.PeekAt(1); ok && nb == '/' {
				for !c.Eof() {
					if b2, _ := c.Peek(); b2 == '\n' {
						break
					}
					c.pos++
				}
				continue
			}
			if nb, ok := c.PeekAt(1); ok && nb == '*' {
				c.pos += 2
				for !c.Eof() {
					b2, _ := c.Peek()
					nb2, _ := c.PeekAt(1)
					if b2 == '*' && nb2 == '/' {
						c.pos += 2
						break
					}
					c.pos++
				}
				continue
			}
		}
		break
	}
}

// ConsumeByte advances past b if it is the current byte, reporting success.
// Does not advance on mismatch.
func (c *Cursor) ConsumeByte(b byte) bool {
	cur, ok := c.Peek()
	if !ok || cur != b {
		return false
	}
	c.pos++
	return true
}

// ConsumeAscii advances past literal if the source matches at the current
// position, reporting success. Does not advance on mismatch.
func (c *Cursor) ConsumeAscii(literal string) bool {
	if c.pos+len(literal) > len(c.src) {
		return false
	}
	if string(c.src[c.pos:c.pos+len(literal)]) != literal {
		return false
	}
	c.pos += len(literal)
	return true
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// ParseIdentifier greedily consumes [A-Za-z_$][A-Za-z0-9_$]*, returning
// ("", false) if the cursor isn't positioned at an identifier start.
func (c *Cursor) ParseIdentifier() (string, bool) {
	start := c.pos
	b, ok := c.Peek()
	if !ok || !isIdentStart(b) {
		return "", false
	}
	c.pos++
	for {
		b, ok := c.Peek()
		if !ok || !isIdentPart(b) {
			break
		}
		c.pos++
	}
	return string(c.src[start:c.pos]), true
}

// ParseStringLiteral accepts a single- or double-quoted string starting at
// the current position, processing standard escapes including \xHH, \uHHHH,
// \u{…}, and line continuations. Returns the decoded value.
func (c *Cursor) ParseStringLiteral() (string, bool) {
	quote, ok := c.Peek()
	if !ok || (quote != '\'' && quote != '"') {
		return "", false
	}
	c.pos++
	var sb strings.Builder
	for {
		b, ok := c.Peek()
		if !ok {
			return "", false // unterminated
		}
		if b == quote {
			c.pos++
			return sb.String(), true
		}
		if b == '\\' {
			c.pos++
			esc, ok := c.Advance()
			if !ok {
				return "", false
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'v':
				sb.WriteByte('\v')
			case '0':
				sb.WriteByte(0)
			case '\n':
				// line continuation: drop it
			case '\r':
				if nb, ok := c.Peek(); ok && nb == '\n' {
					c.pos++
				}
			case 'x':
				r := c.readHex(2)
				sb.WriteRune(rune(r))
			case 'u':
				if nb, ok := c.Peek(); ok && nb == '{' {
					c.pos++
					start := c.pos
					for {
						b2, ok := c.Peek()
						if !ok || b2 == '}' {
							break
						}
						c.pos++
					}
					hex := string(c.src[start:c.pos])
					c.ConsumeByte('}')
					sb.WriteRune(rune(parseHexString(hex)))
				} else {
					r := c.readHex(4)
					sb.WriteRune(rune(r))
				}
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(b)
		c.pos++
	}
}

func (c *Cursor) readHex(n int) int {
	start := c.pos
	end := start + n
	if end > len(c.src) {
		end = len(c.src)
	}
	c.pos = end
	return parseHexString(string(c.src[start:end]))
}

func parseHexString(s string) int {
	v := 0
	for _, r := range s {
		v *= 16
		switch {
		case r >= '0' && r <= '9':
			v += int(r - '0')
		case r >= 'a' && r <= 'f':
			v += int(r-'a') + 10
		case r >= 'A' && r <= 'F':
			v += int(r-'A') + 10
		}
	}
	return v
}

// ReadBalancedBlock returns the interior text of a balanced open/close pair
// starting at the current position (which must hold `open`), respecting
// strings, template literals, and regex literals within. The cursor is left
// just past the matching close byte.
func (c *Cursor) ReadBalancedBlock(open, close byte) (string, bool) {
	if !c.ConsumeByte(open) {
		return "", false
	}
	depth := 1
	start := c.pos
	scanner := NewScanner(string(c.src))
	for !c.Eof() {
		state := scanner.StateAt(c.pos)
		b, _ := c.Peek()
		if state == StateTopLevel {
			switch b {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					text := string(c.src[start:c.pos])
					c.pos++
					return text, true
				}
			}
		}
		c.pos++
	}
	return "", false
}

// Remaining returns the unconsumed tail of the source.
func (c *Cursor) Remaining() string {
	return string(c.src[c.pos:])
}

// Source returns the full original source text.
func (c *Cursor) Source() string {
	return string(c.src)
}
