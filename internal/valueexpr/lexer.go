package valueexpr

type token int

const (
	tokEOF token = iota
	tokIllegal
	tokPath
	tokNumber
	tokString
	tokLParen
	tokRParen
	tokComma
)

func (t token) String() string {
	switch t {
	case tokEOF:
		return "end of expression"
	case tokPath:
		return "property reference"
	case tokNumber:
		return "number"
	case tokString:
		return "string"
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokComma:
		return `","`
	default:
		return "illegal token"
	}
}

type lexer struct {
	src    string
	offset int
}

// scan returns the position, kind and text of the next token. For string
// literals the text is the unquoted value.
func (l *lexer) scan() (int, token, string) {
	for l.offset < len(l.src) && isSpace(l.src[l.offset]) {
		l.offset++
	}
	pos := l.offset
	if l.offset >= len(l.src) {
		return pos, tokEOF, ""
	}

	ch := l.src[l.offset]
	switch {
	case ch == '(':
		l.offset++
		return pos, tokLParen, ""
	case ch == ')':
		l.offset++
		return pos, tokRParen, ""
	case ch == ',':
		l.offset++
		return pos, tokComma, ""
	case ch == '\'':
		return l.scanString(pos)
	case isDigit(ch) || ch == '-' || ch == '.':
		return l.scanNumber(pos)
	case ch == '^' || isIdentStart(ch):
		return l.scanPath(pos)
	}

	l.offset++
	return pos, tokIllegal, "unexpected character"
}

// scanString scans a single-quoted string where '' is an escaped quote.
func (l *lexer) scanString(pos int) (int, token, string) {
	l.offset++
	var b []byte
	for {
		if l.offset >= len(l.src) {
			return pos, tokIllegal, "unclosed string"
		}
		ch := l.src[l.offset]
		l.offset++
		if ch == '\'' {
			if l.offset < len(l.src) && l.src[l.offset] == '\'' {
				b = append(b, '\'')
				l.offset++
				continue
			}
			return pos, tokString, string(b)
		}
		b = append(b, ch)
	}
}

func (l *lexer) scanNumber(pos int) (int, token, string) {
	start := l.offset
	if l.src[l.offset] == '-' {
		l.offset++
	}
	digits, dots := 0, 0
	for l.offset < len(l.src) {
		ch := l.src[l.offset]
		if isDigit(ch) {
			digits++
		} else if ch == '.' {
			dots++
		} else {
			break
		}
		l.offset++
	}
	if digits == 0 || dots > 1 {
		return pos, tokIllegal, "malformed number"
	}
	return pos, tokNumber, l.src[start:l.offset]
}

// scanPath scans a property path with optional leading back references.
func (l *lexer) scanPath(pos int) (int, token, string) {
	start := l.offset
	for l.offset+1 < len(l.src) && l.src[l.offset] == '^' && l.src[l.offset+1] == '.' {
		l.offset += 2
	}
	for {
		if l.offset >= len(l.src) || !isIdentStart(l.src[l.offset]) {
			return pos, tokIllegal, "malformed property reference"
		}
		for l.offset < len(l.src) && isIdentPart(l.src[l.offset]) {
			l.offset++
		}
		if l.offset < len(l.src) && l.src[l.offset] == '.' {
			l.offset++
			continue
		}
		return pos, tokPath, l.src[start:l.offset]
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
