package compiler

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Razen source
// ---------------------------------------------------------------------------

// Lexer tokenizes Razen source code. It is single pass and cannot be
// restarted; once the input is exhausted every call to NextToken yields EOF.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // runes before ch on the current line
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The result ends with exactly one EOF token.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == TokenEOF {
			return toks
		}
	}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.pos < l.readPos {
		if l.ch == '\n' {
			l.line++
			l.col = 0
		} else {
			l.col++
		}
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = len(l.input)
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// atEOF reports whether the input is exhausted.
func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// position returns the position of the current character.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col + 1,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	pos := l.position()

	if l.atEOF() {
		return Token{Type: TokenEOF, Literal: "", Pos: pos}
	}

	switch {
	case l.ch == '#':
		return l.readComment(pos)
	case l.ch == '"':
		return l.readString(pos)
	case isDigit(l.ch):
		return l.readNumber(pos)
	case isLetter(l.ch):
		return l.readIdentifierOrKeyword(pos)
	}

	ch := l.ch
	switch ch {
	case '=':
		return l.either('=', TokenEq, TokenAssign, pos)
	case '!':
		return l.either('=', TokenNotEq, TokenBang, pos)
	case '<':
		return l.either('=', TokenLTE, TokenLT, pos)
	case '>':
		return l.either('=', TokenGTE, TokenGT, pos)
	case '+':
		return l.either('=', TokenPlusAssign, TokenPlus, pos)
	case '-':
		return l.either('=', TokenMinusAssign, TokenMinus, pos)
	case '%':
		return l.either('=', TokenPercentAssign, TokenPercent, pos)
	case '*':
		if l.peekChar() == '*' {
			return l.double(TokenPower, pos)
		}
		return l.either('=', TokenStarAssign, TokenStar, pos)
	case '/':
		if l.peekChar() == '/' {
			return l.double(TokenFloorDiv, pos)
		}
		return l.either('=', TokenSlashAssign, TokenSlash, pos)
	case '&':
		return l.either('&', TokenAnd, TokenIllegal, pos)
	case '|':
		return l.either('|', TokenOr, TokenIllegal, pos)
	case ':':
		return l.either(':', TokenColonColon, TokenColon, pos)
	case '.':
		return l.single(TokenDot, pos)
	case ',':
		return l.single(TokenComma, pos)
	case ';':
		return l.single(TokenSemicolon, pos)
	case '(':
		return l.single(TokenLParen, pos)
	case ')':
		return l.single(TokenRParen, pos)
	case '{':
		return l.single(TokenLBrace, pos)
	case '}':
		return l.single(TokenRBrace, pos)
	case '[':
		return l.single(TokenLBracket, pos)
	case ']':
		return l.single(TokenRBracket, pos)
	}

	return l.single(TokenIllegal, pos)
}

// single consumes the current character as a one-character token.
func (l *Lexer) single(t TokenType, pos Position) Token {
	lit := string(l.ch)
	l.readChar()
	return Token{Type: t, Literal: lit, Pos: pos}
}

// double consumes the current and next characters as one token.
func (l *Lexer) double(t TokenType, pos Position) Token {
	first := l.ch
	l.readChar()
	lit := string(first) + string(l.ch)
	l.readChar()
	return Token{Type: t, Literal: lit, Pos: pos}
}

// either produces the two-character token when the next character is next,
// and the one-character token otherwise.
func (l *Lexer) either(next rune, two, one TokenType, pos Position) Token {
	if l.peekChar() == next {
		return l.double(two, pos)
	}
	return l.single(one, pos)
}

// skipWhitespace skips spaces, tabs and newlines.
func (l *Lexer) skipWhitespace() {
	for !l.atEOF() && (l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r') {
		l.readChar()
	}
}

// readComment reads a # comment up to the end of the line.
func (l *Lexer) readComment(pos Position) Token {
	l.readChar() // skip #
	start := l.pos
	for !l.atEOF() && l.ch != '\n' {
		l.readChar()
	}
	return Token{Type: TokenComment, Literal: strings.TrimSpace(l.input[start:l.pos]), Pos: pos}
}

// readString reads a double-quoted string literal. An unterminated string
// runs to the end of the input.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // skip opening quote

	var sb strings.Builder
	for !l.atEOF() && l.ch != '"' {
		if l.ch == '\\' {
			l.readChar()
			if l.atEOF() {
				sb.WriteRune('\\')
				break
			}
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	if l.ch == '"' {
		l.readChar() // skip closing quote
	}

	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readNumber reads digits with at most one fractional part.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // skip .
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: pos}
}

// readIdentifierOrKeyword reads an identifier and classifies it.
func (l *Lexer) readIdentifierOrKeyword(pos Position) Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	ident := l.input[start:l.pos]
	return Token{Type: LookupIdent(ident), Literal: ident, Pos: pos}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// Incomplete reports whether input ends inside an open bracket, brace or
// parenthesis, so an interactive reader should ask for another line.
func Incomplete(input string) bool {
	depth := 0
	for _, tok := range Tokenize(input) {
		switch tok.Type {
		case TokenLParen, TokenLBrace, TokenLBracket:
			depth++
		case TokenRParen, TokenRBrace, TokenRBracket:
			depth--
		}
	}
	return depth > 0
}
