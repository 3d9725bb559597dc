package compiler

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Parser: Pratt parser for Razen
// ---------------------------------------------------------------------------

// Operator precedences, lowest to highest.
const (
	precLowest = iota
	precAssign
	precOr
	precAnd
	precEquals
	precCompare
	precSum
	precProduct
	precPower
	precPrefix
	precNamespace
	precCall
	precIndex
)

var precedences = map[TokenType]int{
	TokenAssign:        precAssign,
	TokenPlusAssign:    precAssign,
	TokenMinusAssign:   precAssign,
	TokenStarAssign:    precAssign,
	TokenSlashAssign:   precAssign,
	TokenPercentAssign: precAssign,
	TokenOr:            precOr,
	TokenAnd:           precAnd,
	TokenEq:            precEquals,
	TokenNotEq:         precEquals,
	TokenIs:            precEquals,
	TokenLT:            precCompare,
	TokenGT:            precCompare,
	TokenLTE:           precCompare,
	TokenGTE:           precCompare,
	TokenPlus:          precSum,
	TokenMinus:         precSum,
	TokenStar:          precProduct,
	TokenSlash:         precProduct,
	TokenPercent:       precProduct,
	TokenFloorDiv:      precProduct,
	TokenPower:         precPower,
	TokenColonColon:    precNamespace,
	TokenDot:           precNamespace,
	TokenLParen:        precCall,
	TokenLBracket:      precIndex,
}

type (
	prefixParseFn func() Expr
	infixParseFn  func(Expr) Expr
	stmtParseFn   func() Stmt
)

// Parser parses Razen source into an AST. Problems are collected as
// diagnostics; parsing always runs to the end of the input.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	diags     Diagnostics
	comments  []Token

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn
	stmtFns   map[TokenType]stmtParseFn
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.registerExpressions()
	p.registerStatements()

	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses input and returns the program with its diagnostics.
func Parse(input string) (*Program, Diagnostics) {
	p := NewParser(input)
	prog := p.ParseProgram()
	return prog, p.Diagnostics()
}

func (p *Parser) registerExpressions() {
	p.prefixFns = map[TokenType]prefixParseFn{
		TokenIdentifier: p.parseIdentifier,
		TokenNumber:     p.parseNumberLiteral,
		TokenString:     p.parseStringLiteral,
		TokenTrue:       p.parseBooleanLiteral,
		TokenFalse:      p.parseBooleanLiteral,
		TokenNull:       p.parseNullLiteral,
		TokenBang:       p.parsePrefixExpr,
		TokenNot:        p.parsePrefixExpr,
		TokenMinus:      p.parsePrefixExpr,
		TokenLParen:     p.parseGroupedExpr,
		TokenLBracket:   p.parseArrayLiteral,
		TokenLBrace:     p.parseMapLiteral,
		TokenIllegal:    p.parseIllegal,
	}
	for _, lk := range libraryKeywords {
		p.prefixFns[lk.Type] = p.parseLibraryExpr
	}
	// Conversion builtins share their names with declaration keywords.
	for _, t := range []TokenType{TokenNum, TokenStr, TokenBool, TokenDocType} {
		p.prefixFns[t] = p.parseConversionName
	}

	p.infixFns = map[TokenType]infixParseFn{
		TokenColonColon: p.parseNamespaceCall,
		TokenDot:        p.parseMemberAccess,
		TokenLParen:     p.parseCallExpr,
		TokenLBracket:   p.parseIndexExpr,
	}
	for _, t := range []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent, TokenFloorDiv,
		TokenPower, TokenEq, TokenNotEq, TokenIs, TokenLT, TokenGT, TokenLTE,
		TokenGTE, TokenAnd, TokenOr,
	} {
		p.infixFns[t] = p.parseInfixExpr
	}
	for _, t := range []TokenType{
		TokenAssign, TokenPlusAssign, TokenMinusAssign, TokenStarAssign,
		TokenSlashAssign, TokenPercentAssign,
	} {
		p.infixFns[t] = p.parseAssignExpr
	}
}

// nextToken advances to the next token. Comments are collected and never
// reach the grammar.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	for {
		p.peekToken = p.lexer.NextToken()
		if p.peekToken.Type != TokenComment {
			return
		}
		p.comments = append(p.comments, p.peekToken)
	}
}

// scanAhead returns the n tokens after peekToken without consuming them.
func (p *Parser) scanAhead(n int) []Token {
	lx := *p.lexer
	toks := make([]Token, 0, n)
	for len(toks) < n {
		if tok := lx.NextToken(); tok.Type != TokenComment {
			toks = append(toks, tok)
		}
	}
	return toks
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek advances if the peek token matches, otherwise records an error.
func (p *Parser) expectPeek(t TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorAt(p.peekToken.Pos, KindSyntax, "expected %s, got %s", t, describe(p.peekToken))
	return false
}

// expectPeekName advances over an identifier-like token (identifiers,
// keywords and library names all qualify).
func (p *Parser) expectPeekName() bool {
	if isNameToken(p.peekToken) {
		p.nextToken()
		return true
	}
	p.errorAt(p.peekToken.Pos, KindSyntax, "expected name, got %s", describe(p.peekToken))
	return false
}

// skipTerminator consumes an optional trailing semicolon.
func (p *Parser) skipTerminator() {
	if p.peekTokenIs(TokenSemicolon) {
		p.nextToken()
	}
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return precLowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return precLowest
}

// errorf records a syntax error at the current token.
func (p *Parser) errorf(format string, args ...any) {
	p.errorAt(p.curToken.Pos, KindSyntax, format, args...)
}

// errorAt records an error diagnostic.
func (p *Parser) errorAt(pos Position, kind DiagnosticKind, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns accumulated parse diagnostics.
func (p *Parser) Diagnostics() Diagnostics {
	return p.diags
}

// Errors returns accumulated parse errors as strings.
func (p *Parser) Errors() []string {
	out := make([]string, len(p.diags))
	for i, d := range p.diags {
		out[i] = d.String()
	}
	return out
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenIdentifier, TokenNumber:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case TokenString:
		return "string"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

func isNameToken(tok Token) bool {
	if tok.Type == TokenIdentifier {
		return true
	}
	if tok.Type == TokenString || tok.Type == TokenNumber || tok.Literal == "" {
		return false
	}
	r := []rune(tok.Literal)[0]
	return isLetter(r)
}

// nameOf returns the name carried by an identifier-like token, mapping
// library keywords to their canonical spelling.
func nameOf(tok Token) string {
	if name, ok := LibraryName(tok.Type); ok {
		return name
	}
	return tok.Literal
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses the whole input.
func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	for !p.curTokenIs(TokenEOF) {
		if stmt := p.parseStatement(); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	prog.Comments = p.comments
	return prog
}

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	return p.parseExpression(precLowest)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpression(prec int) Expr {
	prefix := p.prefixFns[p.curToken.Type]
	if prefix == nil {
		p.errorf("unexpected %s", describe(p.curToken))
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}

	for !p.peekTokenIs(TokenSemicolon) && prec < p.peekPrecedence() {
		infix := p.infixFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseIdentifier() Expr {
	return &Identifier{PosVal: p.curToken.Pos, Name: p.curToken.Literal}
}

// parseConversionName reads a keyword such as str or num used as the name
// of a call, as in str(5).
func (p *Parser) parseConversionName() Expr {
	if !p.peekTokenIs(TokenLParen) {
		p.errorf("unexpected %s in expression", p.curToken.Literal)
		return nil
	}
	return &Identifier{PosVal: p.curToken.Pos, Name: p.curToken.Literal}
}

func (p *Parser) parseIllegal() Expr {
	p.errorf("illegal character %q", p.curToken.Literal)
	return nil
}

func (p *Parser) parseNumberLiteral() Expr {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf("invalid number %q", p.curToken.Literal)
		return nil
	}
	return &NumberLiteral{PosVal: p.curToken.Pos, Value: v}
}

func (p *Parser) parseStringLiteral() Expr {
	return &StringLiteral{PosVal: p.curToken.Pos, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() Expr {
	return &BooleanLiteral{PosVal: p.curToken.Pos, Value: p.curTokenIs(TokenTrue)}
}

func (p *Parser) parseNullLiteral() Expr {
	return &NullLiteral{PosVal: p.curToken.Pos}
}

func (p *Parser) parsePrefixExpr() Expr {
	tok := p.curToken
	op := tok.Literal
	if tok.Type == TokenNot {
		op = "!"
	}
	p.nextToken()
	right := p.parseExpression(precPrefix)
	if right == nil {
		return nil
	}
	return &PrefixExpr{PosVal: tok.Pos, Operator: op, Right: right}
}

func (p *Parser) parseGroupedExpr() Expr {
	p.nextToken()
	expr := p.parseExpression(precLowest)
	if expr == nil {
		return nil
	}
	if !p.expectPeek(TokenRParen) {
		return nil
	}
	return expr
}

func (p *Parser) parseArrayLiteral() Expr {
	tok := p.curToken
	return &ArrayLiteral{PosVal: tok.Pos, Elements: p.parseExpressionList(TokenRBracket)}
}

func (p *Parser) parseMapLiteral() Expr {
	m := &MapLiteral{PosVal: p.curToken.Pos}
	for !p.peekTokenIs(TokenRBrace) {
		p.nextToken()

		var key Expr
		if p.curTokenIs(TokenIdentifier) && p.peekTokenIs(TokenColon) {
			key = &StringLiteral{PosVal: p.curToken.Pos, Value: p.curToken.Literal}
		} else {
			key = p.parseExpression(precLowest)
		}
		if key == nil || !p.expectPeek(TokenColon) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(precLowest)
		if value == nil {
			return nil
		}
		m.Pairs = append(m.Pairs, MapPair{Key: key, Value: value})

		if !p.peekTokenIs(TokenRBrace) && !p.expectPeek(TokenComma) {
			return nil
		}
	}
	p.nextToken()
	return m
}

// parseExpressionList parses comma-separated expressions up to end. The
// current token is the opening delimiter; on return it is end.
func (p *Parser) parseExpressionList(end TokenType) []Expr {
	var list []Expr
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	if e := p.parseExpression(precLowest); e != nil {
		list = append(list, e)
	}
	for p.peekTokenIs(TokenComma) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		if e := p.parseExpression(precLowest); e != nil {
			list = append(list, e)
		}
	}
	p.expectPeek(end)
	return list
}

// parseLibraryExpr parses Lib[fn](args). A library name not followed by [
// is an ordinary identifier (Math.sqrt, Math::sqrt).
func (p *Parser) parseLibraryExpr() Expr {
	tok := p.curToken
	lib := nameOf(tok)
	if !p.peekTokenIs(TokenLBracket) {
		return &Identifier{PosVal: tok.Pos, Name: lib}
	}
	p.nextToken()

	var fn string
	switch {
	case isNameToken(p.peekToken), p.peekTokenIs(TokenString):
		p.nextToken()
		fn = p.curToken.Literal
	default:
		p.errorAt(p.peekToken.Pos, KindSyntax, "expected function name in %s[...], got %s", lib, describe(p.peekToken))
		return nil
	}
	if !p.expectPeek(TokenRBracket) || !p.expectPeek(TokenLParen) {
		return nil
	}
	args := p.parseExpressionList(TokenRParen)
	return &LibraryCall{PosVal: tok.Pos, Library: lib, Function: fn, Args: args}
}

func (p *Parser) parseInfixExpr(left Expr) Expr {
	tok := p.curToken
	op := tok.Literal
	if tok.Type == TokenIs {
		op = "=="
	}
	prec := p.curPrecedence()
	if tok.Type == TokenPower {
		prec-- // right-associative
	}
	p.nextToken()
	right := p.parseExpression(prec)
	if right == nil {
		return nil
	}
	return &InfixExpr{PosVal: tok.Pos, Left: left, Operator: op, Right: right}
}

func (p *Parser) parseAssignExpr(target Expr) Expr {
	tok := p.curToken
	switch target.(type) {
	case *Identifier, *IndexExpr:
	default:
		p.errorAt(tok.Pos, KindSemantic, "cannot assign to %s", target)
	}
	p.nextToken()
	value := p.parseExpression(precAssign - 1)
	if value == nil {
		return nil
	}
	return &AssignExpr{PosVal: tok.Pos, Target: target, Operator: tok.Literal, Value: value}
}

func (p *Parser) parseNamespaceCall(left Expr) Expr {
	ns, ok := left.(*Identifier)
	if !ok {
		p.errorf("left side of :: must be a name, got %s", left)
		return nil
	}
	if !p.expectPeekName() {
		return nil
	}
	fn := p.curToken.Literal
	if !p.expectPeek(TokenLParen) {
		return nil
	}
	args := p.parseExpressionList(TokenRParen)
	return &NamespaceCall{PosVal: ns.PosVal, Namespace: ns.Name, Function: fn, Args: args}
}

func (p *Parser) parseMemberAccess(left Expr) Expr {
	obj, ok := left.(*Identifier)
	if !ok {
		p.errorf("member access requires a name on the left, got %s", left)
		return nil
	}
	if !p.expectPeekName() {
		return nil
	}
	return &Identifier{PosVal: obj.PosVal, Name: obj.Name + "." + p.curToken.Literal}
}

func (p *Parser) parseCallExpr(fn Expr) Expr {
	args := p.parseExpressionList(TokenRParen)
	return &CallExpr{PosVal: fn.Pos(), Function: fn, Args: args}
}

func (p *Parser) parseIndexExpr(left Expr) Expr {
	tok := p.curToken
	p.nextToken()
	index := p.parseExpression(precLowest)
	if index == nil {
		return nil
	}
	if !p.expectPeek(TokenRBracket) {
		return nil
	}
	return &IndexExpr{PosVal: tok.Pos, Left: left, Index: index}
}
