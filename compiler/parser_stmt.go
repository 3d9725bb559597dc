package compiler

// ---------------------------------------------------------------------------
// Statement parsing
// ---------------------------------------------------------------------------

func (p *Parser) registerStatements() {
	p.stmtFns = map[TokenType]stmtParseFn{
		TokenNum:      p.parseVarDecl,
		TokenStr:      p.parseVarDecl,
		TokenBool:     p.parseVarDecl,
		TokenVar:      p.parseVarDecl,
		TokenConst:    p.parseConstDecl,
		TokenEnum:     p.parseEnumDecl,
		TokenClass:    p.parseClassDecl,
		TokenFun:      p.parseFunctionDecl,
		TokenReturn:   p.parseReturnStmt,
		TokenIf:       p.parseIfStmt,
		TokenWhile:    p.parseWhileStmt,
		TokenFor:      p.parseForStmt,
		TokenBreak:    p.parseBreakStmt,
		TokenContinue: p.parseContinueStmt,
		TokenShow:     p.parseShowStmt,
		TokenRead:     p.parseReadStmt,
		TokenExit:     p.parseExitStmt,
		TokenTry:      p.parseTryStmt,
		TokenThrow:    p.parseThrowStmt,
		TokenUse:      p.parseUseStmt,
		TokenImport:   p.parseImportStmt,
		TokenExport:   p.parseExportStmt,
		TokenLib:      p.parseLibStmt,
		TokenDocType:  p.parseDocTypeStmt,
		TokenDebug:    p.parseDebugStmt,
		TokenTrace:    p.parseTraceStmt,
		TokenAssert:   p.parseAssertStmt,
		TokenLBrace:   p.parseBlockStmt,
		TokenComment:  func() Stmt { return nil },
	}
	for t := TokenGrammar; t <= TokenAttribute; t++ {
		p.stmtFns[t] = p.parseConstructStmt
	}
}

// parseStatement dispatches on the current token. Anything without a
// dedicated parser is an expression statement.
func (p *Parser) parseStatement() Stmt {
	if p.curTokenIs(TokenSemicolon) {
		return nil
	}
	if fn, ok := p.stmtFns[p.curToken.Type]; ok {
		return fn()
	}
	return p.parseExpressionStmt()
}

func (p *Parser) parseExpressionStmt() Stmt {
	pos := p.curToken.Pos
	expr := p.parseExpression(precLowest)
	if expr == nil {
		return nil
	}
	p.skipTerminator()
	return &ExprStmt{PosVal: pos, Expr: expr}
}

// parseBlock parses { statements }. The current token is the opening brace;
// on return it is the closing brace.
func (p *Parser) parseBlock() *BlockStmt {
	block := &BlockStmt{PosVal: p.curToken.Pos}
	p.nextToken()
	for !p.curTokenIs(TokenRBrace) {
		if p.curTokenIs(TokenEOF) {
			p.errorAt(block.PosVal, KindSyntax, "unterminated block")
			return block
		}
		if stmt := p.parseStatement(); stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	return block
}

func (p *Parser) parseBlockStmt() Stmt {
	return p.parseBlock()
}

// expectBlock advances to { and parses a block.
func (p *Parser) expectBlock() *BlockStmt {
	if !p.expectPeek(TokenLBrace) {
		return nil
	}
	return p.parseBlock()
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

var declKinds = map[TokenType]DeclKind{
	TokenNum:  DeclNum,
	TokenStr:  DeclStr,
	TokenBool: DeclBool,
	TokenVar:  DeclVar,
}

func (p *Parser) parseVarDecl() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	decl := &VarDecl{PosVal: tok.Pos, Kind: declKinds[tok.Type], Name: p.curToken.Literal}
	if p.peekTokenIs(TokenAssign) {
		p.nextToken()
		p.nextToken()
		decl.Value = p.parseExpression(precLowest)
		if decl.Value == nil {
			return nil
		}
	}
	p.skipTerminator()
	return decl
}

func (p *Parser) parseConstDecl() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	name := p.curToken.Literal
	if !p.peekTokenIs(TokenAssign) {
		p.errorAt(tok.Pos, KindSemantic, "constant %s must be initialized", name)
		p.skipTerminator()
		return nil
	}
	p.nextToken()
	p.nextToken()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return &ConstDecl{PosVal: tok.Pos, Name: name, Value: value}
}

func (p *Parser) parseEnumDecl() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	decl := &EnumDecl{PosVal: tok.Pos, Name: p.curToken.Literal}
	if !p.expectPeek(TokenLBrace) {
		return nil
	}
	seen := map[string]bool{}
	for !p.peekTokenIs(TokenRBrace) {
		if !p.expectPeek(TokenIdentifier) {
			return nil
		}
		member := EnumMember{Name: p.curToken.Literal}
		if seen[member.Name] {
			p.errorAt(p.curToken.Pos, KindSemantic, "duplicate enum member %s", member.Name)
		}
		seen[member.Name] = true
		if p.peekTokenIs(TokenAssign) {
			p.nextToken()
			p.nextToken()
			member.Value = p.parseExpression(precLowest)
			if member.Value == nil {
				return nil
			}
		}
		decl.Members = append(decl.Members, member)
		if !p.peekTokenIs(TokenRBrace) && !p.expectPeek(TokenComma) {
			return nil
		}
	}
	p.nextToken()
	p.skipTerminator()
	return decl
}

func (p *Parser) parseClassDecl() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	name := p.curToken.Literal
	body := p.expectBlock()
	if body == nil {
		return nil
	}
	for _, s := range body.Statements {
		switch s.(type) {
		case *VarDecl, *ConstDecl, *FunctionDecl, *EnumDecl:
		default:
			p.errorAt(s.Pos(), KindSemantic, "class %s may only contain declarations", name)
		}
	}
	return &ClassDecl{PosVal: tok.Pos, Name: name, Body: body}
}

func (p *Parser) parseFunctionDecl() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	fn := &FunctionDecl{PosVal: tok.Pos, Name: p.curToken.Literal}
	if !p.expectPeek(TokenLParen) {
		return nil
	}
	fn.Params = p.parseParameters()
	if fn.Params == nil {
		return nil
	}
	fn.Body = p.expectBlock()
	if fn.Body == nil {
		return nil
	}
	return fn
}

// parseParameters parses (a, b, c). The current token is the opening paren;
// on success it is the closing paren.
func (p *Parser) parseParameters() []string {
	params := []string{}
	if p.peekTokenIs(TokenRParen) {
		p.nextToken()
		return params
	}
	seen := map[string]bool{}
	for {
		if !p.expectPeek(TokenIdentifier) {
			return nil
		}
		name := p.curToken.Literal
		if seen[name] {
			p.errorAt(p.curToken.Pos, KindSemantic, "duplicate parameter %s", name)
		}
		seen[name] = true
		params = append(params, name)
		if !p.peekTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(TokenRParen) {
		return nil
	}
	return params
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

func (p *Parser) parseReturnStmt() Stmt {
	stmt := &ReturnStmt{PosVal: p.curToken.Pos}
	if p.peekTokenIs(TokenSemicolon) || p.peekTokenIs(TokenRBrace) || p.peekTokenIs(TokenEOF) {
		p.skipTerminator()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(precLowest)
	if stmt.Value == nil {
		return nil
	}
	p.skipTerminator()
	return stmt
}

// parseIfStmt parses if/elif/else chains. The current token is if or elif.
func (p *Parser) parseIfStmt() Stmt {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if cond == nil {
		return nil
	}
	then := p.expectBlock()
	if then == nil {
		return nil
	}
	stmt := &IfStmt{PosVal: tok.Pos, Cond: cond, Then: then}

	switch {
	case p.peekTokenIs(TokenElif):
		p.nextToken()
		nested := p.parseIfStmt()
		if nested == nil {
			return nil
		}
		stmt.Else = &BlockStmt{PosVal: nested.Pos(), Statements: []Stmt{nested}}
	case p.peekTokenIs(TokenElse):
		p.nextToken()
		if p.peekTokenIs(TokenIf) {
			p.nextToken()
			nested := p.parseIfStmt()
			if nested == nil {
				return nil
			}
			stmt.Else = &BlockStmt{PosVal: nested.Pos(), Statements: []Stmt{nested}}
			break
		}
		stmt.Else = p.expectBlock()
		if stmt.Else == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhileStmt() Stmt {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if cond == nil {
		return nil
	}
	body := p.expectBlock()
	if body == nil {
		return nil
	}
	return &WhileStmt{PosVal: tok.Pos, Cond: cond, Body: body}
}

// parseForStmt parses for (x in items) { } with optional parentheses.
func (p *Parser) parseForStmt() Stmt {
	tok := p.curToken
	paren := p.peekTokenIs(TokenLParen)
	if paren {
		p.nextToken()
	}
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	name := p.curToken.Literal
	if !p.expectPeek(TokenIn) {
		return nil
	}
	p.nextToken()
	iter := p.parseExpression(precLowest)
	if iter == nil {
		return nil
	}
	if paren && !p.expectPeek(TokenRParen) {
		return nil
	}
	body := p.expectBlock()
	if body == nil {
		return nil
	}
	return &ForStmt{PosVal: tok.Pos, Var: name, Iterable: iter, Body: body}
}

func (p *Parser) parseBreakStmt() Stmt {
	stmt := &BreakStmt{PosVal: p.curToken.Pos}
	p.skipTerminator()
	return stmt
}

func (p *Parser) parseContinueStmt() Stmt {
	stmt := &ContinueStmt{PosVal: p.curToken.Pos}
	p.skipTerminator()
	return stmt
}

// ---------------------------------------------------------------------------
// I/O
// ---------------------------------------------------------------------------

// parseShowStmt parses show value and show(color) value. A parenthesized
// name is a color when the token after the closing paren can start an
// expression; otherwise the parens group the value.
func (p *Parser) parseShowStmt() Stmt {
	stmt := &ShowStmt{PosVal: p.curToken.Pos}
	p.nextToken()
	if p.curTokenIs(TokenLParen) && p.peekTokenIs(TokenIdentifier) {
		ahead := p.scanAhead(2)
		if ahead[0].Type == TokenRParen && p.prefixFns[ahead[1].Type] != nil {
			p.nextToken()
			stmt.Color = p.curToken.Literal
			p.nextToken()
			p.nextToken()
		}
	}
	stmt.Value = p.parseExpression(precLowest)
	if stmt.Value == nil {
		return nil
	}
	p.skipTerminator()
	return stmt
}

func (p *Parser) parseReadStmt() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenIdentifier) {
		return nil
	}
	stmt := &ReadStmt{PosVal: tok.Pos, Name: p.curToken.Literal}
	p.skipTerminator()
	return stmt
}

func (p *Parser) parseExitStmt() Stmt {
	stmt := &ExitStmt{PosVal: p.curToken.Pos}
	p.skipTerminator()
	return stmt
}

// ---------------------------------------------------------------------------
// Exceptions
// ---------------------------------------------------------------------------

func (p *Parser) parseTryStmt() Stmt {
	tok := p.curToken
	body := p.expectBlock()
	if body == nil {
		return nil
	}
	stmt := &TryStmt{PosVal: tok.Pos, Body: body}

	if p.peekTokenIs(TokenCatch) {
		p.nextToken()
		switch {
		case p.peekTokenIs(TokenLParen):
			p.nextToken()
			if !p.expectPeek(TokenIdentifier) {
				return nil
			}
			stmt.CatchName = p.curToken.Literal
			if !p.expectPeek(TokenRParen) {
				return nil
			}
		case p.peekTokenIs(TokenIdentifier):
			p.nextToken()
			stmt.CatchName = p.curToken.Literal
		}
		stmt.Catch = p.expectBlock()
		if stmt.Catch == nil {
			return nil
		}
	}

	if p.peekTokenIs(TokenFinally) {
		p.nextToken()
		stmt.Finally = p.expectBlock()
		if stmt.Finally == nil {
			return nil
		}
	}

	if stmt.Catch == nil && stmt.Finally == nil {
		p.errorAt(tok.Pos, KindSyntax, "try requires catch or finally")
		return nil
	}
	return stmt
}

func (p *Parser) parseThrowStmt() Stmt {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return &ThrowStmt{PosVal: tok.Pos, Value: value}
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

// parseNameList parses a, b, c starting at the peek token.
func (p *Parser) parseNameList() []string {
	var names []string
	for {
		if !p.expectPeekName() {
			return nil
		}
		names = append(names, nameOf(p.curToken))
		if !p.peekTokenIs(TokenComma) {
			return names
		}
		p.nextToken()
	}
}

// parseImportTail parses the optional "as alias" and "from source" clauses.
func (p *Parser) parseImportTail(stmt *ImportStmt) bool {
	if p.peekTokenIs(TokenAs) {
		p.nextToken()
		if !p.expectPeek(TokenIdentifier) {
			return false
		}
		stmt.Alias = p.curToken.Literal
	}
	if p.peekTokenIs(TokenFrom) {
		p.nextToken()
		if !p.expectPeek(TokenString) {
			return false
		}
		stmt.Source = p.curToken.Literal
	}
	p.skipTerminator()
	return true
}

// parseUseStmt parses use names [as alias] [from "source"] and
// use "source" [as alias].
func (p *Parser) parseUseStmt() Stmt {
	stmt := &ImportStmt{PosVal: p.curToken.Pos, Keyword: "use"}
	if p.peekTokenIs(TokenString) {
		p.nextToken()
		stmt.Source = p.curToken.Literal
	} else {
		stmt.Names = p.parseNameList()
		if stmt.Names == nil {
			return nil
		}
	}
	if !p.parseImportTail(stmt) {
		return nil
	}
	return stmt
}

// parseImportStmt parses import "source" [as alias] and
// import { a, b } from "source".
func (p *Parser) parseImportStmt() Stmt {
	stmt := &ImportStmt{PosVal: p.curToken.Pos, Keyword: "import"}
	switch {
	case p.peekTokenIs(TokenString):
		p.nextToken()
		stmt.Source = p.curToken.Literal
	case p.peekTokenIs(TokenLBrace):
		p.nextToken()
		stmt.Names = p.parseNameList()
		if stmt.Names == nil || !p.expectPeek(TokenRBrace) {
			return nil
		}
		if !p.expectPeek(TokenFrom) || !p.expectPeek(TokenString) {
			return nil
		}
		stmt.Source = p.curToken.Literal
	default:
		stmt.Names = p.parseNameList()
		if stmt.Names == nil {
			return nil
		}
	}
	if !p.parseImportTail(stmt) {
		return nil
	}
	return stmt
}

func (p *Parser) parseExportStmt() Stmt {
	tok := p.curToken
	names := p.parseNameList()
	if names == nil {
		return nil
	}
	p.skipTerminator()
	return &ExportStmt{PosVal: tok.Pos, Names: names}
}

func (p *Parser) parseLibStmt() Stmt {
	tok := p.curToken
	if !p.expectPeekName() {
		return nil
	}
	stmt := &LibStmt{PosVal: tok.Pos, Name: nameOf(p.curToken)}
	p.skipTerminator()
	return stmt
}

func (p *Parser) parseDocTypeStmt() Stmt {
	tok := p.curToken
	if !p.expectPeekName() {
		return nil
	}
	stmt := &DocTypeStmt{PosVal: tok.Pos, Name: p.curToken.Literal}
	p.skipTerminator()
	return stmt
}

// ---------------------------------------------------------------------------
// Debugging
// ---------------------------------------------------------------------------

func (p *Parser) parseDebugStmt() Stmt {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return &DebugStmt{PosVal: tok.Pos, Value: value}
}

func (p *Parser) parseTraceStmt() Stmt {
	tok := p.curToken
	p.nextToken()
	value := p.parseExpression(precLowest)
	if value == nil {
		return nil
	}
	p.skipTerminator()
	return &TraceStmt{PosVal: tok.Pos, Value: value}
}

// parseAssertStmt parses assert(cond) and assert(cond, message).
func (p *Parser) parseAssertStmt() Stmt {
	tok := p.curToken
	if !p.expectPeek(TokenLParen) {
		return nil
	}
	p.nextToken()
	stmt := &AssertStmt{PosVal: tok.Pos}
	stmt.Cond = p.parseExpression(precLowest)
	if stmt.Cond == nil {
		return nil
	}
	if p.peekTokenIs(TokenComma) {
		p.nextToken()
		p.nextToken()
		stmt.Message = p.parseExpression(precLowest)
		if stmt.Message == nil {
			return nil
		}
	}
	if !p.expectPeek(TokenRParen) {
		return nil
	}
	p.skipTerminator()
	return stmt
}

// ---------------------------------------------------------------------------
// Compiler-construction DSL
// ---------------------------------------------------------------------------

func (p *Parser) parseConstructStmt() Stmt {
	tok := p.curToken
	if !p.expectPeekName() {
		return nil
	}
	stmt := &ConstructStmt{PosVal: tok.Pos, Kind: tok.Type, Name: p.curToken.Literal}

	switch {
	case p.peekTokenIs(TokenAssign):
		p.nextToken()
		p.nextToken()
		stmt.Value = p.parseExpression(precLowest)
		if stmt.Value == nil {
			return nil
		}
		p.skipTerminator()
	case tok.Type == TokenNode && p.peekTokenIs(TokenLBrace):
		p.nextToken()
		stmt.Fields = []string{}
		if !p.peekTokenIs(TokenRBrace) {
			stmt.Fields = p.parseNameList()
			if stmt.Fields == nil {
				return nil
			}
		}
		if !p.expectPeek(TokenRBrace) {
			return nil
		}
		p.skipTerminator()
	case p.peekTokenIs(TokenLBrace):
		p.nextToken()
		stmt.Body = p.parseBlock()
	default:
		p.errorAt(p.peekToken.Pos, KindSyntax, "expected = or { after %s %s, got %s", tok.Literal, stmt.Name, describe(p.peekToken))
		return nil
	}
	return stmt
}
