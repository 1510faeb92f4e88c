package sourcelang

import "fmt"

// Parser is a recursive-descent parser over a Token stream. It is
// deliberately permissive: the collector only needs a best-effort AST for
// the declaration shapes §4.2.1 describes, not a validating front end for
// the full source language.
type Parser struct {
	toks []Token
	pos  int
	pend []string // doc comments pending attachment to the next declaration
}

// NewParser builds a Parser over pre-lexed tokens.
func NewParser(toks []Token) *Parser {
	return &Parser{toks: toks}
}

// Parse lexes path's contents are not read here — callers tokenize first
// via NewLexer(src).Tokenize() and pass the result to NewParser. Parse
// walks the token stream and returns the file's top-level declarations.
func (p *Parser) Parse(path string) (*File, error) {
	f := &File{Path: path}
	for !p.atEOF() {
		p.collectDocComments()
		if p.atEOF() {
			break
		}
		if p.cur().Kind == TokKwInclude {
			p.advance()
			if p.cur().Kind == TokString {
				f.Includes = append(f.Includes, p.cur().Text)
				p.advance()
			}
			p.expect(TokSemi)
			continue
		}
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	return f, nil
}

func (p *Parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return Token{Kind: TokEOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == TokEOF }

func (p *Parser) expect(k TokenKind) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, fmt.Errorf("line %d: unexpected token %q", p.cur().Line, p.cur().Text)
	}
	return p.advance(), nil
}

// collectDocComments gathers any run of TokDocComment tokens immediately
// preceding the next declaration (§6 "doc-comment iteration").
func (p *Parser) collectDocComments() {
	p.pend = nil
	for p.cur().Kind == TokDocComment {
		p.pend = append(p.pend, p.cur().Text)
		p.advance()
	}
}

func (p *Parser) takeDocs() []string {
	d := p.pend
	p.pend = nil
	return d
}

func (p *Parser) parseDecl() (Decl, error) {
	doc := p.takeDocs()

	visibility := ""
	if p.cur().Kind == TokKwPublic || p.cur().Kind == TokKwPrivate {
		visibility = p.cur().Text
		p.advance()
	}

	switch p.cur().Kind {
	case TokKwScope:
		return p.parseScope(doc)
	case TokKwStruct:
		return p.parseStruct(doc)
	case TokKwRegister:
		return p.parseRegister(doc)
	case TokKwBitmap:
		return p.parseBitmap(doc)
	}

	isConst := false
	if p.cur().Kind == TokKwConst {
		isConst = true
		p.advance()
	}

	typeTok, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}

	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}

	if p.cur().Kind == TokLParen {
		return p.parseFunctionTail(doc, visibility, typeTok, nameTok)
	}

	return p.parseVariableTail(doc, isConst, typeTok, nameTok)
}

// parseTypeName accepts a base type name plus any trailing `*` pointer
// markers and a `<N>` string-length suffix, returning it all as one textual
// type (matching the declarator-text approach §6 describes for the C/C++
// collectors).
func (p *Parser) parseTypeName() (string, error) {
	tok, err := p.expect(TokIdent)
	if err != nil {
		return "", err
	}
	text := tok.Text
	for p.cur().Kind == TokStar {
		text += "*"
		p.advance()
	}
	if p.cur().Kind == TokLt {
		p.advance()
		n, err := p.expect(TokInt)
		if err != nil {
			return "", err
		}
		if _, err := p.expect(TokGt); err != nil {
			return "", err
		}
		text += "<" + n.Text + ">"
	}
	return text, nil
}

func (p *Parser) parseScope(doc []string) (Decl, error) {
	p.advance() // 'scope'
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	d := &ScopeDecl{base: base{NameTok: name, Doc: doc}}
	for p.cur().Kind != TokRBrace && !p.atEOF() {
		p.collectDocComments()
		if p.cur().Kind == TokRBrace {
			break
		}
		member, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		if member != nil {
			d.Members = append(d.Members, member)
		}
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseStruct(doc []string) (Decl, error) {
	p.advance() // 'struct'
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	d := &StructDecl{base: base{NameTok: name, Doc: doc}}
	for p.cur().Kind != TokRBrace && !p.atEOF() {
		f, err := p.parseField("")
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, f)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseRegister(doc []string) (Decl, error) {
	p.advance() // 'register'
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	d := &RegisterDecl{base: base{NameTok: name, Doc: doc}}
	for p.cur().Kind != TokRBrace && !p.atEOF() {
		access := ""
		switch p.cur().Kind {
		case TokKwRW:
			access = "rw"
			p.advance()
		case TokKwRO:
			access = "ro"
			p.advance()
		case TokKwWO:
			access = "wo"
			p.advance()
		}
		f, err := p.parseField(access)
		if err != nil {
			return nil, err
		}
		d.Members = append(d.Members, f)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) parseBitmap(doc []string) (Decl, error) {
	p.advance() // 'bitmap'
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	backing := ""
	if p.cur().Kind == TokColon {
		p.advance()
		t, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		backing = t.Text
	}
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	d := &BitmapDecl{base: base{NameTok: name, Doc: doc}, BackingType: backing}
	for p.cur().Kind != TokRBrace && !p.atEOF() {
		fieldDoc := p.collectFieldDocs()
		width := 1
		switch p.cur().Kind {
		case TokKwBit:
			p.advance()
		case TokKwBits:
			p.advance()
			n, err := p.expect(TokInt)
			if err != nil {
				return nil, err
			}
			width = atoiSimple(n.Text)
		default:
			return nil, fmt.Errorf("line %d: expected 'bit' or 'bits' in bitmap", p.cur().Line)
		}
		name, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokSemi); err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, Field{NameTok: name, BitWidth: width, Doc: fieldDoc})
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *Parser) collectFieldDocs() []string {
	var docs []string
	for p.cur().Kind == TokDocComment {
		docs = append(docs, p.cur().Text)
		p.advance()
	}
	return docs
}

func (p *Parser) parseField(access string) (Field, error) {
	doc := p.collectFieldDocs()
	isConst := false
	if p.cur().Kind == TokKwConst {
		isConst = true
		p.advance()
	}
	typ, err := p.parseTypeName()
	if err != nil {
		return Field{}, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return Field{}, err
	}
	var dims []Dim
	isArray := false
	for p.cur().Kind == TokLBracket {
		isArray = true
		p.advance()
		if p.cur().Kind == TokRBracket {
			dims = append(dims, Dim{Text: ""})
		} else {
			d, err := p.parseDimExpr()
			if err != nil {
				return Field{}, err
			}
			dims = append(dims, d)
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return Field{}, err
		}
	}
	if _, err := p.expect(TokSemi); err != nil {
		return Field{}, err
	}
	return Field{NameTok: name, Type: typ, IsConst: isConst, IsArray: isArray, Dims: dims, Access: access, Doc: doc}, nil
}

// parseDimExpr accepts either a decimal literal or a bare identifier
// (macro/const reference) as an array dimension, stored verbatim for
// internal/typeutil to resolve later.
func (p *Parser) parseDimExpr() (Dim, error) {
	tok := p.cur()
	if tok.Kind != TokInt && tok.Kind != TokIdent {
		return Dim{}, fmt.Errorf("line %d: expected array dimension", tok.Line)
	}
	p.advance()
	return Dim{Text: tok.Text}, nil
}

func (p *Parser) parseFunctionTail(doc []string, visibility, retType string, nameTok Token) (Decl, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var params []Param
	for p.cur().Kind != TokRParen {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.cur().Kind == TokComma {
			p.advance()
		}
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}

	d := &FunctionDecl{base: base{NameTok: nameTok, Doc: doc}, ReturnType: retType, Params: params, Visibility: visibility}

	if p.cur().Kind == TokSemi {
		p.advance()
		return d, nil
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	d.Body = body
	return d, nil
}

func (p *Parser) parseParam() (Param, error) {
	isConst := false
	if p.cur().Kind == TokKwConst {
		isConst = true
		p.advance()
	}
	typ, err := p.parseTypeName()
	if err != nil {
		return Param{}, err
	}
	name, err := p.expect(TokIdent)
	if err != nil {
		return Param{}, err
	}
	var dims []Dim
	isArray := false
	for p.cur().Kind == TokLBracket {
		isArray = true
		p.advance()
		if p.cur().Kind == TokRBracket {
			dims = append(dims, Dim{Text: ""})
		} else {
			d, err := p.parseDimExpr()
			if err != nil {
				return Param{}, err
			}
			dims = append(dims, d)
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return Param{}, err
		}
	}
	return Param{NameTok: name, Type: typ, IsConst: isConst, IsArray: isArray, Dims: dims}, nil
}

func (p *Parser) parseVariableTail(doc []string, isConst bool, typ string, nameTok Token) (Decl, error) {
	var dims []Dim
	isArray := false
	for p.cur().Kind == TokLBracket {
		isArray = true
		p.advance()
		if p.cur().Kind == TokRBracket {
			dims = append(dims, Dim{Text: ""})
		} else {
			d, err := p.parseDimExpr()
			if err != nil {
				return nil, err
			}
			dims = append(dims, d)
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return nil, err
		}
	}

	var init Expr
	if p.cur().Kind == TokAssign || p.cur().Kind == TokArrow {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init = e
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return &VariableDecl{base: base{NameTok: nameTok, Doc: doc}, Type: typ, IsConst: isConst, IsArray: isArray, Dims: dims, Initializer: init}, nil
}

// ---- Statements ----

func (p *Parser) parseBlock() (*Block, error) {
	start := p.cur().Line
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	b := &Block{LineNo: start}
	for p.cur().Kind != TokRBrace && !p.atEOF() {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return b, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.cur().Kind {
	case TokKwIf:
		return p.parseIf()
	case TokKwReturn:
		return p.parseReturn()
	case TokLBrace:
		return p.parseBlock()
	}

	if p.looksLikeLocalVarDecl() {
		return p.parseLocalVarDecl()
	}

	line := p.cur().Line
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return &ExprStmt{X: e, LineNo: line}, nil
}

// looksLikeLocalVarDecl distinguishes `Type name ...` from an expression
// statement: an identifier (optionally preceded by `const`) followed by a
// second identifier starts a declaration.
func (p *Parser) looksLikeLocalVarDecl() bool {
	i := 0
	if p.peekAt(i).Kind == TokKwConst {
		i++
	}
	if p.peekAt(i).Kind != TokIdent {
		return false
	}
	i++
	for p.peekAt(i).Kind == TokStar {
		i++
	}
	if p.peekAt(i).Kind == TokLt {
		for p.peekAt(i).Kind != TokGt && p.peekAt(i).Kind != TokEOF {
			i++
		}
		i++ // consume '>'
	}
	return p.peekAt(i).Kind == TokIdent
}

func (p *Parser) parseLocalVarDecl() (Stmt, error) {
	isConst := false
	if p.cur().Kind == TokKwConst {
		isConst = true
		p.advance()
	}
	typ, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	var dims []Dim
	isArray := false
	for p.cur().Kind == TokLBracket {
		isArray = true
		p.advance()
		if p.cur().Kind == TokRBracket {
			dims = append(dims, Dim{Text: ""})
		} else {
			d, err := p.parseDimExpr()
			if err != nil {
				return nil, err
			}
			dims = append(dims, d)
		}
		if _, err := p.expect(TokRBracket); err != nil {
			return nil, err
		}
	}
	var init Expr
	if p.cur().Kind == TokAssign || p.cur().Kind == TokArrow {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		init = e
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return &LocalVarStmt{NameTok: nameTok, Type: typ, IsConst: isConst, IsArray: isArray, Dims: dims, Initializer: init}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	line := p.cur().Line
	p.advance() // 'if'
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBlock *Block
	if p.cur().Kind == TokKwElse {
		p.advance()
		if p.cur().Kind == TokKwIf {
			inner, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			elseBlock = &Block{Stmts: []Stmt{inner}, LineNo: inner.Line()}
		} else {
			b, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			elseBlock = b
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: elseBlock, LineNo: line}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	line := p.cur().Line
	p.advance() // 'return'
	var val Expr
	if p.cur().Kind != TokSemi {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		val = e
	}
	if _, err := p.expect(TokSemi); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: val, LineNo: line}, nil
}

// ---- Expressions (precedence climbing) ----

func (p *Parser) parseExpr() (Expr, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (Expr, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind == TokAssign || p.cur().Kind == TokArrow {
		op := p.cur().Text
		line := p.cur().Line
		p.advance()
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Target: left, Op: op, Value: right, LineNo: line}, nil
	}
	return left, nil
}

func (p *Parser) parseLogicalOr() (Expr, error) {
	return p.parseBinary([]TokenKind{TokPipePipe}, p.parseLogicalAnd)
}
func (p *Parser) parseLogicalAnd() (Expr, error) {
	return p.parseBinary([]TokenKind{TokAmpAmp}, p.parseBitOr)
}
func (p *Parser) parseBitOr() (Expr, error) {
	return p.parseBinary([]TokenKind{TokPipe}, p.parseBitXor)
}
func (p *Parser) parseBitXor() (Expr, error) {
	return p.parseBinary([]TokenKind{TokCaret}, p.parseBitAnd)
}
func (p *Parser) parseBitAnd() (Expr, error) {
	return p.parseBinary([]TokenKind{TokAmp}, p.parseEquality)
}
func (p *Parser) parseEquality() (Expr, error) {
	return p.parseBinary([]TokenKind{TokEq, TokNe}, p.parseRelational)
}
func (p *Parser) parseRelational() (Expr, error) {
	return p.parseBinary([]TokenKind{TokLt, TokGt, TokLe, TokGe}, p.parseShift)
}
func (p *Parser) parseShift() (Expr, error) {
	return p.parseBinary([]TokenKind{TokShl, TokShr}, p.parseAdditive)
}
func (p *Parser) parseAdditive() (Expr, error) {
	return p.parseBinary([]TokenKind{TokPlus, TokMinus}, p.parseMultiplicative)
}
func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary([]TokenKind{TokStar, TokSlash, TokPercent}, p.parseUnary)
}

func (p *Parser) parseBinary(kinds []TokenKind, next func() (Expr, error)) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for contains(kinds, p.cur().Kind) {
		op := p.cur().Text
		line := p.cur().Line
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, LineNo: line}
	}
	return left, nil
}

func contains(kinds []TokenKind, k TokenKind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() (Expr, error) {
	switch p.cur().Kind {
	case TokBang, TokMinus, TokTilde:
		op := p.cur().Text
		line := p.cur().Line
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x, LineNo: line}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case TokLParen:
			line := p.cur().Line
			p.advance()
			var args []Expr
			for p.cur().Kind != TokRParen {
				a, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.cur().Kind == TokComma {
					p.advance()
				}
			}
			if _, err := p.expect(TokRParen); err != nil {
				return nil, err
			}
			e = &CallExpr{Callee: e, Args: args, LineNo: line}
		case TokLBracket:
			line := p.cur().Line
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokRBracket); err != nil {
				return nil, err
			}
			e = &IndexExpr{Base: e, Index: idx, LineNo: line}
		case TokDot:
			line := p.cur().Line
			p.advance()
			name, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			e = &MemberExpr{Base: e, Name: name.Text, LineNo: line}
		default:
			return e, nil
		}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokInt:
		p.advance()
		return &IntLit{Tok: tok}, nil
	case TokFloat:
		p.advance()
		return &FloatLit{Tok: tok}, nil
	case TokString:
		p.advance()
		return &StringLit{Tok: tok}, nil
	case TokKwNull:
		p.advance()
		return &NullLit{Tok: tok}, nil
	case TokIdent:
		p.advance()
		return &Ident{NameTok: tok}, nil
	case TokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("line %d: unexpected token %q in expression", tok.Line, tok.Text)
}

func atoiSimple(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Parse is a convenience wrapper lexing and parsing src in one step. Plain
// comment tokens are pulled out of the stream the parser sees (it only
// understands doc comments) and attached to the resulting File for phase
// 10's token-stream scan; doc comments stay in the parser's stream and are
// recorded on the File as well.
func Parse(path, src string) (*File, error) {
	all := NewLexer(src).Tokenize()
	var parserToks, comments []Token
	for _, t := range all {
		if t.Kind == TokLineComment || t.Kind == TokBlockComment {
			comments = append(comments, t)
			continue
		}
		if t.Kind == TokDocComment {
			comments = append(comments, t)
		}
		parserToks = append(parserToks, t)
	}
	f, err := NewParser(parserToks).Parse(path)
	if err != nil {
		return nil, err
	}
	f.Comments = comments
	return f, nil
}
