package parser

import (
	"strings"

	"github.com/module/scripthost/errext"
	"github.com/module/scripthost/internal/ast"
)

// parseExpr parses a comma (sequence) expression, the widest expression
// grammar rule.
func (p *Parser) parseExpr() (ast.Expr, error) {
	first, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if !p.isPunct(",") {
		return first, nil
	}
	exprs := []ast.Expr{first}
	for p.acceptPunct(",") {
		next, err := p.parseConditional()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
	}
	return &ast.SequenceExpr{Exprs: exprs}, nil
}

// parseAssignExpr is the grammar entry point used everywhere a single
// (non-comma) expression is expected, e.g. call arguments and array
// elements.
func (p *Parser) parseAssignExpr() (ast.Expr, error) {
	return p.parseConditional()
}

func (p *Parser) parseConditional() (ast.Expr, error) {
	cond, err := p.parseNullish()
	if err != nil {
		return nil, err
	}
	if !p.acceptPunct("?") {
		return cond, nil
	}
	then, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssignExpr()
	if err != nil {
		return nil, err
	}
	return &ast.TernaryExpr{Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseNullish() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"??"}, p.parseLogicalOr)
}

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"||"}, p.parseLogicalAnd)
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"&&"}, p.parseBitOr)
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"|"}, p.parseBitXor)
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"^"}, p.parseBitAnd)
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"&"}, p.parseEquality)
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"===", "!==", "==", "!="}, p.parseRelational)
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	return p.parseBinaryLevelKw([]string{"<=", ">=", "<", ">"}, []string{"instanceof", "in"}, p.parseShift)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{">>>", "<<", ">>"}, p.parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryLevel([]string{"*", "/", "%"}, p.parseExponent)
}

// parseExponent is right-associative.
func (p *Parser) parseExponent() (ast.Expr, error) {
	base, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.acceptPunct("**") {
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: "**", Left: base, Right: right}, nil
	}
	return base, nil
}

func (p *Parser) parseBinaryLevel(ops []string, next func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.matchAnyPunct(ops)
		if !ok {
			return left, nil
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseBinaryLevelKw(puncts, kws []string, next func() (ast.Expr, error)) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		if op, ok := p.matchAnyPunct(puncts); ok {
			right, err := next()
			if err != nil {
				return nil, err
			}
			left = &ast.BinaryExpr{Op: op, Left: left, Right: right}
			continue
		}
		matched := false
		for _, kw := range kws {
			if p.isIdent(kw) {
				p.advance()
				right, err := next()
				if err != nil {
					return nil, err
				}
				left = &ast.BinaryExpr{Op: kw, Left: left, Right: right}
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
	}
}

func (p *Parser) matchAnyPunct(ops []string) (string, bool) {
	for _, op := range ops {
		if p.isPunct(op) {
			p.advance()
			return op, true
		}
	}
	return "", false
}

var unaryPuncts = map[string]ast.UnaryOp{
	"+": ast.OpPlus, "-": ast.OpMinus, "!": ast.OpNot, "~": ast.OpBitNot,
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	t := p.cur()
	if t.kind == tokPunct {
		if op, ok := unaryPuncts[t.punct]; ok {
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: op, Operand: operand}, nil
		}
		if t.punct == "++" || t.punct == "--" {
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			op := ast.OpPreIncr
			if t.punct == "--" {
				op = ast.OpPreDecr
			}
			return &ast.UnaryExpr{Op: op, Operand: operand}, nil
		}
	}
	if t.kind == tokIdent {
		switch t.text {
		case "typeof":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: ast.OpTypeof, Operand: operand}, nil
		case "void":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: ast.OpVoid, Operand: operand}, nil
		case "delete":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.UnaryExpr{Op: ast.OpDelete, Operand: operand}, nil
		case "await":
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &ast.AwaitExpr{Arg: operand}, nil
		case "yield":
			p.advance()
			delegate := p.acceptPunct("*")
			if p.isPunct(")") || p.isPunct(";") || p.isPunct("}") || p.isPunct(",") || p.cur().newlineBefore {
				return &ast.YieldExpr{Delegate: delegate}, nil
			}
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			return &ast.YieldExpr{Arg: arg, Delegate: delegate}, nil
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parseCallMember()
	if err != nil {
		return nil, err
	}
	if !p.cur().newlineBefore && (p.isPunct("++") || p.isPunct("--")) {
		op := ast.OpPostIncr
		if p.cur().punct == "--" {
			op = ast.OpPostDecr
		}
		p.advance()
		return &ast.UnaryExpr{Op: op, Operand: expr}, nil
	}
	return expr, nil
}

// parseCallMember parses a primary expression followed by any chain of
// `.prop`, `[expr]`, `(args)`, and `?.` accesses, recognizing the small set
// of built-in call shapes given a dedicated parse-time lowering per §4.2
// (the rest of the built-in surface dispatches at evaluation time — see
// DESIGN.md's "Parser architecture" entry).
func (p *Parser) parseCallMember() (ast.Expr, error) {
	isNew := false
	if p.isIdent("new") {
		// new.target is handled by primary; a plain `new` starts a
		// constructor call chain.
		save := p.pos
		p.advance()
		if p.isPunct(".") {
			p.pos = save
		} else {
			isNew = true
		}
	}

	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	var sawOptional bool
	for {
		switch {
		case p.acceptPunct("."):
			if p.acceptPunct("#") {
				name, err := p.expectName()
				if err != nil {
					return nil, err
				}
				expr = &ast.PrivateMember{Target: expr, Name: name}
				continue
			}
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Target: expr, Property: &ast.StringLit{Value: name}, Computed: false}
		case p.acceptPunct("?."):
			sawOptional = true
			if p.isPunct("(") {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				expr = &ast.CallExpr{Callee: expr, Args: args, Optional: true}
				continue
			}
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Target: expr, Property: &ast.StringLit{Value: name}, Computed: false, Optional: true}
		case p.acceptPunct("["):
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Target: expr, Property: idx, Computed: true}
		case p.isPunct("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if isNew {
				expr = &ast.NewExpr{Callee: expr, Args: args}
				isNew = false
				continue
			}
			expr = lowerCall(expr, args)
		default:
			if isNew {
				expr = &ast.NewExpr{Callee: expr}
				isNew = false
				continue
			}
			if sawOptional {
				return &ast.OptionalChain{Expr: expr}, nil
			}
			return expr, nil
		}
	}
}

// lowerCall recognizes a handful of built-in call shapes at parse time
// (§4.2's "built-in call shape lowering"). Everything else becomes a generic
// MemberCall/CallExpr that internal/eval dispatches on at runtime.
func lowerCall(callee ast.Expr, args []ast.Expr) ast.Expr {
	if member, ok := callee.(*ast.MemberExpr); ok && !member.Computed {
		name, _ := member.Property.(*ast.StringLit)
		if name == nil {
			return &ast.CallExpr{Callee: callee, Args: args}
		}
		if recv, ok := member.Target.(*ast.Ident); ok && recv.Name == "Math" {
			return &ast.MathMethod{Method: name.Value, Args: args}
		}
		switch name.Value {
		case "map", "filter", "forEach", "find", "findIndex", "some", "every",
			"reduce", "reduceRight", "includes", "flat", "flatMap", "sort":
			if cb, ok := callbackArg(args); ok {
				extra := args
				if len(args) > 0 {
					extra = args[1:]
				}
				return &ast.ArrayMapLike{Method: name.Value, Target: member.Target, Callback: cb, Extra: extra}
			}
		}
		return &ast.MemberCall{Target: member.Target, Method: name.Value, Args: args}
	}
	return &ast.CallExpr{Callee: callee, Args: args}
}

func callbackArg(args []ast.Expr) (*ast.FunctionLit, bool) {
	if len(args) == 0 {
		return nil, false
	}
	fn, ok := args[0].(*ast.FunctionLit)
	return fn, ok
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.isPunct(")") {
		if p.acceptPunct("...") {
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, &ast.SpreadExpr{Arg: arg})
		} else {
			arg, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.advance()
		v, err := parseNumberLit(t.text)
		if err != nil {
			return nil, errext.ParseError("invalid numeric literal %q", t.text)
		}
		return &ast.NumberLit{Value: v}, nil
	case tokFloat:
		p.advance()
		v, err := parseFloatLit(t.text)
		if err != nil {
			return nil, errext.ParseError("invalid numeric literal %q", t.text)
		}
		return &ast.FloatLit{Value: v}, nil
	case tokBigInt:
		p.advance()
		return &ast.BigIntLit{Value: strings.TrimSuffix(t.text, "n")}, nil
	case tokString:
		p.advance()
		return &ast.StringLit{Value: t.text}, nil
	case tokRegex:
		p.advance()
		pattern, flags := splitRegexLiteral(t.text)
		return &ast.RegexLit{Pattern: pattern, Flags: flags}, nil
	case tokTemplate:
		p.advance()
		return p.lowerTemplate(t)
	case tokIdent:
		return p.parsePrimaryIdent()
	case tokPunct:
		switch t.punct {
		case "(":
			return p.parseParenOrArrow()
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseObjectLit()
		}
	}
	return nil, errext.ParseError("unexpected token %q at position %d", p.tokenText(), t.pos)
}

func splitRegexLiteral(text string) (pattern, flags string) {
	end := strings.LastIndexByte(text, '/')
	return text[1:end], text[end+1:]
}

func (p *Parser) lowerTemplate(t token) (ast.Expr, error) {
	var interps []ast.Expr
	for _, raw := range t.raw {
		e, err := parseExprSource(raw)
		if err != nil {
			return nil, err
		}
		interps = append(interps, e)
	}
	return &ast.TemplateLit{Cooked: t.cooked, Raw: t.raw, Interpolations: interps}, nil
}

// parseExprSource parses a standalone expression (used for template
// interpolation holes), bypassing the statement-level DOM/scheduler
// lowerings in stmt.go since an interpolation hole is never a statement.
func parseExprSource(raw string) (ast.Expr, error) {
	toks, err := tokenize(raw)
	if err != nil {
		return nil, err
	}
	sub := &Parser{tokens: toks}
	expr, err := sub.parseExpr()
	if err != nil {
		return nil, err
	}
	if !sub.atEOF() {
		return nil, errext.ParseError("unexpected trailing tokens in template interpolation %q", raw)
	}
	return expr, nil
}

func (p *Parser) parsePrimaryIdent() (ast.Expr, error) {
	t := p.advance()
	switch t.text {
	case "this":
		return &ast.ThisExpr{}, nil
	case "super":
		return &ast.SuperExpr{}, nil
	case "null":
		return &ast.NullLit{}, nil
	case "undefined":
		return &ast.UndefinedLit{}, nil
	case "true":
		return &ast.BoolLit{Value: true}, nil
	case "false":
		return &ast.BoolLit{Value: false}, nil
	case "new":
		if p.acceptPunct(".") {
			if err := p.expectIdent("target"); err != nil {
				return nil, err
			}
			return &ast.NewTargetExpr{}, nil
		}
		return nil, errext.ParseError("unexpected bare 'new'")
	case "import":
		if p.acceptPunct(".") {
			if err := p.expectIdent("meta"); err != nil {
				return nil, err
			}
			return &ast.ImportMetaExpr{}, nil
		}
		if p.isPunct("(") {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			if len(args) == 0 {
				return nil, errext.ParseError("dynamic import() requires a module specifier")
			}
			return &ast.DynamicImport{Source: args[0]}, nil
		}
		return nil, errext.ParseError("unexpected 'import'")
	case "function":
		return p.parseFunctionLit(false, false)
	case "async":
		if p.isIdent("function") {
			p.advance()
			return p.parseFunctionLit(true, false)
		}
		if p.looksLikeArrowStart() {
			return p.parseArrowFunction(true)
		}
		return &ast.Ident{Name: "async"}, nil
	case "class":
		return p.parseClassLit()
	}
	if p.isPunct("=>") {
		p.advance()
		return p.finishArrow(false, []ast.Param{{Pattern: &ast.IdentPattern{Name: t.text}}})
	}
	return &ast.Ident{Name: t.text}, nil
}

func (p *Parser) looksLikeArrowStart() bool {
	return p.isPunct("(") || p.cur().kind == tokIdent
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var elems []ast.Expr
	for !p.isPunct("]") {
		if p.isPunct(",") {
			elems = append(elems, nil)
			p.advance()
			continue
		}
		if p.acceptPunct("...") {
			e, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, &ast.SpreadExpr{Arg: e})
		} else {
			e, err := p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Elements: elems}, nil
}

func (p *Parser) parseObjectLit() (ast.Expr, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var entries []ast.ObjEntry
	for !p.isPunct("}") {
		entry, err := p.parseObjEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.ObjectLit{Entries: entries}, nil
}

func (p *Parser) parseObjEntry() (ast.ObjEntry, error) {
	if p.acceptPunct("...") {
		e, err := p.parseAssignExpr()
		if err != nil {
			return ast.ObjEntry{}, err
		}
		return ast.ObjEntry{Kind: ast.ObjSpread, Value: e}, nil
	}
	accessor := ""
	if (p.isIdent("get") || p.isIdent("set")) && !p.peekNextIsPunctAny([]string{",", ":", "}", "("}) {
		accessor = p.cur().text
		p.advance()
	}
	key, computed, err := p.parsePropertyKey()
	if err != nil {
		return ast.ObjEntry{}, err
	}
	if p.isPunct("(") {
		fn, err := p.parseMethodBody(false, false)
		if err != nil {
			return ast.ObjEntry{}, err
		}
		switch accessor {
		case "get":
			return ast.ObjEntry{Kind: ast.ObjGetter, Key: key, Computed: computed, Method: fn}, nil
		case "set":
			return ast.ObjEntry{Kind: ast.ObjSetter, Key: key, Computed: computed, Method: fn}, nil
		default:
			return ast.ObjEntry{Kind: ast.ObjMethod, Key: key, Computed: computed, Method: fn}, nil
		}
	}
	if ident, ok := key.(*ast.StringLit); ok && !computed {
		if ident.Value == "__proto__" && p.isPunct(":") {
			p.advance()
			v, err := p.parseAssignExpr()
			if err != nil {
				return ast.ObjEntry{}, err
			}
			return ast.ObjEntry{Kind: ast.ObjProtoSetter, Value: v}, nil
		}
		if !p.isPunct(":") {
			// shorthand { a } as an expression is `{ a: a }`.
			return ast.ObjEntry{Kind: ast.ObjPair, Key: key, Value: &ast.Ident{Name: ident.Value}}, nil
		}
	}
	if err := p.expectPunct(":"); err != nil {
		return ast.ObjEntry{}, err
	}
	v, err := p.parseAssignExpr()
	if err != nil {
		return ast.ObjEntry{}, err
	}
	return ast.ObjEntry{Kind: ast.ObjPair, Key: key, Computed: computed, Value: v}, nil
}

func (p *Parser) peekNextIsPunctAny(puncts []string) bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	nt := p.tokens[p.pos+1]
	if nt.kind != tokPunct {
		return false
	}
	for _, s := range puncts {
		if nt.punct == s {
			return true
		}
	}
	return false
}

func (p *Parser) parsePropertyKey() (ast.Expr, bool, error) {
	if p.acceptPunct("[") {
		e, err := p.parseAssignExpr()
		if err != nil {
			return nil, false, err
		}
		if err := p.expectPunct("]"); err != nil {
			return nil, false, err
		}
		return e, true, nil
	}
	t := p.cur()
	switch t.kind {
	case tokString:
		p.advance()
		return &ast.StringLit{Value: t.text}, false, nil
	case tokNumber, tokFloat:
		p.advance()
		return &ast.StringLit{Value: t.text}, false, nil
	case tokIdent:
		p.advance()
		return &ast.StringLit{Value: t.text}, false, nil
	}
	return nil, false, errext.ParseError("expected property key, got %q", p.tokenText())
}

// parseParenOrArrow disambiguates `(expr)` from an arrow function's
// parameter list (Invariant A2: try the stricter production first).
func (p *Parser) parseParenOrArrow() (ast.Expr, error) {
	save := p.pos
	if params, ok := p.tryParseArrowParams(); ok {
		if p.acceptPunct("=>") {
			return p.finishArrow(false, params)
		}
	}
	p.pos = save

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) tryParseArrowParams() ([]ast.Param, bool) {
	if !p.isPunct("(") {
		return nil, false
	}
	save := p.pos
	p.advance()
	var params []ast.Param
	for !p.isPunct(")") {
		param, ok := p.tryParseParam()
		if !ok {
			p.pos = save
			return nil, false
		}
		params = append(params, param)
		if !p.acceptPunct(",") {
			break
		}
	}
	if !p.acceptPunct(")") {
		p.pos = save
		return nil, false
	}
	return params, true
}

func (p *Parser) tryParseParam() (ast.Param, bool) {
	rest := p.acceptPunct("...")
	if p.cur().kind != tokIdent || keywords[p.cur().text] {
		return ast.Param{}, false
	}
	name := p.advance().text
	var def ast.Expr
	if p.acceptPunct("=") {
		e, err := p.parseAssignExpr()
		if err != nil {
			return ast.Param{}, false
		}
		def = e
	}
	return ast.Param{Pattern: &ast.IdentPattern{Name: name}, Default: def, Rest: rest}, true
}

func (p *Parser) parseArrowFunction(isAsync bool) (ast.Expr, error) {
	if p.cur().kind == tokIdent {
		name := p.advance().text
		if err := p.expectPunct("=>"); err != nil {
			return nil, err
		}
		return p.finishArrow(isAsync, []ast.Param{{Pattern: &ast.IdentPattern{Name: name}}})
	}
	params, ok := p.tryParseArrowParams()
	if !ok {
		return nil, errext.ParseError("expected arrow function parameters")
	}
	if err := p.expectPunct("=>"); err != nil {
		return nil, err
	}
	return p.finishArrow(isAsync, params)
}

func (p *Parser) finishArrow(isAsync bool, params []ast.Param) (ast.Expr, error) {
	var body []ast.Stmt
	if p.isPunct("{") {
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		body = b.Body
	} else {
		e, err := p.parseAssignExpr()
		if err != nil {
			return nil, err
		}
		body = []ast.Stmt{&ast.ReturnStmt{Expr: e}}
	}
	return &ast.FunctionLit{
		Handler: &ast.FunctionHandler{Params: params, Body: body},
		IsArrow: true,
		IsAsync: isAsync,
	}, nil
}

func (p *Parser) parseFunctionLit(isAsync, isMethod bool) (ast.Expr, error) {
	isGenerator := p.acceptPunct("*")
	name := ""
	if p.cur().kind == tokIdent && !p.isPunct("(") {
		name = p.advance().text
	}
	fn, err := p.parseMethodBody(isAsync, isGenerator)
	if err != nil {
		return nil, err
	}
	fn.Name = name
	fn.IsMethod = isMethod
	return fn, nil
}

func (p *Parser) parseMethodBody(isAsync, isGenerator bool) (*ast.FunctionLit, error) {
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionLit{
		Handler:     &ast.FunctionHandler{Params: params, Body: block.Body},
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
	}, nil
}

func (p *Parser) parseParams() ([]ast.Param, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.isPunct(")") {
		rest := p.acceptPunct("...")
		pattern, err := p.parseBindingPattern()
		if err != nil {
			return nil, err
		}
		var def ast.Expr
		if p.acceptPunct("=") {
			def, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		params = append(params, ast.Param{Pattern: pattern, Default: def, Rest: rest})
		if !p.acceptPunct(",") {
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseClassLit() (ast.Expr, error) {
	name := ""
	if p.cur().kind == tokIdent && !p.isPunct("{") && p.cur().text != "extends" {
		name = p.advance().text
	}
	var super ast.Expr
	if p.acceptIdent("extends") {
		s, err := p.parseCallMember()
		if err != nil {
			return nil, err
		}
		super = s
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var fields []ast.ClassField
	var methods []ast.ClassMethod
	for !p.isPunct("}") {
		if p.acceptPunct(";") {
			continue
		}
		static := p.acceptIdent("static")
		private := p.acceptPunct("#")
		accessor := ""
		if (p.isIdent("get") || p.isIdent("set")) && !p.peekNextIsPunctAny([]string{"(", "=", ";", "}"}) {
			accessor = p.cur().text
			p.advance()
		}
		isAsync := p.acceptIdent("async")
		isGenerator := p.acceptPunct("*")
		key, computed, err := p.parsePropertyKey()
		if err != nil {
			return nil, err
		}
		if p.isPunct("(") {
			fn, err := p.parseMethodBody(isAsync, isGenerator)
			if err != nil {
				return nil, err
			}
			kind := "method"
			if name, ok := key.(*ast.StringLit); ok && name.Value == "constructor" {
				kind = "constructor"
			} else if accessor != "" {
				kind = accessor
			}
			methods = append(methods, ast.ClassMethod{Key: key, Computed: computed, Private: private, Static: static, Kind: kind, Fn: fn})
			continue
		}
		var value ast.Expr
		if p.acceptPunct("=") {
			value, err = p.parseAssignExpr()
			if err != nil {
				return nil, err
			}
		}
		if err := p.consumeSemicolon(); err != nil {
			return nil, err
		}
		fields = append(fields, ast.ClassField{Key: key, Computed: computed, Private: private, Static: static, Value: value})
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.ClassLit{Name: name, SuperClass: super, Fields: fields, Methods: methods}, nil
}
