package parser

import (
	"io"
	"strconv"

	"github.com/xplshn/kite/pkg/ast"
	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
	"github.com/xplshn/kite/pkg/util"
)

// Parser holds the state for the parsing process. The token slice is never
// modified; pos marks the first token not yet consumed.
type Parser struct {
	tokens []token.Token
	pos    int
	cfg    *config.Config
}

// bailout carries a syntax error up the recursive descent to the public entry point
type bailout struct{ err *util.Error }

// NewParser creates and initializes a new Parser from a token stream.
// Warnings go to cfg.Output. A nil cfg uses the defaults and discards warnings.
func NewParser(tokens []token.Token, cfg *config.Config) *Parser {
	if cfg == nil {
		cfg = config.NewConfig()
		cfg.Output = io.Discard
	}
	return &Parser{tokens: tokens, cfg: cfg}
}

// AtEnd reports whether every token has been consumed
func (p *Parser) AtEnd() bool { return p.pos >= len(p.tokens) }

// Remaining returns the tokens not yet consumed
func (p *Parser) Remaining() []token.Token { return p.tokens[p.pos:] }

// Mark returns the cursor position for a later Reset
func (p *Parser) Mark() int { return p.pos }

// Reset moves the cursor back to a position returned by Mark
func (p *Parser) Reset(mark int) {
	if mark >= 0 && mark <= len(p.tokens) {
		p.pos = mark
	}
}

// ParseExpression consumes exactly one expression from the front of the stream
func (p *Parser) ParseExpression() (node *ast.Node, err error) {
	defer p.recover(&err)
	return p.parseExpr(), nil
}

// ParseStatement consumes exactly one statement from the front of the stream
func (p *Parser) ParseStatement() (node *ast.Node, err error) {
	defer p.recover(&err)
	return p.parseStmt(), nil
}

// Parse consumes every remaining statement
func (p *Parser) Parse() (stmts []*ast.Node, err error) {
	defer func() {
		if err != nil {
			stmts = nil
		}
	}()
	defer p.recover(&err)
	for !p.AtEnd() {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts, nil
}

func (p *Parser) recover(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}

// Parser helpers
func (p *Parser) fail(kind util.Kind, tok token.Token, format string, args ...interface{}) {
	panic(bailout{util.Errorf(kind, tok, format, args...)})
}

// endToken positions an end-of-input error just past the last token
func (p *Parser) endToken() token.Token {
	if len(p.tokens) == 0 {
		return token.Token{Line: 1, Column: 1}
	}
	last := p.tokens[len(p.tokens)-1]
	return token.Token{File: last.File, Line: last.Line, Column: last.Column + last.Len}
}

// current returns the next token, failing if the stream is exhausted
func (p *Parser) current() token.Token {
	if p.AtEnd() {
		p.fail(util.UnexpectedEndOfInput, p.endToken(), "Unexpected end of input")
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	p.pos++
	return tok
}

func (p *Parser) check(value string) bool {
	return !p.AtEnd() && p.tokens[p.pos].Is(value)
}

func (p *Parser) match(value string) bool {
	if !p.check(value) {
		return false
	}
	p.pos++
	return true
}

func (p *Parser) expect(value string) token.Token {
	tok := p.current()
	if !tok.Is(value) {
		p.fail(util.UnexpectedToken, tok, "Unexpected token: '%s' (expected '%s')", tok, value)
	}
	p.pos++
	return tok
}

func (p *Parser) expectIdent(context string) token.Token {
	tok := p.current()
	if tok.Kind != token.Identifier {
		p.fail(util.ExpectedIdentifier, tok, "Expected identifier %s, got '%s'", context, tok)
	}
	p.pos++
	return tok
}

// Expression Parsing

var compoundOps = map[string]ast.NodeType{
	"+=": ast.Addition,
	"-=": ast.Subtraction,
	"*=": ast.Multiplication,
	"/=": ast.Division,
	"%=": ast.Remainder,
}

var logicalAssignOps = map[string]ast.NodeType{
	"&&=": ast.LogicalAnd,
	"||=": ast.LogicalOr,
}

var (
	logicalOrOps      = map[string]ast.NodeType{"||": ast.LogicalOr}
	logicalAndOps     = map[string]ast.NodeType{"&&": ast.LogicalAnd}
	equalityOps       = map[string]ast.NodeType{"==": ast.Equality, "!=": ast.Inequality}
	relationalOps     = map[string]ast.NodeType{"<": ast.LessThan, ">": ast.GreaterThan, "<=": ast.LessOrEqual, ">=": ast.GreaterOrEqual}
	additiveOps       = map[string]ast.NodeType{"+": ast.Addition, "-": ast.Subtraction}
	multiplicativeOps = map[string]ast.NodeType{"*": ast.Multiplication, "/": ast.Division, "%": ast.Remainder}
)

func (p *Parser) parseExpr() *ast.Node {
	return p.parseAssignmentExpr()
}

// parseAssignmentExpr is right-associative. Compound forms desugar:
// a += b is a = a + b, and a &&= b is a && (a = b). The target is cloned so
// that every node keeps a single parent.
func (p *Parser) parseAssignmentExpr() *ast.Node {
	left := p.parseConditionalExpr()
	if p.AtEnd() || p.tokens[p.pos].Kind != token.Symbol {
		return left
	}
	tok := p.tokens[p.pos]
	if tok.Value == "=" {
		p.pos++
		return ast.NewBinary(tok, ast.Assignment, left, p.parseAssignmentExpr())
	}
	if op, ok := compoundOps[tok.Value]; ok {
		p.pos++
		right := p.parseAssignmentExpr()
		return ast.NewBinary(tok, ast.Assignment, left, ast.NewBinary(tok, op, ast.Clone(left), right))
	}
	if op, ok := logicalAssignOps[tok.Value]; ok {
		p.pos++
		right := p.parseAssignmentExpr()
		return ast.NewBinary(tok, op, left, ast.NewBinary(tok, ast.Assignment, ast.Clone(left), right))
	}
	return left
}

func (p *Parser) parseConditionalExpr() *ast.Node {
	cond := p.parseLogicalOrExpr()
	if !p.check("?") {
		return cond
	}
	tok := p.advance()
	trueBranch := p.parseConditionalExpr()
	p.expect(":")
	falseBranch := p.parseConditionalExpr()
	return ast.NewConditional(tok, cond, trueBranch, falseBranch)
}

// parseLeftAssoc folds `next (op next)*` to the left for one precedence tier
func (p *Parser) parseLeftAssoc(next func() *ast.Node, ops map[string]ast.NodeType) *ast.Node {
	left := next()
	for !p.AtEnd() {
		tok := p.tokens[p.pos]
		op, ok := ops[tok.Value]
		if tok.Kind != token.Symbol || !ok {
			break
		}
		p.pos++
		left = ast.NewBinary(tok, op, left, next())
	}
	return left
}

func (p *Parser) parseLogicalOrExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseLogicalAndExpr, logicalOrOps)
}

func (p *Parser) parseLogicalAndExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseEqualityExpr, logicalAndOps)
}

func (p *Parser) parseEqualityExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseRelationalExpr, equalityOps)
}

func (p *Parser) parseRelationalExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseAdditiveExpr, relationalOps)
}

func (p *Parser) parseAdditiveExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseMultiplicativeExpr, additiveOps)
}

func (p *Parser) parseMultiplicativeExpr() *ast.Node {
	return p.parseLeftAssoc(p.parseUnaryMinusExpr, multiplicativeOps)
}

func (p *Parser) parseUnaryMinusExpr() *ast.Node {
	if p.check("-") {
		tok := p.advance()
		return ast.NewUnary(tok, ast.UnaryMinus, p.parseUnaryMinusExpr())
	}
	return p.parsePowerExpr()
}

// parsePowerExpr is right-associative; its right operand may carry a unary minus
func (p *Parser) parsePowerExpr() *ast.Node {
	left := p.parseUnaryExpr()
	if p.check("**") {
		tok := p.advance()
		return ast.NewBinary(tok, ast.Power, left, p.parseUnaryMinusExpr())
	}
	return left
}

func (p *Parser) parseUnaryExpr() *ast.Node {
	switch {
	case p.check("!"):
		tok := p.advance()
		return ast.NewUnary(tok, ast.LogicalNot, p.parseUnaryExpr())
	case p.check("typeof"):
		tok := p.advance()
		if !p.cfg.IsFeatureEnabled(config.FeatTypeof) {
			p.fail(util.UnexpectedToken, tok, "Unexpected token: 'typeof' (disabled by -Fno-typeof)")
		}
		return ast.NewUnary(tok, ast.Typeof, p.parseUnaryExpr())
	}
	return p.parsePostfixExpr()
}

func (p *Parser) parsePostfixExpr() *ast.Node {
	expr := p.parseValueExpr()
	for {
		switch {
		case p.check("."):
			p.pos++
			name := p.expectIdent("after '.'")
			expr = ast.NewBinary(name, ast.MemberAccess, expr, ast.NewString(name, name.Value))
		case p.check("["):
			tok := p.advance()
			index := p.parseExpr()
			p.expect("]")
			expr = ast.NewBinary(tok, ast.MemberAccess, expr, index)
		case p.check("("):
			tok := p.advance()
			var args []*ast.Node
			if !p.check(")") {
				for {
					args = append(args, p.parseExpr())
					if !p.match(",") {
						break
					}
				}
			}
			p.expect(")")
			expr = ast.NewFuncCall(tok, expr, args)
		default:
			return expr
		}
	}
}

func (p *Parser) parseValueExpr() *ast.Node {
	tok := p.current()
	switch tok.Kind {
	case token.Number:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			p.fail(util.MalformedNumber, tok, "Number literal out of range: %s", tok.Value)
		}
		return ast.NewNumber(tok, val)
	case token.String:
		p.pos++
		return ast.NewString(tok, tok.Value)
	case token.Identifier:
		p.pos++
		return ast.NewIdent(tok, tok.Value)
	case token.Symbol:
		switch tok.Value {
		case "(":
			p.pos++
			expr := p.parseExpr()
			p.expect(")")
			return expr
		case "{":
			if p.cfg.IsFeatureEnabled(config.FeatObjectLiterals) {
				return p.parseObjectLiteral()
			}
		}
	}
	p.fail(util.UnexpectedToken, tok, "Unexpected token: '%s'", tok)
	return nil
}

func (p *Parser) parseObjectLiteral() *ast.Node {
	tok := p.expect("{")
	members := make(map[string]*ast.Node)
	for !p.check("}") {
		keyTok := p.current()
		if keyTok.Kind != token.Identifier && keyTok.Kind != token.String {
			p.fail(util.UnexpectedToken, keyTok, "Unexpected token: '%s' (expected an object key)", keyTok)
		}
		p.pos++
		p.expect(":")
		value := p.parseExpr()
		if _, dup := members[keyTok.Value]; dup {
			util.Warn(p.cfg, config.WarnDuplicateKey, keyTok, "Duplicate key '%s' in object literal, the last value wins", keyTok.Value)
		}
		members[keyTok.Value] = value
		if !p.match(",") {
			break
		}
	}
	p.expect("}")
	return ast.NewObjectLiteral(tok, members)
}

// Statement Parsing

func (p *Parser) parseStmt() *ast.Node {
	tok := p.current()
	if tok.Kind == token.Reserved {
		switch tok.Value {
		case "var":
			p.pos++
			name := p.expectIdent("after 'var'")
			p.expect("=")
			init := p.parseExpr()
			p.expect(";")
			return ast.NewVarDecl(tok, name.Value, init)
		case "while":
			p.pos++
			cond := p.parseExpr()
			p.expect(":")
			return ast.NewWhile(tok, cond, p.parseStmt())
		case "if":
			p.pos++
			cond := p.parseExpr()
			p.expect(":")
			thenBody := p.parseStmt()
			var elseBody *ast.Node
			if p.match("else") {
				elseBody = p.parseStmt()
			}
			return ast.NewIf(tok, cond, thenBody, elseBody)
		case "break":
			p.pos++
			p.expect(";")
			return ast.NewBreak(tok)
		case "continue":
			p.pos++
			p.expect(";")
			return ast.NewContinue(tok)
		case "return":
			p.pos++
			value := p.parseExpr()
			p.expect(";")
			return ast.NewReturn(tok, value)
		case "fn":
			return p.parseFuncDecl()
		}
	}
	if tok.Is("{") {
		return p.parseBlockStmt()
	}
	expr := p.parseExpr()
	p.expect(";")
	return ast.NewExprStmt(tok, expr)
}

func (p *Parser) parseBlockStmt() *ast.Node {
	tok := p.expect("{")
	var stmts []*ast.Node
	for !p.check("}") {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect("}")
	return ast.NewBlock(tok, stmts)
}

func (p *Parser) parseFuncDecl() *ast.Node {
	tok := p.expect("fn")
	name := p.expectIdent("after 'fn'")
	p.expect("(")
	var params []string
	if !p.check(")") {
		for {
			params = append(params, p.expectIdent("in parameter list").Value)
			if !p.match(",") {
				break
			}
		}
	}
	p.expect(")")
	return ast.NewFuncDecl(tok, name.Value, params, p.parseStmt())
}
