// Package checker walks a parsed program and reports suspicious but
// syntactically valid constructs as warnings.
package checker

import (
	"github.com/xplshn/kite/pkg/ast"
	"github.com/xplshn/kite/pkg/config"
	"github.com/xplshn/kite/pkg/token"
	"github.com/xplshn/kite/pkg/util"
)

type Symbol struct {
	Name   string
	IsFunc bool
	Node   *ast.Node
	Next   *Symbol
}

type Scope struct {
	Symbols *Symbol
	Parent  *Scope
}

type Checker struct {
	currentScope *Scope
	globalScope  *Scope
	cfg          *config.Config
	funcDepth    int
	loopDepth    int
	hoisted      map[*ast.Node]bool
	warnings     int
}

func NewChecker(cfg *config.Config) *Checker {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	globalScope := newScope(nil)
	return &Checker{
		currentScope: globalScope,
		globalScope:  globalScope,
		cfg:          cfg,
		hoisted:      make(map[*ast.Node]bool),
	}
}

func newScope(parent *Scope) *Scope { return &Scope{Parent: parent} }

func (c *Checker) enterScope() { c.currentScope = newScope(c.currentScope) }

func (c *Checker) exitScope() {
	if c.currentScope.Parent != nil {
		c.currentScope = c.currentScope.Parent
	}
}

// Predeclare adds names provided by the host environment to the global scope
func (c *Checker) Predeclare(names ...string) {
	for _, name := range names {
		c.globalScope.Symbols = &Symbol{Name: name, IsFunc: true, Next: c.globalScope.Symbols}
	}
}

// Check walks a whole program and returns the number of warnings emitted
func (c *Checker) Check(stmts []*ast.Node) int {
	before := c.warnings
	c.checkStmts(stmts)
	return c.warnings - before
}

func (c *Checker) warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if util.Warn(c.cfg, wt, tok, format, args...) {
		c.warnings++
	}
}

func (c *Checker) declare(name string, node *ast.Node, isFunc bool) {
	if existing := c.findSymbolInScopes(name, true); existing != nil {
		if existing.Node != nil {
			c.warn(config.WarnRedeclared, node.Tok, "Redeclaration of '%s' (previous declaration at %s)", name, existing.Node.Tok.Pos())
		} else {
			c.warn(config.WarnRedeclared, node.Tok, "Redeclaration of predeclared name '%s'", name)
		}
	}
	c.currentScope.Symbols = &Symbol{Name: name, IsFunc: isFunc, Node: node, Next: c.currentScope.Symbols}
}

func (c *Checker) findSymbol(name string) *Symbol {
	return c.findSymbolInScopes(name, false)
}

func (c *Checker) findSymbolInScopes(name string, currentOnly bool) *Symbol {
	for s := c.currentScope; s != nil; s = s.Parent {
		for sym := s.Symbols; sym != nil; sym = sym.Next {
			if sym.Name == name {
				return sym
			}
		}
		if currentOnly {
			break
		}
	}
	return nil
}

// checkStmts checks a statement list sharing the current scope. Function
// declarations are visible to the whole list, not only to what follows them.
func (c *Checker) checkStmts(stmts []*ast.Node) {
	for _, stmt := range stmts {
		if stmt != nil && stmt.Type == ast.FunctionDeclaration {
			c.declare(stmt.Data.(ast.FuncDeclNode).Name, stmt, true)
			c.hoisted[stmt] = true
		}
	}

	terminated, reported := false, false
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if terminated && !reported && stmt.Type != ast.FunctionDeclaration {
			c.warn(config.WarnUnreachableCode, stmt.Tok, "Unreachable code")
			reported = true
		}
		c.checkNode(stmt)
		switch stmt.Type {
		case ast.Return, ast.Break, ast.Continue:
			terminated = true
		}
	}
}

func (c *Checker) checkNode(node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Type {
	case ast.Block:
		c.enterScope()
		c.checkStmts(node.Data.(ast.BlockNode).Stmts)
		c.exitScope()
	case ast.FunctionDeclaration:
		c.checkFuncDecl(node)
	case ast.VariableDeclaration:
		d := node.Data.(ast.VarDeclNode)
		c.checkExpr(d.Init)
		c.declare(d.Name, node, false)
	case ast.If:
		d := node.Data.(ast.IfNode)
		c.checkExpr(d.Cond)
		c.checkNode(d.ThenBody)
		c.checkNode(d.ElseBody)
	case ast.While:
		d := node.Data.(ast.WhileNode)
		c.checkExpr(d.Cond)
		c.loopDepth++
		c.checkNode(d.Body)
		c.loopDepth--
	case ast.Break, ast.Continue:
		if c.loopDepth == 0 {
			c.warn(config.WarnLoopControl, node.Tok, "'%s' outside of a loop", node.Tok.Value)
		}
	case ast.Return:
		if c.funcDepth == 0 {
			c.warn(config.WarnReturnOutsideFn, node.Tok, "'return' outside of a function")
		}
		c.checkExpr(node.Data.(ast.ReturnNode).Value)
	case ast.ExpressionStatement:
		c.checkExpr(node.Data.(ast.ExprStmtNode).Expr)
	default:
		if node.Type.IsExpression() {
			c.checkExpr(node)
		}
	}
}

func (c *Checker) checkFuncDecl(node *ast.Node) {
	d := node.Data.(ast.FuncDeclNode)
	if !c.hoisted[node] {
		c.declare(d.Name, node, true)
	}

	c.enterScope()
	defer c.exitScope()
	for _, param := range d.Params {
		if c.findSymbolInScopes(param, true) != nil {
			c.warn(config.WarnDuplicateParam, node.Tok, "Duplicate parameter '%s' in function '%s'", param, d.Name)
			continue
		}
		c.currentScope.Symbols = &Symbol{Name: param, Node: node, Next: c.currentScope.Symbols}
	}

	savedLoop := c.loopDepth
	c.loopDepth = 0
	c.funcDepth++
	if d.Body != nil && d.Body.Type == ast.Block {
		c.checkStmts(d.Body.Data.(ast.BlockNode).Stmts)
	} else {
		c.checkNode(d.Body)
	}
	c.funcDepth--
	c.loopDepth = savedLoop
}

func isCompoundToken(tok token.Token) bool {
	switch tok.Value {
	case "+=", "-=", "*=", "/=", "%=":
		return tok.Kind == token.Symbol
	}
	return false
}

func isLogicalAssignToken(tok token.Token) bool {
	return tok.Kind == token.Symbol && (tok.Value == "&&=" || tok.Value == "||=")
}

func (c *Checker) checkAssignTarget(tok token.Token, target *ast.Node) {
	if target == nil || target.Type == ast.Identifier || target.Type == ast.MemberAccess {
		return
	}
	c.warn(config.WarnAssignTarget, tok, "Assignment to a %s expression has no effect", target.Type)
}

// checkExpr visits an expression. Compound and logical assignments carry a
// copy of their target after desugaring; only the original is checked.
func (c *Checker) checkExpr(node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Type {
	case ast.Identifier:
		name := node.Data.(ast.IdentNode).Name
		if c.findSymbol(name) == nil {
			c.warn(config.WarnImplicitDecl, node.Tok, "'%s' is not declared", name)
		}
		return
	case ast.Assignment:
		d := node.Data.(ast.BinaryNode)
		c.checkAssignTarget(node.Tok, d.Left)
		c.checkExpr(d.Left)
		if inner, ok := d.Right.Data.(ast.BinaryNode); ok && isCompoundToken(node.Tok) {
			c.checkExpr(inner.Right)
			return
		}
		c.checkExpr(d.Right)
		return
	case ast.LogicalAnd, ast.LogicalOr:
		d := node.Data.(ast.BinaryNode)
		if d.Right != nil && d.Right.Type == ast.Assignment && isLogicalAssignToken(node.Tok) {
			c.checkAssignTarget(node.Tok, d.Left)
			if d.Left != nil && d.Left.Type != ast.Identifier {
				c.warn(config.WarnLogicalAssign, node.Tok, "'%s' evaluates its target twice", node.Tok.Value)
			}
			c.checkExpr(d.Left)
			c.checkExpr(d.Right.Data.(ast.BinaryNode).Right)
			return
		}
	}
	for _, child := range ast.Children(node) {
		c.checkExpr(child)
	}
}
