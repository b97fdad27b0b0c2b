// Package ast defines the types used to represent the Abstract Syntax Tree (AST)
package ast

import (
	"fmt"

	"github.com/xplshn/kite/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

// Node types enum
const (
	// Binary expressions
	Assignment NodeType = iota
	LogicalOr
	LogicalAnd
	Equality
	Inequality
	LessThan
	GreaterThan
	LessOrEqual
	GreaterOrEqual
	Addition
	Subtraction
	Multiplication
	Division
	Remainder
	Power
	MemberAccess

	// Unary expressions
	UnaryMinus
	LogicalNot
	Typeof

	// Other expressions
	Conditional
	FunctionCall
	Identifier
	StringLiteral
	NumberLiteral
	ObjectLiteral

	// Statements
	VariableDeclaration
	While
	If
	Break
	Continue
	Return
	FunctionDeclaration
	ExpressionStatement
	Block
)

var nodeTypeNames = [...]string{
	Assignment:          "Assignment",
	LogicalOr:           "LogicalOr",
	LogicalAnd:          "LogicalAnd",
	Equality:            "Equality",
	Inequality:          "Inequality",
	LessThan:            "LessThan",
	GreaterThan:         "GreaterThan",
	LessOrEqual:         "LessOrEqual",
	GreaterOrEqual:      "GreaterOrEqual",
	Addition:            "Addition",
	Subtraction:         "Subtraction",
	Multiplication:      "Multiplication",
	Division:            "Division",
	Remainder:           "Remainder",
	Power:               "Power",
	MemberAccess:        "MemberAccess",
	UnaryMinus:          "UnaryMinus",
	LogicalNot:          "LogicalNot",
	Typeof:              "Typeof",
	Conditional:         "Conditional",
	FunctionCall:        "FunctionCall",
	Identifier:          "Identifier",
	StringLiteral:       "String",
	NumberLiteral:       "Number",
	ObjectLiteral:       "Object",
	VariableDeclaration: "Var",
	While:               "While",
	If:                  "If",
	Break:               "Break",
	Continue:            "Continue",
	Return:              "Return",
	FunctionDeclaration: "Fn",
	ExpressionStatement: "Expr",
	Block:               "Block",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

func (t NodeType) IsBinary() bool     { return t >= Assignment && t <= MemberAccess }
func (t NodeType) IsUnary() bool      { return t >= UnaryMinus && t <= Typeof }
func (t NodeType) IsExpression() bool { return t >= Assignment && t <= ObjectLiteral }
func (t NodeType) IsStatement() bool  { return t >= VariableDeclaration && t <= Block }

// Node represents a node in the Abstract Syntax Tree. A node owns its children
// exclusively and is never modified once built.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

// --- Node Data Structs ---
type BinaryNode struct{ Left, Right *Node }
type UnaryNode struct{ Operand *Node }
type ConditionalNode struct{ Cond, TrueBranch, FalseBranch *Node }
type FuncCallNode struct {
	Callee *Node
	Args   []*Node
}
type IdentNode struct{ Name string }
type StringNode struct{ Value string }
type NumberNode struct{ Value float64 }

// ObjectNode maps keys to initializers. A repeated key keeps the last initializer.
type ObjectNode struct{ Members map[string]*Node }

type VarDeclNode struct {
	Name string
	Init *Node
}
type WhileNode struct{ Cond, Body *Node }

// IfNode has a nil ElseBody when there is no else branch
type IfNode struct{ Cond, ThenBody, ElseBody *Node }
type BreakNode struct{}
type ContinueNode struct{}
type ReturnNode struct{ Value *Node }
type FuncDeclNode struct {
	Name   string
	Params []string
	Body   *Node
}
type ExprStmtNode struct{ Expr *Node }
type BlockNode struct{ Stmts []*Node }

// --- Node Constructors ---

func newNode(tok token.Token, nodeType NodeType, data interface{}) *Node {
	return &Node{Type: nodeType, Tok: tok, Data: data}
}

// NewBinary builds any member of the binary family (Assignment through MemberAccess)
func NewBinary(tok token.Token, nodeType NodeType, left, right *Node) *Node {
	if !nodeType.IsBinary() {
		panic(fmt.Sprintf("ast: %s is not a binary node type", nodeType))
	}
	return newNode(tok, nodeType, BinaryNode{Left: left, Right: right})
}

// NewUnary builds UnaryMinus, LogicalNot or Typeof
func NewUnary(tok token.Token, nodeType NodeType, operand *Node) *Node {
	if !nodeType.IsUnary() {
		panic(fmt.Sprintf("ast: %s is not a unary node type", nodeType))
	}
	return newNode(tok, nodeType, UnaryNode{Operand: operand})
}

func NewConditional(tok token.Token, cond, trueBranch, falseBranch *Node) *Node {
	return newNode(tok, Conditional, ConditionalNode{Cond: cond, TrueBranch: trueBranch, FalseBranch: falseBranch})
}
func NewFuncCall(tok token.Token, callee *Node, args []*Node) *Node {
	return newNode(tok, FunctionCall, FuncCallNode{Callee: callee, Args: args})
}
func NewIdent(tok token.Token, name string) *Node {
	return newNode(tok, Identifier, IdentNode{Name: name})
}
func NewString(tok token.Token, value string) *Node {
	return newNode(tok, StringLiteral, StringNode{Value: value})
}
func NewNumber(tok token.Token, value float64) *Node {
	return newNode(tok, NumberLiteral, NumberNode{Value: value})
}
func NewObjectLiteral(tok token.Token, members map[string]*Node) *Node {
	if members == nil {
		members = make(map[string]*Node)
	}
	return newNode(tok, ObjectLiteral, ObjectNode{Members: members})
}
func NewVarDecl(tok token.Token, name string, init *Node) *Node {
	return newNode(tok, VariableDeclaration, VarDeclNode{Name: name, Init: init})
}
func NewWhile(tok token.Token, cond, body *Node) *Node {
	return newNode(tok, While, WhileNode{Cond: cond, Body: body})
}
func NewIf(tok token.Token, cond, thenBody, elseBody *Node) *Node {
	return newNode(tok, If, IfNode{Cond: cond, ThenBody: thenBody, ElseBody: elseBody})
}
func NewBreak(tok token.Token) *Node {
	return newNode(tok, Break, BreakNode{})
}
func NewContinue(tok token.Token) *Node {
	return newNode(tok, Continue, ContinueNode{})
}
func NewReturn(tok token.Token, value *Node) *Node {
	return newNode(tok, Return, ReturnNode{Value: value})
}
func NewFuncDecl(tok token.Token, name string, params []string, body *Node) *Node {
	return newNode(tok, FunctionDeclaration, FuncDeclNode{Name: name, Params: params, Body: body})
}
func NewExprStmt(tok token.Token, expr *Node) *Node {
	return newNode(tok, ExpressionStatement, ExprStmtNode{Expr: expr})
}
func NewBlock(tok token.Token, stmts []*Node) *Node {
	return newNode(tok, Block, BlockNode{Stmts: stmts})
}
