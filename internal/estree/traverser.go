package estree

import (
	"reflect"

	"github.com/dop251/goja/ast"
)

type traverser struct {
	onEnter func(ast.Node)
	onExit  func(ast.Node)
}

// TraverseAst walks node depth-first. onEnter runs before a node's children,
// onExit (which may be nil) after them.
func TraverseAst(node ast.Node, onEnter func(node ast.Node), onExit func(node ast.Node)) {
	t := traverser{
		onEnter,
		onExit,
	}

	t.traverse(node)
}

func isNilNode(node ast.Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func (t *traverser) traverse(node ast.Node) {
	if isNilNode(node) {
		return
	}

	t.onEnter(node)

	t.traverseInner(node)

	if t.onExit != nil {
		t.onExit(node)
	}
}

func (t *traverser) traverseList(nodes ...ast.Node) {
	for _, n := range nodes {
		t.traverse(n)
	}
}

func traverseSlice[T ast.Node](t *traverser, nodes []T) {
	for _, n := range nodes {
		t.traverse(n)
	}
}

func (t *traverser) traverseBindings(list []*ast.Binding) {
	for _, b := range list {
		t.traverse(b)
	}
}

func (t *traverser) traverseInner(node ast.Node) {
	switch n := node.(type) {
	// statements
	case *ast.BlockStatement:
		traverseSlice(t, n.List)
	case *ast.CaseStatement:
		t.traverse(n.Test)
		traverseSlice(t, n.Consequent)
	case *ast.CatchStatement:
		t.traverseList(n.Parameter, n.Body)
	case *ast.DoWhileStatement:
		t.traverseList(n.Body, n.Test)
	case *ast.ExpressionStatement:
		t.traverse(n.Expression)
	case *ast.ForInStatement:
		t.traverseList(n.Into, n.Source, n.Body)
	case *ast.ForOfStatement:
		t.traverseList(n.Into, n.Source, n.Body)
	case *ast.ForStatement:
		t.traverseList(n.Initializer, n.Test, n.Update, n.Body)
	case *ast.IfStatement:
		t.traverseList(n.Test, n.Consequent, n.Alternate)
	case *ast.LabelledStatement:
		t.traverse(n.Statement)
	case *ast.ReturnStatement:
		t.traverse(n.Argument)
	case *ast.SwitchStatement:
		t.traverse(n.Discriminant)
		traverseSlice(t, n.Body)
	case *ast.ThrowStatement:
		t.traverse(n.Argument)
	case *ast.TryStatement:
		t.traverseList(n.Body, n.Catch, n.Finally)
	case *ast.VariableStatement:
		t.traverseBindings(n.List)
	case *ast.LexicalDeclaration:
		t.traverseBindings(n.List)
	case *ast.WhileStatement:
		t.traverseList(n.Test, n.Body)
	case *ast.WithStatement:
		t.traverseList(n.Object, n.Body)
	case *ast.FunctionDeclaration:
		t.traverse(n.Function)
	case *ast.ClassDeclaration:
		t.traverse(n.Class)

	// loop heads
	case *ast.ForLoopInitializerExpression:
		t.traverse(n.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		t.traverseBindings(n.List)
	case *ast.ForLoopInitializerLexicalDecl:
		t.traverse(&n.LexicalDeclaration)
	case *ast.ForIntoVar:
		t.traverse(n.Binding)
	case *ast.ForDeclaration:
		t.traverse(n.Target)
	case *ast.ForIntoExpression:
		t.traverse(n.Expression)

	// expressions
	case *ast.Binding:
		t.traverseList(n.Target, n.Initializer)
	case *ast.YieldExpression:
		t.traverse(n.Argument)
	case *ast.AwaitExpression:
		t.traverse(n.Argument)
	case *ast.ArrayLiteral:
		traverseSlice(t, n.Value)
	case *ast.ArrayPattern:
		traverseSlice(t, n.Elements)
		t.traverse(n.Rest)
	case *ast.AssignExpression:
		t.traverseList(n.Left, n.Right)
	case *ast.BinaryExpression:
		t.traverseList(n.Left, n.Right)
	case *ast.BracketExpression:
		t.traverseList(n.Left, n.Member)
	case *ast.CallExpression:
		t.traverse(n.Callee)
		traverseSlice(t, n.ArgumentList)
	case *ast.NewExpression:
		t.traverse(n.Callee)
		traverseSlice(t, n.ArgumentList)
	case *ast.ConditionalExpression:
		t.traverseList(n.Test, n.Consequent, n.Alternate)
	case *ast.DotExpression:
		t.traverse(n.Left)
	case *ast.PrivateDotExpression:
		t.traverse(n.Left)
	case *ast.OptionalChain:
		t.traverse(n.Expression)
	case *ast.Optional:
		t.traverse(n.Expression)
	case *ast.FunctionLiteral:
		t.traverseList(n.ParameterList, n.Body)
	case *ast.ArrowFunctionLiteral:
		t.traverseList(n.ParameterList, n.Body)
	case *ast.ExpressionBody:
		t.traverse(n.Expression)
	case *ast.ClassLiteral:
		t.traverse(n.SuperClass)
		traverseSlice(t, n.Body)
	case *ast.FieldDefinition:
		t.traverseList(n.Key, n.Initializer)
	case *ast.MethodDefinition:
		t.traverseList(n.Key, n.Body)
	case *ast.ClassStaticBlock:
		t.traverse(n.Block)
	case *ast.ParameterList:
		t.traverseBindings(n.List)
		t.traverse(n.Rest)
	case *ast.ObjectLiteral:
		traverseSlice(t, n.Value)
	case *ast.ObjectPattern:
		traverseSlice(t, n.Properties)
		t.traverse(n.Rest)
	case *ast.PropertyShort:
		t.traverse(n.Initializer)
	case *ast.PropertyKeyed:
		t.traverseList(n.Key, n.Value)
	case *ast.SpreadElement:
		t.traverse(n.Expression)
	case *ast.SequenceExpression:
		traverseSlice(t, n.Sequence)
	case *ast.TemplateLiteral:
		t.traverse(n.Tag)
		traverseSlice(t, n.Expressions)
	case *ast.UnaryExpression:
		t.traverse(n.Operand)
	}
}
