package syntax

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// extractor converts the tree-sitter CST into the AST. Conversion is lossy on
// purpose: unmodelled statements disappear, unmodelled expressions become
// Opaque nodes.
type extractor struct {
	source []byte
	path   string
}

func (e *extractor) block(node *sitter.Node) []Stmt {
	if node == nil {
		return nil
	}
	var stmts []Stmt
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if s := e.stmt(child); s != nil {
			stmts = append(stmts, s...)
		}
	}
	return stmts
}

func (e *extractor) stmt(node *sitter.Node) []Stmt {
	switch node.Kind() {
	case "decorated_definition":
		return e.decorated(node)
	case "class_definition":
		return []Stmt{e.classDef(node, nil)}
	case "function_definition":
		return []Stmt{e.functionDef(node, nil, false)}
	case "expression_statement":
		return e.exprStatement(node)
	case "if_statement":
		return []Stmt{e.ifStmt(node)}
	case "for_statement":
		return []Stmt{e.forStmt(node)}
	case "while_statement":
		return []Stmt{e.whileStmt(node)}
	case "with_statement":
		return []Stmt{e.withStmt(node)}
	case "try_statement":
		return []Stmt{e.tryStmt(node)}
	case "return_statement":
		r := &Return{position: e.pos(node)}
		if node.NamedChildCount() > 0 {
			r.Value = e.expr(node.NamedChild(0))
		}
		return []Stmt{r}
	case "raise_statement":
		r := &Raise{position: e.pos(node)}
		if node.NamedChildCount() > 0 {
			r.Exc = e.expr(node.NamedChild(0))
		}
		return []Stmt{r}
	case "pass_statement":
		return []Stmt{&Pass{position: e.pos(node)}}
	case "break_statement":
		return []Stmt{&Break{position: e.pos(node)}}
	case "continue_statement":
		return []Stmt{&Continue{position: e.pos(node)}}
	}
	return nil
}

func (e *extractor) decorated(node *sitter.Node) []Stmt {
	var decorators []Expr
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "decorator" {
			if child.NamedChildCount() > 0 {
				decorators = append(decorators, e.expr(child.NamedChild(0)))
			}
		}
	}
	def := node.ChildByFieldName("definition")
	if def == nil {
		return nil
	}
	switch def.Kind() {
	case "class_definition":
		return []Stmt{e.classDef(def, decorators)}
	case "function_definition":
		return []Stmt{e.functionDef(def, decorators, false)}
	}
	return nil
}

func (e *extractor) classDef(node *sitter.Node, decorators []Expr) *ClassDef {
	cd := &ClassDef{
		position:   e.pos(node),
		Decorators: decorators,
	}

	nameNode := node.ChildByFieldName("name")
	if nameNode != nil {
		cd.Name = e.text(nameNode)
		cd.NameSpan = e.spanOf(nameNode)
		cd.HeaderSpan = cd.NameSpan
	}

	if tp := node.ChildByFieldName("type_parameters"); tp != nil {
		cd.TypeParams = e.typeParams(tp)
		cd.HeaderSpan = e.joinSpans(cd.HeaderSpan, e.spanOf(tp))
	}

	if args := node.ChildByFieldName("superclasses"); args != nil {
		for i := uint(0); i < args.NamedChildCount(); i++ {
			child := args.NamedChild(i)
			if child.Kind() == "keyword_argument" {
				name := child.ChildByFieldName("name")
				value := child.ChildByFieldName("value")
				if name != nil && value != nil {
					cd.Keywords = append(cd.Keywords, Keyword{
						Name:  e.text(name),
						Value: e.expr(value),
					})
				}
				continue
			}
			cd.Bases = append(cd.Bases, e.expr(child))
		}
		cd.HeaderSpan = e.joinSpans(cd.HeaderSpan, e.spanOf(args))
	}

	cd.Body = e.block(node.ChildByFieldName("body"))
	return cd
}

func (e *extractor) typeParams(node *sitter.Node) []TypeParam {
	var params []TypeParam
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		name := e.firstIdentifier(child)
		if name == "" {
			continue
		}
		tp := TypeParam{Name: name, Pos: e.spanOf(child)}
		// `T: bound` wraps the parameter in a constrained_type whose second
		// child is the bound expression.
		inner := child
		if inner.Kind() == "type" && inner.NamedChildCount() == 1 {
			inner = inner.NamedChild(0)
		}
		switch inner.Kind() {
		case "constrained_type":
			if inner.NamedChildCount() >= 2 {
				tp.Bound = e.expr(inner.NamedChild(1))
			}
		default:
			if bound := inner.ChildByFieldName("bound"); bound != nil {
				tp.Bound = e.expr(bound)
			}
			if def := inner.ChildByFieldName("value"); def != nil {
				tp.Default = e.expr(def)
			}
		}
		params = append(params, tp)
	}
	return params
}

func (e *extractor) firstIdentifier(node *sitter.Node) string {
	if node.Kind() == "identifier" {
		return e.text(node)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if name := e.firstIdentifier(node.NamedChild(i)); name != "" {
			return name
		}
	}
	return ""
}

func (e *extractor) functionDef(node *sitter.Node, decorators []Expr, async bool) *FunctionDef {
	fd := &FunctionDef{
		position:   e.pos(node),
		Decorators: decorators,
		IsAsync:    async,
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		fd.Name = e.text(nameNode)
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == "async" {
			fd.IsAsync = true
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		fd.Params = e.params(params)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		fd.Returns = e.expr(ret)
	}
	fd.Body = e.block(node.ChildByFieldName("body"))
	return fd
}

func (e *extractor) params(node *sitter.Node) []Param {
	var params []Param
	keywordOnly := false
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		var p Param
		switch child.Kind() {
		case "identifier":
			p.Name = e.text(child)
		case "typed_parameter":
			p.Name = e.firstIdentifier(child)
			if ann := child.ChildByFieldName("type"); ann != nil {
				p.Annotation = e.expr(ann)
			}
		case "default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				p.Name = e.firstIdentifier(name)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				p.Default = e.expr(value)
			}
		case "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				p.Name = e.firstIdentifier(name)
			}
			if ann := child.ChildByFieldName("type"); ann != nil {
				p.Annotation = e.expr(ann)
			}
			if value := child.ChildByFieldName("value"); value != nil {
				p.Default = e.expr(value)
			}
		case "list_splat_pattern":
			p.Name = e.firstIdentifier(child)
			p.Star = StarArgs
			if p.Name == "" {
				// bare `*`: everything after is keyword-only
				keywordOnly = true
				continue
			}
			keywordOnly = true
		case "keyword_separator":
			keywordOnly = true
			continue
		case "dictionary_splat_pattern":
			p.Name = e.firstIdentifier(child)
			p.Star = StarKwargs
		default:
			continue
		}
		p.KeywordOnly = keywordOnly && p.Star == StarNone
		if len(params) == 0 && p.Star == StarNone {
			p.IsSelfOrCls = p.Name == "self" || p.Name == "cls"
		}
		params = append(params, p)
	}
	return params
}

func (e *extractor) exprStatement(node *sitter.Node) []Stmt {
	if node.NamedChildCount() == 0 {
		return nil
	}
	inner := node.NamedChild(0)
	switch inner.Kind() {
	case "assignment":
		return []Stmt{e.assignment(inner)}
	case "augmented_assignment":
		aug := &AugAssign{position: e.pos(inner)}
		if left := inner.ChildByFieldName("left"); left != nil {
			aug.Target = e.expr(left)
		}
		if op := inner.ChildByFieldName("operator"); op != nil {
			aug.Op = e.text(op)
		}
		if right := inner.ChildByFieldName("right"); right != nil {
			aug.Value = e.expr(right)
		}
		return []Stmt{aug}
	}
	return []Stmt{&ExprStmt{position: e.pos(node), Value: e.expr(inner)}}
}

// assignment covers `a = v`, `a: T = v`, `a: T` and chained `a = b = v`;
// tree-sitter folds the annotated forms into the same node kind with a
// `type` field.
func (e *extractor) assignment(node *sitter.Node) Stmt {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	ann := node.ChildByFieldName("type")

	if ann != nil {
		aa := &AnnAssign{
			position:   e.pos(node),
			Annotation: e.expr(ann),
		}
		if left != nil {
			aa.Target = e.expr(left)
		}
		if right != nil {
			aa.Value = e.expr(right)
		}
		return aa
	}

	as := &Assign{position: e.pos(node)}
	if left != nil {
		as.Targets = append(as.Targets, e.expr(left))
	}
	// chained assignment nests as assignment on the right
	for right != nil && right.Kind() == "assignment" {
		if innerLeft := right.ChildByFieldName("left"); innerLeft != nil {
			as.Targets = append(as.Targets, e.expr(innerLeft))
		}
		right = right.ChildByFieldName("right")
	}
	if right != nil {
		as.Value = e.expr(right)
	}
	return as
}

func (e *extractor) ifStmt(node *sitter.Node) *If {
	s := &If{position: e.pos(node)}
	if cond := node.ChildByFieldName("condition"); cond != nil {
		s.Cond = e.expr(cond)
	}
	s.Body = e.block(node.ChildByFieldName("consequence"))
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "elif_clause":
			elif := &If{position: e.pos(child)}
			if cond := child.ChildByFieldName("condition"); cond != nil {
				elif.Cond = e.expr(cond)
			}
			elif.Body = e.block(child.ChildByFieldName("consequence"))
			s.Else = append(s.Else, elif)
		case "else_clause":
			s.Else = append(s.Else, e.block(child.ChildByFieldName("body"))...)
		}
	}
	return s
}

func (e *extractor) forStmt(node *sitter.Node) *For {
	s := &For{position: e.pos(node)}
	if left := node.ChildByFieldName("left"); left != nil {
		s.Target = e.expr(left)
	}
	if right := node.ChildByFieldName("right"); right != nil {
		s.Iter = e.expr(right)
	}
	s.Body = e.block(node.ChildByFieldName("body"))
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		s.Else = e.block(alt.ChildByFieldName("body"))
	}
	return s
}

func (e *extractor) whileStmt(node *sitter.Node) *While {
	s := &While{position: e.pos(node)}
	if cond := node.ChildByFieldName("condition"); cond != nil {
		s.Cond = e.expr(cond)
	}
	s.Body = e.block(node.ChildByFieldName("body"))
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		s.Else = e.block(alt.ChildByFieldName("body"))
	}
	return s
}

func (e *extractor) withStmt(node *sitter.Node) *With {
	s := &With{position: e.pos(node)}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		clause := node.NamedChild(i)
		if clause.Kind() != "with_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			item := clause.NamedChild(j)
			if item.Kind() != "with_item" {
				continue
			}
			value := item.ChildByFieldName("value")
			if value == nil {
				continue
			}
			wi := WithItem{}
			if value.Kind() == "as_pattern" {
				if value.NamedChildCount() > 0 {
					wi.Context = e.expr(value.NamedChild(0))
				}
				if alias := value.ChildByFieldName("alias"); alias != nil {
					wi.Vars = e.expr(alias)
				}
			} else {
				wi.Context = e.expr(value)
			}
			s.Items = append(s.Items, wi)
		}
	}
	s.Body = e.block(node.ChildByFieldName("body"))
	return s
}

func (e *extractor) tryStmt(node *sitter.Node) *Try {
	s := &Try{position: e.pos(node)}
	s.Body = e.block(node.ChildByFieldName("body"))
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "except_clause":
			// last named child is the handler block
			var handler []Stmt
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if child.NamedChild(j).Kind() == "block" {
					handler = e.block(child.NamedChild(j))
				}
			}
			s.Handlers = append(s.Handlers, handler)
		case "else_clause":
			s.Else = e.block(child.ChildByFieldName("body"))
		case "finally_clause":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				if child.NamedChild(j).Kind() == "block" {
					s.Finally = e.block(child.NamedChild(j))
				}
			}
		}
	}
	return s
}

func (e *extractor) expr(node *sitter.Node) Expr {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "type":
		// annotation wrapper around the actual expression
		if node.NamedChildCount() == 1 {
			return e.expr(node.NamedChild(0))
		}
		return &Opaque{position: e.pos(node), Text: e.text(node)}
	case "identifier":
		return &Name{position: e.pos(node), ID: e.text(node)}
	case "attribute":
		a := &Attribute{position: e.pos(node)}
		if obj := node.ChildByFieldName("object"); obj != nil {
			a.Value = e.expr(obj)
		}
		if attr := node.ChildByFieldName("attribute"); attr != nil {
			a.Attr = e.text(attr)
		}
		return a
	case "subscript":
		s := &Subscript{position: e.pos(node)}
		value := node.ChildByFieldName("value")
		if value != nil {
			s.Value = e.expr(value)
		}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if value != nil && child.StartByte() == value.StartByte() {
				continue
			}
			s.Indexes = append(s.Indexes, e.expr(child))
		}
		return s
	case "call":
		c := &Call{position: e.pos(node)}
		if fn := node.ChildByFieldName("function"); fn != nil {
			c.Func = e.expr(fn)
		}
		if args := node.ChildByFieldName("arguments"); args != nil {
			for i := uint(0); i < args.NamedChildCount(); i++ {
				child := args.NamedChild(i)
				if child.Kind() == "keyword_argument" {
					name := child.ChildByFieldName("name")
					value := child.ChildByFieldName("value")
					if name != nil && value != nil {
						c.Keywords = append(c.Keywords, Keyword{
							Name:  e.text(name),
							Value: e.expr(value),
						})
					}
					continue
				}
				c.Args = append(c.Args, e.expr(child))
			}
		}
		return c
	case "tuple", "expression_list", "pattern_list", "tuple_pattern":
		t := &TupleExpr{position: e.pos(node)}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			t.Elts = append(t.Elts, e.expr(node.NamedChild(i)))
		}
		return t
	case "list", "list_pattern":
		l := &ListExpr{position: e.pos(node)}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			l.Elts = append(l.Elts, e.expr(node.NamedChild(i)))
		}
		return l
	case "list_splat", "list_splat_pattern":
		st := &Starred{position: e.pos(node)}
		if node.NamedChildCount() > 0 {
			st.Value = e.expr(node.NamedChild(0))
		}
		return st
	case "string":
		return &StringLit{position: e.pos(node), Value: e.stringValue(node)}
	case "integer":
		v, _ := strconv.ParseInt(strings.ReplaceAll(e.text(node), "_", ""), 0, 64)
		return &IntLit{position: e.pos(node), Value: v}
	case "float":
		v, _ := strconv.ParseFloat(strings.ReplaceAll(e.text(node), "_", ""), 64)
		return &FloatLit{position: e.pos(node), Value: v}
	case "true":
		return &BoolLit{position: e.pos(node), Value: true}
	case "false":
		return &BoolLit{position: e.pos(node), Value: false}
	case "none":
		return &NoneLit{position: e.pos(node)}
	case "ellipsis":
		return &EllipsisLit{position: e.pos(node)}
	case "parenthesized_expression":
		if node.NamedChildCount() == 1 {
			return e.expr(node.NamedChild(0))
		}
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		c := &Comp{position: e.pos(node)}
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() != "for_in_clause" {
				continue
			}
			clause := CompClause{}
			if left := child.ChildByFieldName("left"); left != nil {
				clause.Target = e.expr(left)
			}
			if right := child.ChildByFieldName("right"); right != nil {
				clause.Iter = e.expr(right)
			}
			c.Clauses = append(c.Clauses, clause)
		}
		return c
	}
	return &Opaque{position: e.pos(node), Text: e.text(node)}
}

// stringValue strips quotes and concatenates string_content fragments.
func (e *extractor) stringValue(node *sitter.Node) string {
	var b strings.Builder
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "string_content" {
			b.WriteString(e.text(child))
		}
	}
	return b.String()
}

func (e *extractor) text(node *sitter.Node) string {
	return string(e.source[node.StartByte():node.EndByte()])
}

func (e *extractor) pos(node *sitter.Node) position {
	return position{span: e.spanOf(node)}
}

func (e *extractor) spanOf(node *sitter.Node) Span {
	return Span{
		File:      e.path,
		StartLine: int(node.StartPosition().Row) + 1,
		StartCol:  int(node.StartPosition().Column) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		EndCol:    int(node.EndPosition().Column) + 1,
	}
}

func (e *extractor) joinSpans(a, b Span) Span {
	if a.File == "" {
		return b
	}
	if b.File == "" {
		return a
	}
	out := a
	if b.StartLine < a.StartLine || (b.StartLine == a.StartLine && b.StartCol < a.StartCol) {
		out.StartLine, out.StartCol = b.StartLine, b.StartCol
	}
	if b.EndLine > a.EndLine || (b.EndLine == a.EndLine && b.EndCol > a.EndCol) {
		out.EndLine, out.EndCol = b.EndLine, b.EndCol
	}
	return out
}
