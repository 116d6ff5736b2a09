// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analyzer is TinyQuery's compiler: it turns an untyped
// sql/ast.Select into a typed sql/plan.Select, resolving names against
// the catalog, inferring expression types, classifying aggregate calls,
// and inferring each query's GroupSet.
package analyzer

import (
	"fmt"
	"strings"

	"github.com/dolthub/tinyquery/catalog"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/ast"
	"github.com/dolthub/tinyquery/sql/expression"
	"github.com/dolthub/tinyquery/sql/expression/function"
	"github.com/dolthub/tinyquery/sql/plan"
	"github.com/dolthub/tinyquery/sql/typectx"
	"github.com/dolthub/tinyquery/sql/types"
)

// Compiler holds the catalog a query text is compiled against.
type Compiler struct {
	Catalog *catalog.Catalog
}

// New returns a Compiler bound to cat.
func New(cat *catalog.Catalog) *Compiler {
	return &Compiler{Catalog: cat}
}

// Compile analyzes sel into a fully typed plan.Select.
func (c *Compiler) Compile(ctx *sql.RequestContext, sel *ast.Select) (*plan.Select, error) {
	return c.compileSelect(ctx, sel)
}

// scope carries the per-call compilation state: the TypeContext scalar
// expressions resolve against, and (while compiling inside an aggregate
// function's arguments) whether aggregate calls are currently forbidden
// (nested aggregates are not allowed).
type scope struct {
	tc          *typectx.TypeContext
	inAggregate bool
}

func (c *Compiler) compileSelect(ctx *sql.RequestContext, sel *ast.Select) (*plan.Select, error) {
	var source plan.TableExpr
	var sourceScope *typectx.TypeContext
	if sel.TableExpr != nil {
		resolved, err := c.compileTableExpr(ctx, sel.TableExpr)
		if err != nil {
			return nil, err
		}
		source = resolved
		sourceScope = resolved.TypeContext()
	} else {
		sourceScope = typectx.FromFullColumns(nil, map[sql.ColumnName]types.Type{}, nil, nil, nil)
	}

	tableScope := scope{tc: sourceScope}

	var where expression.Expr
	if sel.WhereExpr != nil {
		var err error
		where, err = c.compileExpr(tableScope, sel.WhereExpr)
		if err != nil {
			return nil, err
		}
		if where.Type() != types.Bool {
			return nil, sql.ErrCompile.New("WHERE clause must be boolean")
		}
	}

	expanded, err := expandSelectFields(sourceScope, sel.SelectFields)
	if err != nil {
		return nil, err
	}

	aliases, err := computeAliases(expanded)
	if err != nil {
		return nil, err
	}

	groupSet, err := c.compileGroups(sel.Groups, expanded, aliases, sourceScope)
	if err != nil {
		return nil, err
	}

	fields, groups, err := c.compileSelectFieldsGrouped(expanded, aliases, groupSet, sourceScope)
	if err != nil {
		return nil, err
	}

	var having expression.Expr
	if sel.HavingExpr != nil {
		having, err = c.compileExpr(tableScope, sel.HavingExpr)
		if err != nil {
			return nil, err
		}
	}

	resultContext := selectResultContext(fields)

	orderings, err := compileOrderings(sel.Orderings, fields, resultContext)
	if err != nil {
		return nil, err
	}

	return &plan.Select{
		Fields:    fields,
		Source:    source,
		Where:     where,
		Groups:    groups,
		Having:    having,
		Orderings: orderings,
		Limit:     int(sel.Limit),
		HasLimit:  sel.HasLimit,
		Alias:     sel.Alias,
		Context:   resultContext,
	}, nil
}

// selectResultContext builds the TypeContext a compiled Select exposes
// to anything that selects from it (an enclosing query, an ORDER BY
// clause, a JOIN).
func selectResultContext(fields []plan.SelectField) *typectx.TypeContext {
	order := make([]sql.ColumnName, len(fields))
	columns := make(map[sql.ColumnName]types.Type, len(fields))
	for i, f := range fields {
		name := sql.ColumnName{Column: f.Alias}
		order[i] = name
		columns[name] = f.Expr.Type()
	}
	return typectx.FromFullColumns(order, columns, nil, nil, nil)
}

func compileOrderings(orderings []ast.Ordering, fields []plan.SelectField, resultContext *typectx.TypeContext) ([]plan.Ordering, error) {
	out := make([]plan.Ordering, 0, len(orderings))
	for _, o := range orderings {
		idx := -1
		for i, f := range fields {
			if f.Alias == o.ColumnID {
				idx = i
				break
			}
		}
		if idx == -1 {
			if _, err := resultContext.ColumnRefForName(o.ColumnID); err != nil {
				return nil, sql.ErrCompile.New(fmt.Sprintf("ORDER BY references unknown column %q", o.ColumnID))
			}
		}
		out = append(out, plan.Ordering{ColumnIndex: idx, Ascending: o.IsAscending})
	}
	return out, nil
}

// expandSelectFields expands '*'/'table.*' select fields into one plain
// ColumnID field per matching column of tc, leaving every other field
// untouched. It runs before alias assignment and grouping.
func expandSelectFields(tc *typectx.TypeContext, fields []ast.SelectField) ([]ast.SelectField, error) {
	var out []ast.SelectField
	for _, f := range fields {
		star, ok := f.Expr.(ast.Star)
		if !ok {
			out = append(out, f)
			continue
		}
		for _, name := range tc.Order {
			if star.TablePrefix != "" && name.Table != star.TablePrefix {
				continue
			}
			ref := name.Column
			if name.Table != "" {
				ref = name.Table + "." + name.Column
			}
			out = append(out, ast.SelectField{
				Expr:     ast.ColumnID{Name: ref},
				Alias:    name.Column,
				HasAlias: true,
			})
		}
	}
	return out, nil
}

// computeAliases assigns every select field its output name: an explicit
// alias or a bare column's own name is taken as proposed, and it's a
// compile error for two fields to propose the same name; every field
// with no proposed name is assigned f0_, f1_, ... skipping any name
// already taken, mirroring get_aliases/field_alias.
func computeAliases(fields []ast.SelectField) ([]string, error) {
	aliases := make([]string, len(fields))
	used := map[string]bool{}
	var pending []int
	for i, f := range fields {
		alias, ok := proposedAlias(f)
		if !ok {
			pending = append(pending, i)
			continue
		}
		if used[alias] {
			return nil, sql.ErrCompile.New("ambiguous column name " + alias)
		}
		used[alias] = true
		aliases[i] = alias
	}

	n := 0
	for _, i := range pending {
		for {
			name := fmt.Sprintf("f%d_", n)
			n++
			if !used[name] {
				used[name] = true
				aliases[i] = name
				break
			}
		}
	}
	return aliases, nil
}

// proposedAlias returns the alias a field proposes for itself, if any:
// its explicit alias, or (for a bare column reference) the column's own
// name. Any other unaliased expression proposes nothing and falls to
// computeAliases's fN_ counter.
func proposedAlias(f ast.SelectField) (string, bool) {
	if f.HasAlias {
		return f.Alias, true
	}
	if col, ok := f.Expr.(ast.ColumnID); ok {
		name := col.Name
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		return name, true
	}
	return "", false
}

// astContainsAggregate reports whether e, an uncompiled expression, calls
// an aggregate function anywhere within it. It must run on the untyped
// AST, since this is exactly what decides how the expression needs to be
// compiled. A CASE expression is deliberately never treated as containing
// an aggregate, matching expression_contains_aggregate.
func astContainsAggregate(e ast.Expr) bool {
	switch x := e.(type) {
	case ast.UnaryOperator:
		return astContainsAggregate(x.Expr)
	case ast.BinaryOperator:
		return astContainsAggregate(x.Left) || astContainsAggregate(x.Right)
	case ast.FunctionCall:
		if _, ok := function.LookupAggregate(strings.ToLower(x.Name)); ok {
			return true
		}
		for _, a := range x.Args {
			if astContainsAggregate(a) {
				return true
			}
		}
	}
	return false
}

// compileSelectFieldExpr validates a select field's WITHIN clause, then
// delegates to ordinary expression compilation against sc (the scope the
// caller has already chosen for this field — the grouped-query scope
// rules live in compileSelectFieldsGrouped). WITHIN <field> aggregation
// has no working evaluation semantics, so it is rejected at compile
// time rather than left to fail unpredictably at evaluation.
func (c *Compiler) compileSelectFieldExpr(sc scope, f ast.SelectField) (expression.Expr, error) {
	if f.Within == ast.WithinField {
		fn, ok := f.Expr.(ast.FunctionCall)
		if !ok || len(fn.Args) == 0 {
			return nil, sql.ErrCompile.New("WITHIN clause syntax error")
		}
		col, ok := fn.Args[0].(ast.ColumnID)
		if !ok {
			return nil, sql.ErrCompile.New("WITHIN clause syntax error")
		}
		prefix := col.Name
		if i := strings.Index(prefix, "."); i >= 0 {
			prefix = prefix[:i]
		}
		if prefix != f.WithinField {
			return nil, sql.ErrCompile.New("WITHIN clause syntax error")
		}
		return nil, sql.ErrNotImplemented.New("WITHIN <field> aggregation is not implemented")
	}
	return c.compileExpr(sc, f.Expr)
}

// compileTableExpr resolves a FROM-clause table expression into a typed
// plan.TableExpr.
func (c *Compiler) compileTableExpr(ctx *sql.RequestContext, t ast.TableExpr) (plan.TableExpr, error) {
	switch node := t.(type) {
	case ast.TableID:
		return c.compileTableID(ctx, node)
	case *ast.Select:
		inner, err := c.compileSelect(ctx, node)
		if err != nil {
			return nil, err
		}
		if node.Alias != "" {
			inner.Context = inner.Context.ContextWithFullAlias(node.Alias)
		}
		return inner, nil
	case ast.Join:
		return c.compileJoin(ctx, node)
	case ast.TableUnion:
		return c.compileUnion(ctx, node)
	default:
		return nil, sql.ErrNotImplemented.New(fmt.Sprintf("unsupported table expression %T", t))
	}
}

func (c *Compiler) compileTableID(ctx *sql.RequestContext, t ast.TableID) (plan.TableExpr, error) {
	tbl, view, err := c.Catalog.Resolve(t.Name)
	if err != nil {
		return nil, err
	}
	if view != nil {
		inner, err := c.compileSelect(ctx, view.Query)
		if err != nil {
			return nil, err
		}
		alias := t.Alias
		if alias == "" {
			alias = t.Name
		}
		inner.Context = inner.Context.ContextWithFullAlias(alias)
		return inner, nil
	}
	alias := t.Alias
	if alias == "" {
		alias = t.Name
	}
	return &plan.Table{CatalogName: t.Name, Alias: alias, Context: tbl.TypeContext(alias)}, nil
}

func (c *Compiler) compileJoin(ctx *sql.RequestContext, j ast.Join) (plan.TableExpr, error) {
	base, err := c.compileTableExpr(ctx, j.Base)
	if err != nil {
		return nil, err
	}
	runningContext := base.TypeContext()
	parts := make([]plan.JoinPart, 0, len(j.JoinParts))
	for _, p := range j.JoinParts {
		rhs, err := c.compileTableExpr(ctx, p.TableExpr)
		if err != nil {
			return nil, err
		}
		combined := typectx.JoinContexts([]*typectx.TypeContext{runningContext, rhs.TypeContext()})

		var cond expression.Expr
		if p.Condition != nil {
			cond, err = c.compileExpr(scope{tc: combined}, p.Condition)
			if err != nil {
				return nil, err
			}
		}

		jt := plan.InnerJoin
		switch p.JoinType {
		case ast.LeftOuterJoin:
			jt = plan.LeftOuterJoin
		case ast.CrossJoin:
			jt = plan.CrossJoin
		}
		parts = append(parts, plan.JoinPart{Table: rhs, Type: jt, Condition: cond, Each: p.Each})
		runningContext = combined
	}
	return &plan.Join{Base: base, Parts: parts, Context: runningContext}, nil
}

func (c *Compiler) compileUnion(ctx *sql.RequestContext, u ast.TableUnion) (plan.TableExpr, error) {
	tables := make([]plan.TableExpr, len(u.Tables))
	contexts := make([]*typectx.TypeContext, len(u.Tables))
	for i, t := range u.Tables {
		compiled, err := c.compileTableExpr(ctx, t)
		if err != nil {
			return nil, err
		}
		tables[i] = compiled
		contexts[i] = compiled.TypeContext()
	}
	merged, err := typectx.UnionContexts(contexts)
	if err != nil {
		return nil, err
	}
	return &plan.TableUnion{Tables: tables, Context: merged}, nil
}

// compileGroups decides a query's GroupSet from its GROUP BY clause (if
// any), splitting each name into an alias group (it names one of
// aliases) or a field group (it's resolved against tableCtx instead).
// With no GROUP BY at all, it returns the distinguished trivial group
// set when any select field is an aggregate call, or nil when none is —
// nil means "no grouping", a sentinel compileSelectFieldsGrouped checks
// for explicitly.
func (c *Compiler) compileGroups(groupNames []string, fields []ast.SelectField, aliases []string, tableCtx *typectx.TypeContext) (*plan.GroupSet, error) {
	if groupNames == nil {
		for _, f := range fields {
			if astContainsAggregate(f.Expr) {
				return &plan.GroupSet{Trivial: true}, nil
			}
		}
		return nil, nil
	}

	aliasSet := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		aliasSet[a] = true
	}

	groups := &plan.GroupSet{}
	for _, g := range groupNames {
		if aliasSet[g] {
			groups.AliasGroups = append(groups.AliasGroups, g)
			continue
		}
		ref, err := tableCtx.ColumnRefForName(g)
		if err != nil {
			return nil, err
		}
		groups.FieldGroups = append(groups.FieldGroups,
			expression.ColumnRef{Table: ref.Name.Table, Column: ref.Name.Column, T: ref.Type, Mode: ref.Mode})
	}
	return groups, nil
}

// compileSelectFieldsGrouped compiles every select field and settles on
// the plan.GroupSet the evaluator will actually use. When groupSet is
// nil (no GROUP BY, no aggregate select field) every field compiles
// directly against tableCtx and grouping is a no-op. Otherwise, fields
// naming an alias group compile against tableCtx and contribute their
// type to the group-key columns; every other field compiles against an
// aggregate scope built from those group-key columns, whose own
// AggregateContext is tableCtx — so a bare column reference inside it
// resolves to a group-key column, while an aggregate call's arguments
// (via compileFunctionCall's AggregateContext lookup) resolve against
// the whole ungrouped table. A WITHIN RECORD field forces one group per
// source row: when the query selects more than one field, every other
// field joins the alias groups so it's taken once per row instead of
// re-aggregated, rejecting any such field whose value is REPEATED-mode
// since a per-row group can't collapse a repeated column on its own.
func (c *Compiler) compileSelectFieldsGrouped(fields []ast.SelectField, aliases []string, groupSet *plan.GroupSet, tableCtx *typectx.TypeContext) ([]plan.SelectField, plan.GroupSet, error) {
	if groupSet == nil {
		sc := scope{tc: tableCtx}
		out := make([]plan.SelectField, len(fields))
		for i, f := range fields {
			expr, err := c.compileSelectFieldExpr(sc, f)
			if err != nil {
				return nil, plan.GroupSet{}, err
			}
			out[i] = plan.SelectField{Expr: expr, Alias: aliases[i], Within: f.Within, WithinField: f.WithinField}
		}
		return out, plan.GroupSet{}, nil
	}

	withinCount := 0
	withinRecord := false
	for _, f := range fields {
		if f.Within != ast.WithinNone {
			withinCount++
		}
		if f.Within == ast.WithinRecord {
			withinRecord = true
		}
	}
	if withinCount > 1 {
		return nil, plan.GroupSet{}, sql.ErrNotImplemented.New("at most one WITHIN clause is supported per query")
	}
	isScopedAggregation := withinCount == 1

	originalAliasGroups := make(map[string]bool, len(groupSet.AliasGroups))
	for _, a := range groupSet.AliasGroups {
		originalAliasGroups[a] = true
	}

	isAliasGroup := func(i int) bool {
		if originalAliasGroups[aliases[i]] {
			return true
		}
		return withinRecord && len(fields) > 1 && fields[i].Within != ast.WithinRecord
	}

	groupColumnsOrder := make([]sql.ColumnName, 0, len(groupSet.FieldGroups)+len(fields))
	groupColumnsTypes := make(map[sql.ColumnName]types.Type, len(groupSet.FieldGroups)+len(fields))
	for _, fg := range groupSet.FieldGroups {
		ref := fg.(expression.ColumnRef)
		name := sql.ColumnName{Table: ref.Table, Column: ref.Column}
		groupColumnsOrder = append(groupColumnsOrder, name)
		groupColumnsTypes[name] = ref.T
	}

	compiled := make([]plan.SelectField, len(fields))
	compiledSet := make([]bool, len(fields))
	finalAliasGroups := append([]string(nil), groupSet.AliasGroups...)

	tableScope := scope{tc: tableCtx}
	for i, f := range fields {
		if !isAliasGroup(i) {
			continue
		}
		expr, err := c.compileSelectFieldExpr(tableScope, f)
		if err != nil {
			return nil, plan.GroupSet{}, err
		}
		if !originalAliasGroups[aliases[i]] {
			if exprIsRepeated(expr) {
				return nil, plan.GroupSet{}, sql.ErrNotImplemented.New(
					"WITHIN RECORD alongside a repeated field is not implemented")
			}
			finalAliasGroups = append(finalAliasGroups, aliases[i])
		}
		compiled[i] = plan.SelectField{Expr: expr, Alias: aliases[i], Within: f.Within, WithinField: f.WithinField}
		compiledSet[i] = true

		name := sql.ColumnName{Column: aliases[i]}
		groupColumnsOrder = append(groupColumnsOrder, name)
		groupColumnsTypes[name] = expr.Type()
	}

	aggregateContext := typectx.FromFullColumns(groupColumnsOrder, groupColumnsTypes, nil, nil, tableCtx)
	aggregateScope := scope{tc: aggregateContext}

	for i, f := range fields {
		if compiledSet[i] {
			continue
		}
		fieldScope := aggregateScope
		if isScopedAggregation && f.Within == ast.WithinNone {
			fieldScope = tableScope
		}
		expr, err := c.compileSelectFieldExpr(fieldScope, f)
		if err != nil {
			return nil, plan.GroupSet{}, err
		}
		compiled[i] = plan.SelectField{Expr: expr, Alias: aliases[i], Within: f.Within, WithinField: f.WithinField}
	}

	finalGroups := plan.GroupSet{
		AliasGroups: finalAliasGroups,
		FieldGroups: groupSet.FieldGroups,
		Trivial:     groupSet.Trivial && !withinRecord,
		PerRow:      withinRecord,
	}
	return compiled, finalGroups, nil
}

// exprIsRepeated reports whether e's runtime value is REPEATED mode,
// following the value through scalar function calls (which preserve
// REPEATED-ness whenever any argument is REPEATED) down to the column
// reference that carries it.
func exprIsRepeated(e expression.Expr) bool {
	switch x := e.(type) {
	case expression.ColumnRef:
		return x.Mode == types.Repeated
	case expression.FunctionCall:
		for _, a := range x.Args {
			if exprIsRepeated(a) {
				return true
			}
		}
	}
	return false
}

// compileExpr compiles an ast.Expr into a typed expression.Expr against
// sc, dispatching function calls to either the scalar or aggregate
// builtin registries and desugaring CASE into nested IF calls.
func (c *Compiler) compileExpr(sc scope, e ast.Expr) (expression.Expr, error) {
	switch x := e.(type) {
	case ast.Literal:
		return compileLiteral(x)
	case ast.ColumnID:
		ref, err := sc.tc.ColumnRefForName(x.Name)
		if err != nil {
			return nil, err
		}
		return expression.ColumnRef{Table: ref.Name.Table, Column: ref.Name.Column, T: ref.Type, Mode: ref.Mode}, nil
	case ast.UnaryOperator:
		arg, err := c.compileExpr(sc, x.Expr)
		if err != nil {
			return nil, err
		}
		fn, ok := function.LookupUnaryOperator(x.Operator)
		if !ok {
			return nil, sql.ErrNotImplemented.New("unary operator " + x.Operator)
		}
		resultType, err := fn.CheckTypes([]types.Type{arg.Type()})
		if err != nil {
			return nil, err
		}
		return expression.FunctionCall{Func: fn, Args: []expression.Expr{arg}, T: resultType}, nil
	case ast.BinaryOperator:
		left, err := c.compileExpr(sc, x.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.compileExpr(sc, x.Right)
		if err != nil {
			return nil, err
		}
		fn, ok := function.LookupBinaryOperator(x.Operator)
		if !ok {
			return nil, sql.ErrNotImplemented.New("binary operator " + x.Operator)
		}
		resultType, err := fn.CheckTypes([]types.Type{left.Type(), right.Type()})
		if err != nil {
			return nil, err
		}
		return expression.FunctionCall{Func: fn, Args: []expression.Expr{left, right}, T: resultType}, nil
	case ast.FunctionCall:
		return c.compileFunctionCall(sc, x)
	case ast.CaseExpression:
		return c.compileCase(sc, x)
	default:
		return nil, sql.ErrNotImplemented.New(fmt.Sprintf("unsupported expression %T", e))
	}
}

func compileLiteral(l ast.Literal) (expression.Expr, error) {
	switch v := l.Value.(type) {
	case nil:
		return expression.Literal{Value: nil, T: types.NoneType}, nil
	case int64:
		return expression.Literal{Value: v, T: types.Int}, nil
	case float64:
		return expression.Literal{Value: v, T: types.Float}, nil
	case bool:
		return expression.Literal{Value: v, T: types.Bool}, nil
	case string:
		return expression.Literal{Value: v, T: types.String}, nil
	default:
		return nil, sql.ErrNotImplemented.New(fmt.Sprintf("unsupported literal type %T", l.Value))
	}
}

func (c *Compiler) compileFunctionCall(sc scope, x ast.FunctionCall) (expression.Expr, error) {
	name := strings.ToLower(x.Name)

	if aggFn, ok := function.LookupAggregate(name); ok && (function.IsAggregate(name) || !sc.inAggregate) {
		if sc.inAggregate {
			return nil, sql.ErrCompile.New("aggregate function " + name + " cannot be nested inside another aggregate")
		}
		args := make([]expression.Expr, len(x.Args))
		aggScope := sc
		if sc.tc.AggregateContext != nil {
			aggScope = scope{tc: sc.tc.AggregateContext, inAggregate: true}
		} else {
			aggScope = scope{tc: sc.tc, inAggregate: true}
		}
		argTypes := make([]types.Type, len(x.Args))
		for i, a := range x.Args {
			compiled, err := c.compileExpr(aggScope, a)
			if err != nil {
				return nil, err
			}
			args[i] = compiled
			argTypes[i] = compiled.Type()
		}
		resultType, err := aggFn.CheckTypes(argTypes)
		if err != nil {
			return nil, sql.ErrCompile.New(fmt.Sprintf("%s: %v", name, err))
		}
		return expression.AggregateFunctionCall{Func: aggFn, Args: args, T: resultType}, nil
	}

	fn, ok := function.LookupScalar(name)
	if !ok {
		return nil, sql.ErrCompile.New("unknown function " + name)
	}
	args := make([]expression.Expr, len(x.Args))
	argTypes := make([]types.Type, len(x.Args))
	for i, a := range x.Args {
		compiled, err := c.compileExpr(sc, a)
		if err != nil {
			return nil, err
		}
		args[i] = compiled
		argTypes[i] = compiled.Type()
	}
	resultType, err := fn.CheckTypes(argTypes)
	if err != nil {
		return nil, sql.ErrCompile.New(fmt.Sprintf("%s: %v", name, err))
	}
	return expression.FunctionCall{Func: fn, Args: args, T: resultType}, nil
}

// compileCase desugars CASE WHEN c1 THEN r1 WHEN c2 THEN r2 ... END into
// nested calls to the if() builtin: if(c1, r1, if(c2, r2, ...)).
func (c *Compiler) compileCase(sc scope, x ast.CaseExpression) (expression.Expr, error) {
	if len(x.Clauses) == 0 {
		return nil, sql.ErrCompile.New("CASE expression must have at least one WHEN clause")
	}
	return c.compileCaseClauses(sc, x.Clauses)
}

func (c *Compiler) compileCaseClauses(sc scope, clauses []ast.CaseClause) (expression.Expr, error) {
	clause := clauses[0]
	cond, err := c.compileExpr(sc, clause.Condition)
	if err != nil {
		return nil, err
	}
	result, err := c.compileExpr(sc, clause.ResultExpr)
	if err != nil {
		return nil, err
	}
	var elseExpr expression.Expr
	if len(clauses) > 1 {
		elseExpr, err = c.compileCaseClauses(sc, clauses[1:])
		if err != nil {
			return nil, err
		}
	} else {
		elseExpr = expression.Literal{Value: nil, T: result.Type()}
	}
	ifFn, _ := function.LookupScalar("if")
	resultType, err := ifFn.CheckTypes([]types.Type{cond.Type(), result.Type(), elseExpr.Type()})
	if err != nil {
		return nil, sql.ErrCompile.New(fmt.Sprintf("CASE: %v", err))
	}
	return expression.FunctionCall{Func: ifFn, Args: []expression.Expr{cond, result, elseExpr}, T: resultType}, nil
}
