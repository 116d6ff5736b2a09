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

// Package parse turns a token stream from package lex into the untyped
// syntax tree defined by package ast. It's a straightforward recursive
// descent / precedence-climbing parser over a fixed grammar — no parser
// generator is involved.
package parse

import (
	"fmt"
	"strings"

	"github.com/dolthub/tinyquery/lex"
	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/ast"
)

// Text parses a full query string into a Select AST.
func Text(text string) (*ast.Select, error) {
	tokens, err := lex.Lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errorf("unexpected trailing input at %s", p.cur().Text)
	}
	return sel, nil
}

type parser struct {
	tokens []lex.Token
	pos    int
}

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) cur() lex.Token {
	if p.atEnd() {
		return lex.Token{Type: lex.EOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) peekType() lex.Type { return p.cur().Type }

func (p *parser) advance() lex.Token {
	t := p.cur()
	p.pos++
	return t
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return sql.ErrSyntax.New(fmt.Sprintf(format, args...))
}

func (p *parser) expect(t lex.Type, what string) (lex.Token, error) {
	if p.peekType() != t {
		return lex.Token{}, p.errorf("expected %s, got %q", what, p.cur().Text)
	}
	return p.advance(), nil
}

// --- top level ---

func (p *parser) parseSelect() (*ast.Select, error) {
	if _, err := p.expect(lex.SELECT, "SELECT"); err != nil {
		return nil, err
	}
	fields, err := p.parseSelectFieldList()
	if err != nil {
		return nil, err
	}
	sel := &ast.Select{SelectFields: fields}
	if p.peekType() != lex.FROM {
		limit, has, err := p.parseOptionalLimit()
		if err != nil {
			return nil, err
		}
		sel.Limit, sel.HasLimit = limit, has
		return sel, nil
	}
	p.advance() // FROM
	tableExpr, err := p.parseFullTableExpr()
	if err != nil {
		return nil, err
	}
	sel.TableExpr = tableExpr

	if p.peekType() == lex.WHERE {
		p.advance()
		where, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.WhereExpr = where
	}

	if p.peekType() == lex.GROUP {
		p.advance()
		if p.peekType() == lex.EACH {
			p.advance()
		}
		if _, err := p.expect(lex.BY, "BY"); err != nil {
			return nil, err
		}
		groups, err := p.parseColumnIDList()
		if err != nil {
			return nil, err
		}
		sel.Groups = groups
	}

	if p.peekType() == lex.HAVING {
		p.advance()
		having, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		sel.HavingExpr = having
	}

	if p.peekType() == lex.ORDER {
		p.advance()
		if _, err := p.expect(lex.BY, "BY"); err != nil {
			return nil, err
		}
		orderings, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		sel.Orderings = orderings
	}

	limit, has, err := p.parseOptionalLimit()
	if err != nil {
		return nil, err
	}
	sel.Limit, sel.HasLimit = limit, has
	return sel, nil
}

func (p *parser) parseOptionalLimit() (int64, bool, error) {
	if p.peekType() != lex.LIMIT {
		return 0, false, nil
	}
	p.advance()
	tok, err := p.expect(lex.INTEGER, "integer limit")
	if err != nil {
		return 0, false, err
	}
	return tok.IntValue, true, nil
}

func (p *parser) parseColumnIDList() ([]string, error) {
	var ids []string
	for {
		tok, err := p.expect(lex.ID, "identifier")
		if err != nil {
			return nil, err
		}
		name := tok.Text
		for p.peekType() == lex.DOT {
			p.advance()
			tok2, err := p.expect(lex.ID, "identifier")
			if err != nil {
				return nil, err
			}
			name += "." + tok2.Text
		}
		ids = append(ids, name)
		if p.peekType() != lex.COMMA {
			break
		}
		p.advance()
		if p.peekType() != lex.ID {
			break // trailing comma
		}
	}
	return ids, nil
}

func (p *parser) parseOrderByList() ([]ast.Ordering, error) {
	var orderings []ast.Ordering
	for {
		id, err := p.parseIDComponentList()
		if err != nil {
			return nil, err
		}
		asc := true
		switch p.peekType() {
		case lex.ASC:
			p.advance()
		case lex.DESC:
			p.advance()
			asc = false
		}
		orderings = append(orderings, ast.Ordering{ColumnID: id, IsAscending: asc})
		if p.peekType() != lex.COMMA {
			break
		}
		p.advance()
		if !p.canStartIDComponentList() {
			break // trailing comma
		}
	}
	return orderings, nil
}

func (p *parser) canStartIDComponentList() bool {
	return p.peekType() == lex.ID
}

func (p *parser) parseIDComponentList() (string, error) {
	tok, err := p.expect(lex.ID, "identifier")
	if err != nil {
		return "", err
	}
	name := tok.Text
	for p.peekType() == lex.DOT {
		p.advance()
		tok2, err := p.expect(lex.ID, "identifier")
		if err != nil {
			return "", err
		}
		name += "." + tok2.Text
	}
	return name, nil
}

// --- select field list ---

func (p *parser) parseSelectFieldList() ([]ast.SelectField, error) {
	var fields []ast.SelectField
	for {
		f, err := p.parseSelectField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.peekType() != lex.COMMA {
			break
		}
		p.advance()
		if p.peekType() == lex.FROM || p.atEnd() || p.peekType() == lex.LIMIT {
			break // trailing comma
		}
	}
	return fields, nil
}

func (p *parser) parseSelectField() (ast.SelectField, error) {
	if p.peekType() == lex.STAR {
		p.advance()
		return ast.SelectField{Expr: ast.Star{}}, nil
	}
	if p.peekType() == lex.ID {
		j := p.pos
		for j+2 < len(p.tokens) && p.tokens[j].Type == lex.ID && p.tokens[j+1].Type == lex.DOT {
			if p.tokens[j+2].Type == lex.STAR {
				var parts []string
				for k := p.pos; k <= j; k += 2 {
					parts = append(parts, p.tokens[k].Text)
				}
				p.pos = j + 3
				return ast.SelectField{Expr: ast.Star{TablePrefix: strings.Join(parts, ".")}}, nil
			}
			j += 2
		}
	}
	expr, err := p.parseExpr(0)
	if err != nil {
		return ast.SelectField{}, err
	}
	field := ast.SelectField{Expr: expr}
	switch p.peekType() {
	case lex.AS:
		p.advance()
		tok, err := p.expect(lex.ID, "alias")
		if err != nil {
			return ast.SelectField{}, err
		}
		field.Alias, field.HasAlias = tok.Text, true
	case lex.ID:
		tok := p.advance()
		field.Alias, field.HasAlias = tok.Text, true
	case lex.WITHIN:
		p.advance()
		if p.peekType() == lex.RECORD {
			p.advance()
			field.Within = ast.WithinRecord
		} else {
			within, err := p.parseExpr(0)
			if err != nil {
				return ast.SelectField{}, err
			}
			id, ok := within.(ast.ColumnID)
			if !ok {
				return ast.SelectField{}, p.errorf("WITHIN clause must name a field")
			}
			field.Within = ast.WithinField
			field.WithinField = id.Name
		}
		if _, err := p.expect(lex.AS, "AS"); err != nil {
			return ast.SelectField{}, err
		}
		tok, err := p.expect(lex.ID, "alias")
		if err != nil {
			return ast.SelectField{}, err
		}
		field.Alias, field.HasAlias = tok.Text, true
	}
	return field, nil
}

// --- table expressions ---

func (p *parser) parseFullTableExpr() (ast.TableExpr, error) {
	first, err := p.parseAliasedTableExpr()
	if err != nil {
		return nil, err
	}
	if isJoinStart(p.peekType()) {
		parts, err := p.parseJoinTail()
		if err != nil {
			return nil, err
		}
		return ast.Join{Base: first, JoinParts: parts}, nil
	}
	tables := []ast.TableExpr{first}
	for p.peekType() == lex.COMMA {
		p.advance()
		if !p.canStartTableExpr() {
			break // trailing comma
		}
		next, err := p.parseAliasedTableExpr()
		if err != nil {
			return nil, err
		}
		tables = append(tables, next)
	}
	if len(tables) == 1 {
		return tables[0], nil
	}
	return ast.TableUnion{Tables: tables}, nil
}

func (p *parser) canStartTableExpr() bool {
	switch p.peekType() {
	case lex.ID, lex.SELECT, lex.LPAREN:
		return true
	default:
		return false
	}
}

func isJoinStart(t lex.Type) bool {
	switch t {
	case lex.LEFT, lex.JOIN, lex.CROSS:
		return true
	default:
		return false
	}
}

func (p *parser) parseJoinTail() ([]ast.PartialJoin, error) {
	var parts []ast.PartialJoin
	for isJoinStart(p.peekType()) {
		part, err := p.parsePartialJoin()
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, nil
}

func (p *parser) parsePartialJoin() (ast.PartialJoin, error) {
	switch p.peekType() {
	case lex.CROSS:
		p.advance()
		if _, err := p.expect(lex.JOIN, "JOIN"); err != nil {
			return ast.PartialJoin{}, err
		}
		each := p.consumeEach()
		table, err := p.parseAliasedTableExpr()
		if err != nil {
			return ast.PartialJoin{}, err
		}
		return ast.PartialJoin{TableExpr: table, JoinType: ast.CrossJoin, Each: each}, nil
	case lex.LEFT:
		p.advance()
		if _, err := p.expect(lex.OUTER, "OUTER"); err == nil {
			// consumed OUTER
		} else {
			// LEFT JOIN without OUTER is allowed too; back up isn't
			// possible with this simple scanner, so check ahead.
		}
		if p.peekType() == lex.JOIN {
			p.advance()
		} else {
			return ast.PartialJoin{}, p.errorf("expected JOIN after LEFT [OUTER]")
		}
		each := p.consumeEach()
		table, err := p.parseAliasedTableExpr()
		if err != nil {
			return ast.PartialJoin{}, err
		}
		if _, err := p.expect(lex.ON, "ON"); err != nil {
			return ast.PartialJoin{}, err
		}
		cond, err := p.parseExpr(0)
		if err != nil {
			return ast.PartialJoin{}, err
		}
		return ast.PartialJoin{TableExpr: table, JoinType: ast.LeftOuterJoin, Condition: cond, Each: each}, nil
	case lex.JOIN:
		p.advance()
		each := p.consumeEach()
		table, err := p.parseAliasedTableExpr()
		if err != nil {
			return ast.PartialJoin{}, err
		}
		if _, err := p.expect(lex.ON, "ON"); err != nil {
			return ast.PartialJoin{}, err
		}
		cond, err := p.parseExpr(0)
		if err != nil {
			return ast.PartialJoin{}, err
		}
		return ast.PartialJoin{TableExpr: table, JoinType: ast.InnerJoin, Condition: cond, Each: each}, nil
	default:
		return ast.PartialJoin{}, p.errorf("expected join clause")
	}
}

func (p *parser) consumeEach() bool {
	if p.peekType() == lex.EACH {
		p.advance()
		return true
	}
	return false
}

func (p *parser) parseAliasedTableExpr() (ast.TableExpr, error) {
	table, err := p.parseTableExpr()
	if err != nil {
		return nil, err
	}
	var alias string
	switch p.peekType() {
	case lex.AS:
		p.advance()
		tok, err := p.expect(lex.ID, "alias")
		if err != nil {
			return nil, err
		}
		alias = tok.Text
	case lex.ID:
		alias = p.advance().Text
	default:
		return table, nil
	}
	switch t := table.(type) {
	case ast.TableID:
		t.Alias = alias
		return t, nil
	case *ast.Select:
		t.Alias = alias
		return t, nil
	default:
		return nil, p.errorf("cannot alias this table expression")
	}
}

func (p *parser) parseTableExpr() (ast.TableExpr, error) {
	switch p.peekType() {
	case lex.SELECT:
		return p.parseSelect()
	case lex.LPAREN:
		p.advance()
		inner, err := p.parseTableExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lex.RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case lex.ID:
		name, err := p.parseIDComponentList()
		if err != nil {
			return nil, err
		}
		return ast.TableID{Name: name}, nil
	default:
		return nil, p.errorf("expected a table expression, got %q", p.cur().Text)
	}
}

// --- expressions (precedence climbing) ---
// Binding powers, low to high: OR/AND(1) < comparisons/IS(2) < +/-(3) <
// * / % CONTAINS IN (4) < unary (5).

func precedenceOf(t lex.Type) (int, bool) {
	switch t {
	case lex.AND, lex.OR:
		return 1, true
	case lex.EQUALS, lex.NOTEQUAL, lex.GREATERTHAN, lex.LESSTHAN,
		lex.GREATERTHANOREQUAL, lex.LESSTHANOREQUAL, lex.IS:
		return 2, true
	case lex.PLUS, lex.MINUS:
		return 3, true
	case lex.STAR, lex.DIVIDEDBY, lex.MOD, lex.CONTAINS, lex.IN:
		return 4, true
	default:
		return 0, false
	}
}

func opText(t lex.Type) string {
	switch t {
	case lex.AND:
		return "and"
	case lex.OR:
		return "or"
	case lex.EQUALS:
		return "="
	case lex.NOTEQUAL:
		return "!="
	case lex.GREATERTHAN:
		return ">"
	case lex.LESSTHAN:
		return "<"
	case lex.GREATERTHANOREQUAL:
		return ">="
	case lex.LESSTHANOREQUAL:
		return "<="
	case lex.PLUS:
		return "+"
	case lex.MINUS:
		return "-"
	case lex.STAR:
		return "*"
	case lex.DIVIDEDBY:
		return "/"
	case lex.MOD:
		return "%"
	case lex.CONTAINS:
		return "contains"
	default:
		return ""
	}
}

func (p *parser) parseExpr(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		if p.peekType() == lex.IS && minPrec <= 2 {
			p.advance()
			if p.peekType() == lex.NOT {
				p.advance()
				if _, err := p.expect(lex.NULL, "NULL"); err != nil {
					return nil, err
				}
				left = ast.UnaryOperator{Operator: "is_not_null", Expr: left}
			} else {
				if _, err := p.expect(lex.NULL, "NULL"); err != nil {
					return nil, err
				}
				left = ast.UnaryOperator{Operator: "is_null", Expr: left}
			}
			continue
		}
		if p.peekType() == lex.IN && minPrec <= 4 {
			p.advance()
			if _, err := p.expect(lex.LPAREN, "("); err != nil {
				return nil, err
			}
			args, err := p.parseConstantList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lex.RPAREN, ")"); err != nil {
				return nil, err
			}
			all := append([]ast.Expr{left}, args...)
			left = ast.FunctionCall{Name: "in", Args: all}
			continue
		}
		prec, ok := precedenceOf(p.peekType())
		if !ok || prec < minPrec {
			return left, nil
		}
		opTok := p.advance()
		right, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = ast.BinaryOperator{Operator: opText(opTok.Type), Left: left, Right: right}
	}
}

func (p *parser) parseConstantList() ([]ast.Expr, error) {
	var args []ast.Expr
	for {
		lit, err := p.parseConstant()
		if err != nil {
			return nil, err
		}
		args = append(args, lit)
		if p.peekType() != lex.COMMA {
			break
		}
		p.advance()
		if p.peekType() == lex.RPAREN {
			break // trailing comma
		}
	}
	return args, nil
}

func (p *parser) parseConstant() (ast.Expr, error) {
	switch p.peekType() {
	case lex.INTEGER:
		return ast.Literal{Value: p.advance().IntValue}, nil
	case lex.FLOAT:
		return ast.Literal{Value: p.advance().FloatValue}, nil
	case lex.STRING:
		return ast.Literal{Value: p.advance().Text}, nil
	case lex.TRUE:
		p.advance()
		return ast.Literal{Value: true}, nil
	case lex.FALSE:
		p.advance()
		return ast.Literal{Value: false}, nil
	case lex.NULL:
		p.advance()
		return ast.Literal{Value: nil}, nil
	default:
		return nil, p.errorf("expected a constant, got %q", p.cur().Text)
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	switch p.peekType() {
	case lex.MINUS:
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOperator{Operator: "-", Expr: expr}, nil
	case lex.NOT:
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOperator{Operator: "not", Expr: expr}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	switch p.peekType() {
	case lex.LPAREN:
		p.advance()
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lex.RPAREN, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case lex.INTEGER, lex.FLOAT, lex.STRING, lex.TRUE, lex.FALSE, lex.NULL:
		return p.parseConstant()
	case lex.COUNT:
		return p.parseCount()
	case lex.CASE:
		return p.parseCase()
	case lex.LEFT:
		// LEFT is also a function name (e.g. LEFT(s, n)), disambiguated
		// by a following LPAREN.
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == lex.LPAREN {
			p.advance()
			args, err := p.parseParenArgList()
			if err != nil {
				return nil, err
			}
			return ast.FunctionCall{Name: "left", Args: args}, nil
		}
		return nil, p.errorf("unexpected LEFT")
	case lex.ID:
		name, err := p.parseIDComponentList()
		if err != nil {
			return nil, err
		}
		if p.peekType() == lex.LPAREN {
			args, err := p.parseParenArgList()
			if err != nil {
				return nil, err
			}
			return ast.FunctionCall{Name: strings.ToLower(name), Args: args}, nil
		}
		if p.peekType() == lex.DOT {
			// id_component_list already consumed dots; a `prefix.*`
			// select field is recognized by parseSelectField before
			// expression parsing starts.
		}
		return ast.ColumnID{Name: name}, nil
	case lex.STAR:
		return nil, p.errorf("unexpected *")
	default:
		return nil, p.errorf("unexpected token %q", p.cur().Text)
	}
}

func (p *parser) parseParenArgList() ([]ast.Expr, error) {
	if _, err := p.expect(lex.LPAREN, "("); err != nil {
		return nil, err
	}
	if p.peekType() == lex.RPAREN {
		p.advance()
		return nil, nil
	}
	var args []ast.Expr
	for {
		arg, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peekType() != lex.COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lex.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseCount() (ast.Expr, error) {
	p.advance() // COUNT
	if _, err := p.expect(lex.LPAREN, "("); err != nil {
		return nil, err
	}
	if p.peekType() == lex.STAR {
		p.advance()
		if _, err := p.expect(lex.RPAREN, ")"); err != nil {
			return nil, err
		}
		return ast.FunctionCall{Name: "count", Args: []ast.Expr{ast.Literal{Value: int64(1)}}}, nil
	}
	name := "count"
	if p.peekType() == lex.DISTINCT {
		p.advance()
		name = "count_distinct"
	}
	var args []ast.Expr
	if p.peekType() != lex.RPAREN {
		for {
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peekType() != lex.COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(lex.RPAREN, ")"); err != nil {
		return nil, err
	}
	return ast.FunctionCall{Name: name, Args: args}, nil
}

func (p *parser) parseCase() (ast.Expr, error) {
	p.advance() // CASE
	var clauses []ast.CaseClause
	for p.peekType() == lex.WHEN {
		p.advance()
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lex.THEN, "THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.CaseClause{Condition: cond, ResultExpr: result})
	}
	if len(clauses) == 0 {
		return nil, p.errorf("CASE must have at least one WHEN clause")
	}
	if p.peekType() == lex.ELSE {
		p.advance()
		result, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.CaseClause{Condition: ast.Literal{Value: true}, ResultExpr: result})
	}
	if _, err := p.expect(lex.END, "END"); err != nil {
		return nil, err
	}
	return ast.CaseExpression{Clauses: clauses}, nil
}
