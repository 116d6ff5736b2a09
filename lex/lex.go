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

// Package lex turns a query string into a stream of tokens for package
// parse. It's a small hand-written scanner rather than a generated one:
// the token set is fixed and doesn't need the flexibility of a lexer
// generator.
package lex

import (
	"strconv"
	"strings"

	"github.com/dolthub/tinyquery/sql"
)

// Type identifies the lexical class of a Token.
type Type int

const (
	EOF Type = iota
	PLUS
	MINUS
	STAR
	DIVIDEDBY
	MOD
	EQUALS
	NOTEQUAL
	GREATERTHAN
	LESSTHAN
	GREATERTHANOREQUAL
	LESSTHANOREQUAL
	LPAREN
	RPAREN
	COMMA
	DOT
	INTEGER
	FLOAT
	ID
	STRING

	SELECT
	AS
	FROM
	WHERE
	HAVING
	JOIN
	ON
	GROUP
	BY
	EACH
	LEFT
	OUTER
	CROSS
	ORDER
	ASC
	DESC
	LIMIT
	AND
	OR
	NOT
	IS
	NULL
	TRUE
	FALSE
	IN
	COUNT
	DISTINCT
	CASE
	WHEN
	THEN
	ELSE
	END
	CONTAINS
	WITHIN
	RECORD
)

var reservedWords = map[string]Type{
	"select": SELECT, "as": AS, "from": FROM, "where": WHERE, "having": HAVING,
	"join": JOIN, "on": ON, "group": GROUP, "by": BY, "each": EACH,
	"left": LEFT, "outer": OUTER, "cross": CROSS, "order": ORDER, "asc": ASC,
	"desc": DESC, "limit": LIMIT, "and": AND, "or": OR, "not": NOT, "is": IS,
	"null": NULL, "true": TRUE, "false": FALSE, "in": IN, "count": COUNT,
	"distinct": DISTINCT, "case": CASE, "when": WHEN, "then": THEN,
	"else": ELSE, "end": END, "contains": CONTAINS, "within": WITHIN,
	"record": RECORD,
}

// Token is one lexical token: its type, the source text it came from, and
// (for INTEGER/FLOAT/STRING) its decoded value.
type Token struct {
	Type       Type
	Text       string
	IntValue   int64
	FloatValue float64
	Pos        int
}

func isIDStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIDChar(b byte) bool {
	return isIDStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Lex scans text into a flat token stream, raising a syntax error on the
// first unrecognized character.
func Lex(text string) ([]Token, error) {
	var tokens []Token
	i := 0
	n := len(text)
	for i < n {
		c := text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < n && text[i+1] == '-':
			i = skipLineComment(text, i)
		case c == '#':
			i = skipLineComment(text, i)
		case c == '/' && i+1 < n && text[i+1] == '/':
			i = skipLineComment(text, i)
		case c == '\'' || c == '"':
			tok, next, err := lexString(text, i, c)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case c == '[':
			tok, next, err := lexBracketedID(text, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isDigit(c):
			tok, next := lexNumber(text, i)
			tokens = append(tokens, tok)
			i = next
		case c == 'r' && i+1 < n && (text[i+1] == '\'' || text[i+1] == '"'):
			tok, next, err := lexString(text, i+1, text[i+1])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = next
		case isIDStart(c):
			tok, next := lexID(text, i)
			tokens = append(tokens, tok)
			i = next
		default:
			tok, next, ok := lexOperator(text, i)
			if !ok {
				return nil, sql.ErrSyntax.New("unexpected character " + strconv.QuoteRune(rune(c)) + " at position " + strconv.Itoa(i))
			}
			tokens = append(tokens, tok)
			i = next
		}
	}
	return tokens, nil
}

func skipLineComment(text string, i int) int {
	for i < len(text) && text[i] != '\n' {
		i++
	}
	return i
}

func lexString(text string, start int, delim byte) (Token, int, error) {
	i := start + 1
	for i < len(text) && text[i] != delim {
		i++
	}
	if i >= len(text) {
		return Token{}, 0, sql.ErrSyntax.New("unterminated string literal starting at position " + strconv.Itoa(start))
	}
	value := text[start+1 : i]
	return Token{Type: STRING, Text: value, Pos: start}, i + 1, nil
}

func lexBracketedID(text string, start int) (Token, int, error) {
	i := start + 1
	for i < len(text) && text[i] != ']' {
		i++
	}
	if i >= len(text) {
		return Token{}, 0, sql.ErrSyntax.New("unterminated bracketed identifier starting at position " + strconv.Itoa(start))
	}
	return Token{Type: ID, Text: text[start+1 : i], Pos: start}, i + 1, nil
}

func lexNumber(text string, start int) (Token, int) {
	i := start
	for i < len(text) && isDigit(text[i]) {
		i++
	}
	isFloat := false
	if i < len(text) && text[i] == '.' && i+1 < len(text) && isDigit(text[i+1]) {
		isFloat = true
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	if i < len(text) && (text[i] == 'e' || text[i] == 'E') && i+1 < len(text) && isDigit(text[i+1]) {
		isFloat = true
		i++
		for i < len(text) && isDigit(text[i]) {
			i++
		}
	}
	raw := text[start:i]
	if isFloat {
		f, _ := strconv.ParseFloat(raw, 64)
		return Token{Type: FLOAT, Text: raw, FloatValue: f, Pos: start}, i
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		v = 0
	}
	return Token{Type: INTEGER, Text: raw, IntValue: v, Pos: start}, i
}

func lexID(text string, start int) (Token, int) {
	i := start
	for i < len(text) && isIDChar(text[i]) {
		i++
	}
	raw := text[start:i]
	lower := strings.ToLower(raw)
	if typ, ok := reservedWords[lower]; ok {
		return Token{Type: typ, Text: lower, Pos: start}, i
	}
	return Token{Type: ID, Text: raw, Pos: start}, i
}

type opMatch struct {
	text string
	typ  Type
}

// ordered longest-match-first
var operators = []opMatch{
	{"==", EQUALS}, {"!=", NOTEQUAL}, {">=", GREATERTHANOREQUAL}, {"<=", LESSTHANOREQUAL},
	{"+", PLUS}, {"-", MINUS}, {"*", STAR}, {"/", DIVIDEDBY}, {"%", MOD},
	{"=", EQUALS}, {">", GREATERTHAN}, {"<", LESSTHAN},
	{"(", LPAREN}, {")", RPAREN}, {",", COMMA}, {".", DOT},
}

func lexOperator(text string, i int) (Token, int, bool) {
	for _, op := range operators {
		if strings.HasPrefix(text[i:], op.text) {
			return Token{Type: op.typ, Text: op.text, Pos: i}, i + len(op.text), true
		}
	}
	return Token{}, i, false
}
