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

package lex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/tinyquery/lex"
)

func types(tokens []lex.Token) []lex.Type {
	out := make([]lex.Type, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexKeywordsAndID(t *testing.T) {
	tokens, err := lex.Lex("SELECT foo FROM bar WHERE x")
	require.NoError(t, err)
	assert.Equal(t, []lex.Type{lex.SELECT, lex.ID, lex.FROM, lex.ID, lex.WHERE, lex.ID}, types(tokens))
	assert.Equal(t, "foo", tokens[1].Text)
}

func TestLexCaseInsensitiveKeywords(t *testing.T) {
	tokens, err := lex.Lex("Select * from T")
	require.NoError(t, err)
	assert.Equal(t, []lex.Type{lex.SELECT, lex.STAR, lex.FROM, lex.ID}, types(tokens))
}

func TestLexIntegerAndFloat(t *testing.T) {
	tokens, err := lex.Lex("1 2.5 3e2")
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, lex.INTEGER, tokens[0].Type)
	assert.EqualValues(t, 1, tokens[0].IntValue)
	assert.Equal(t, lex.FLOAT, tokens[1].Type)
	assert.InDelta(t, 2.5, tokens[1].FloatValue, 0.0001)
	assert.Equal(t, lex.FLOAT, tokens[2].Type)
	assert.InDelta(t, 300.0, tokens[2].FloatValue, 0.0001)
}

func TestLexStringLiteralsBothQuoteStyles(t *testing.T) {
	tokens, err := lex.Lex(`'abc' "def"`)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, lex.STRING, tokens[0].Type)
	assert.Equal(t, "abc", tokens[0].Text)
	assert.Equal(t, lex.STRING, tokens[1].Type)
	assert.Equal(t, "def", tokens[1].Text)
}

func TestLexUnterminatedStringIsSyntaxError(t *testing.T) {
	_, err := lex.Lex(`'abc`)
	require.Error(t, err)
}

func TestLexBracketedIdentifier(t *testing.T) {
	tokens, err := lex.Lex("[my col]")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, lex.ID, tokens[0].Type)
	assert.Equal(t, "my col", tokens[0].Text)
}

func TestLexUnterminatedBracketedIdentifier(t *testing.T) {
	_, err := lex.Lex("[my col")
	require.Error(t, err)
}

func TestLexOperatorsLongestMatchFirst(t *testing.T) {
	tokens, err := lex.Lex("a >= b != c == d <= e")
	require.NoError(t, err)
	assert.Equal(t, []lex.Type{
		lex.ID, lex.GREATERTHANOREQUAL, lex.ID, lex.NOTEQUAL, lex.ID,
		lex.EQUALS, lex.ID, lex.LESSTHANOREQUAL, lex.ID,
	}, types(tokens))
}

func TestLexLineComments(t *testing.T) {
	for _, text := range []string{
		"SELECT 1 -- trailing comment",
		"SELECT 1 # trailing comment",
		"SELECT 1 // trailing comment",
	} {
		tokens, err := lex.Lex(text)
		require.NoError(t, err)
		assert.Equal(t, []lex.Type{lex.SELECT, lex.INTEGER}, types(tokens))
	}
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := lex.Lex("SELECT @foo")
	require.Error(t, err)
}

func TestLexEmptyInput(t *testing.T) {
	tokens, err := lex.Lex("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
