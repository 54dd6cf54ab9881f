/*
 * Copyright (c) 2022-2023, Dana Burkart <dana.burkart@gmail.com>
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

package parser

import (
	"fmt"
	"strings"

	"github.com/dburkart/ppl/pkg/common/parse"
	"github.com/dburkart/ppl/pkg/ppl/ast"
	"github.com/dburkart/ppl/pkg/ppl/scanner"
)

type Parser struct {
	Scanner scanner.Scanner
}

// Parse is shorthand for parsing input with a fresh Parser.
func Parse(input string) (*ast.QueryNode, error) {
	p := Parser{Scanner: scanner.Scanner{Input: input}}
	return p.Parse()
}

// Parse consumes the whole input. Any error returned is a *parse.SyntaxError.
func (p *Parser) Parse() (query *ast.QueryNode, err error) {
	defer func() {
		if e := recover(); e != nil {
			syntaxError, ok := e.(parse.SyntaxError)
			if !ok {
				panic(e)
			}
			syntaxError.Input = p.Scanner.Input
			query = nil
			err = &syntaxError
		}
	}()

	p.Scanner.Input = strings.TrimSpace(p.Scanner.Input)

	query = p.query()

	// If we didn't parse all the input, return an error
	tok := p.Scanner.Emit()
	if tok.Type != scanner.TOK_EOF {
		panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected token '%s', expected '|' or end of query", tok.Lexeme)))
	}

	return query, nil
}

// query returns a QueryNode
//
// Grammar:
//
//	query           = search *( "|" command )
func (p *Parser) query() *ast.QueryNode {
	q := ast.QueryNode{Input: p.Scanner.Input}

	// Queries must start with a search
	q.Commands = append(q.Commands, p.search())

	for {
		tok := p.Scanner.Emit()
		if tok.Type != scanner.TOK_PIPE {
			p.Scanner.Rewind()
			break
		}
		q.Commands = append(q.Commands, p.command())
	}

	return &q
}

// search returns a SearchNode
//
// Grammar:
//
//	search          = [ "search" ] "source" "=" identifier [ logical-expr ]
func (p *Parser) search() ast.ASTNode {
	s := ast.SearchNode{}

	tok := p.Scanner.Emit()
	if isKeyword(tok, "search") {
		s.Token = tok
		tok = p.Scanner.Emit()
	}

	if !isKeyword(tok, "source") {
		panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected %s, expected 'source'", describe(tok))))
	}

	if s.Token.Type == nil {
		s.Token = tok
	}

	p.expect(scanner.TOK_EQ, "'=' after 'source'")

	tok = p.Scanner.Emit()
	if tok.Type != scanner.TOK_IDENTIFIER {
		panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected %s, expected a source name", describe(tok))))
	}
	s.Source = ast.MakeIdentifierNode(tok)

	if p.startsExpression() {
		s.Condition = p.logicalOr()
	}

	return &s
}

// command returns the node for a single piped command
//
// Grammar:
//
//	command         = where / fields / rename / stats / dedup / sort / head / eval
func (p *Parser) command() ast.ASTNode {
	tok := p.Scanner.Emit()

	if tok.Type == scanner.TOK_KEYWORD {
		switch strings.ToLower(tok.Lexeme) {
		case "where":
			return p.where(tok)
		case "fields":
			return p.fields(tok)
		case "rename":
			return p.rename(tok)
		case "stats":
			return p.stats(tok)
		case "dedup":
			return p.dedup(tok)
		case "sort":
			return p.sort(tok)
		case "head":
			return p.head(tok)
		case "eval":
			return p.eval(tok)
		case "search", "source":
			panic(parse.NewSyntaxError(tok, "Error: search is only allowed as the first command"))
		}
	}

	panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected %s, expected a command (where, fields, rename, stats, dedup, sort, head, eval)", describe(tok))))
}

// where returns a WhereNode
//
// Grammar:
//
//	where           = "where" logical-expr
func (p *Parser) where(tok parse.Token) ast.ASTNode {
	return &ast.WhereNode{BaseNode: ast.BaseNode{Token: tok}, Condition: p.logicalOr()}
}

// fields returns a FieldsNode
//
// Grammar:
//
//	fields          = "fields" [ "+" / "-" ] field-list
func (p *Parser) fields(tok parse.Token) ast.ASTNode {
	f := ast.FieldsNode{BaseNode: ast.BaseNode{Token: tok}}

	sign := p.Scanner.Emit()
	switch sign.Type {
	case scanner.TOK_MINUS:
		f.Exclude = true
	case scanner.TOK_PLUS:
	default:
		p.Scanner.Rewind()
	}

	f.Fields = p.fieldList()
	return &f
}

// rename returns a RenameNode
//
// Grammar:
//
//	rename          = "rename" identifier "as" identifier *( "," identifier "as" identifier )
func (p *Parser) rename(tok parse.Token) ast.ASTNode {
	r := ast.RenameNode{BaseNode: ast.BaseNode{Token: tok}}

	for {
		from := p.field()

		as := p.Scanner.Emit()
		if !isKeyword(as, "as") {
			panic(parse.NewSyntaxError(as, fmt.Sprintf("Error: unexpected %s, expected 'as'", describe(as))))
		}

		to := p.field()
		r.Renames = append(r.Renames, ast.RenamePairNode{BaseNode: ast.BaseNode{Token: as}, From: from, To: to})

		if !p.accept(scanner.TOK_COMMA) {
			break
		}
	}

	return &r
}

// stats returns a StatsNode
//
// Grammar:
//
//	stats           = "stats" aggregate *( "," aggregate ) [ "by" field-list ]
func (p *Parser) stats(tok parse.Token) ast.ASTNode {
	s := ast.StatsNode{BaseNode: ast.BaseNode{Token: tok}}

	for {
		s.Aggregates = append(s.Aggregates, p.aggregate())
		if !p.accept(scanner.TOK_COMMA) {
			break
		}
	}

	by := p.Scanner.Emit()
	if isKeyword(by, "by") {
		s.GroupBy = p.fieldList()
	} else {
		p.Scanner.Rewind()
	}

	return &s
}

// aggregate returns an AggregateNode
//
// Grammar:
//
//	aggregate       = identifier "(" [ identifier ] ")" [ "as" identifier ]
func (p *Parser) aggregate() ast.AggregateNode {
	tok := p.Scanner.Emit()
	if tok.Type != scanner.TOK_IDENTIFIER {
		panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected %s, expected an aggregation function", describe(tok))))
	}

	a := ast.AggregateNode{BaseNode: ast.BaseNode{Token: tok}, Function: tok}

	p.expect(scanner.TOK_PAREN_L, "'(' after aggregation function")

	if !p.accept(scanner.TOK_PAREN_R) {
		arg := p.field()
		a.Argument = &arg
		p.expect(scanner.TOK_PAREN_R, "')'")
	}

	as := p.Scanner.Emit()
	if isKeyword(as, "as") {
		alias := p.field()
		a.Alias = &alias
	} else {
		p.Scanner.Rewind()
	}

	return a
}

// dedup returns a DedupNode
//
// Grammar:
//
//	dedup           = "dedup" [ integer ] field-list *( ( "keepempty" / "consecutive" ) "=" boolean )
func (p *Parser) dedup(tok parse.Token) ast.ASTNode {
	d := ast.DedupNode{BaseNode: ast.BaseNode{Token: tok}}

	d.Count = p.count()
	d.Fields = p.fieldList()

	for {
		option := p.Scanner.Emit()
		if !isKeyword(option, "keepempty") && !isKeyword(option, "consecutive") {
			p.Scanner.Rewind()
			break
		}

		p.expect(scanner.TOK_EQ, fmt.Sprintf("'=' after '%s'", option.Lexeme))

		value := p.Scanner.Emit()
		if !isKeyword(value, "true") && !isKeyword(value, "false") {
			panic(parse.NewSyntaxError(value, fmt.Sprintf("Error: unexpected %s, expected true or false", describe(value))))
		}

		enabled := strings.EqualFold(value.Lexeme, "true")
		if isKeyword(option, "keepempty") {
			d.KeepEmpty = enabled
		} else {
			d.Consecutive = enabled
		}
	}

	return &d
}

// sort returns a SortNode
//
// Grammar:
//
//	sort            = "sort" [ integer ] sort-field *( "," sort-field )
//	sort-field      = [ "+" / "-" ] identifier
func (p *Parser) sort(tok parse.Token) ast.ASTNode {
	s := ast.SortNode{BaseNode: ast.BaseNode{Token: tok}}

	s.Count = p.count()

	for {
		field := ast.SortFieldNode{}

		sign := p.Scanner.Emit()
		switch sign.Type {
		case scanner.TOK_MINUS:
			field.Descending = true
			field.Token = sign
		case scanner.TOK_PLUS:
			field.Token = sign
		default:
			p.Scanner.Rewind()
		}

		field.Field = p.field()
		if field.Token.Type == nil {
			field.Token = field.Field.Token
		}

		s.Fields = append(s.Fields, field)

		if !p.accept(scanner.TOK_COMMA) {
			break
		}
	}

	return &s
}

// head returns a HeadNode
//
// Grammar:
//
//	head            = "head" [ integer ]
func (p *Parser) head(tok parse.Token) ast.ASTNode {
	return &ast.HeadNode{BaseNode: ast.BaseNode{Token: tok}, Count: p.count()}
}

// eval returns an EvalNode
//
// Grammar:
//
//	eval            = "eval" identifier "=" expression *( "," identifier "=" expression )
func (p *Parser) eval(tok parse.Token) ast.ASTNode {
	e := ast.EvalNode{BaseNode: ast.BaseNode{Token: tok}}

	for {
		field := p.field()
		eq := p.expect(scanner.TOK_EQ, fmt.Sprintf("'=' after '%s'", field.Name()))

		e.Assignments = append(e.Assignments, ast.AssignmentNode{
			BaseNode:   ast.BaseNode{Token: eq},
			Field:      field,
			Expression: p.expression(),
		})

		if !p.accept(scanner.TOK_COMMA) {
			break
		}
	}

	return &e
}

// fieldList returns one or more identifiers
//
// Grammar:
//
//	field-list      = identifier *( "," identifier )
func (p *Parser) fieldList() []ast.IdentifierNode {
	fields := []ast.IdentifierNode{p.field()}

	for p.accept(scanner.TOK_COMMA) {
		fields = append(fields, p.field())
	}

	return fields
}

func (p *Parser) field() ast.IdentifierNode {
	tok := p.Scanner.Emit()
	if tok.Type != scanner.TOK_IDENTIFIER {
		panic(parse.NewSyntaxError(tok, fmt.Sprintf("Error: unexpected %s, expected a field name", describe(tok))))
	}
	return ast.MakeIdentifierNode(tok)
}

// count returns an optional integer argument, or nil
func (p *Parser) count() *ast.NumberNode {
	tok := p.Scanner.Emit()
	if tok.Type != scanner.TOK_INTEGER {
		p.Scanner.Rewind()
		return nil
	}
	return p.number(tok)
}

// logicalOr returns a BinaryOpNode, or the result of logicalAnd
//
// Grammar:
//
//	logical-expr    = logical-and *( "or" logical-and )
func (p *Parser) logicalOr() ast.ASTNode {
	left := p.logicalAnd()

	for {
		tok := p.Scanner.Emit()
		if !isKeyword(tok, "or") {
			p.Scanner.Rewind()
			return left
		}

		op := ast.BinaryOpNode{BaseNode: ast.BaseNode{Token: tok}, Op: tok, Left: left}
		op.Right = p.logicalAnd()
		left = &op
	}
}

// logicalAnd returns a BinaryOpNode, or the result of logicalNot. Two boolean
// clauses next to each other are joined by an implicit "and".
//
// Grammar:
//
//	logical-and     = logical-not *( [ "and" ] logical-not )
func (p *Parser) logicalAnd() ast.ASTNode {
	left := p.logicalNot()

	for {
		tok := p.Scanner.Emit()
		if !isKeyword(tok, "and") {
			p.Scanner.Rewind()
			if !p.startsExpression() {
				return left
			}

			next := p.Scanner.Peek()
			tok = parse.Token{
				Type:     scanner.TOK_KEYWORD,
				Lexeme:   "and",
				Location: parse.Location{Start: next.Location.Start, End: next.Location.Start},
			}
		}

		op := ast.BinaryOpNode{BaseNode: ast.BaseNode{Token: tok}, Op: tok, Left: left}
		op.Right = p.logicalNot()
		left = &op
	}
}

// logicalNot returns a UnaryOpNode, or the result of comparison
//
// Grammar:
//
//	logical-not     = "not" logical-not / comparison
func (p *Parser) logicalNot() ast.ASTNode {
	tok := p.Scanner.Emit()
	if isKeyword(tok, "not") {
		return &ast.UnaryOpNode{BaseNode: ast.BaseNode{Token: tok}, Operator: tok, Operand: p.logicalNot()}
	}
	p.Scanner.Rewind()

	return p.comparison()
}

// comparison returns a BinaryOpNode, or the result of expression
//
// Grammar:
//
//	comparison      = expression [ ( "=" / "!=" / "<" / "<=" / ">" / ">=" ) expression ]
func (p *Parser) comparison() ast.ASTNode {
	left := p.expression()

	c := p.Scanner.Emit()
	switch c.Type {
	case scanner.TOK_EQ, scanner.TOK_NOT_EQ, scanner.TOK_LESS, scanner.TOK_LESS_EQ,
		scanner.TOK_GREATER, scanner.TOK_GREATER_EQ:
		op := ast.BinaryOpNode{BaseNode: ast.BaseNode{Token: c}, Op: c, Left: left}
		op.Right = p.expression()
		return &op
	}
	p.Scanner.Rewind()

	return left
}

// expression returns a BinaryOpNode, or the result of term
//
// Grammar:
//
//	expression      = term *( ( "+" / "-" ) term )
func (p *Parser) expression() ast.ASTNode {
	left := p.term()

	for {
		c := p.Scanner.Emit()
		if c.Type != scanner.TOK_PLUS && c.Type != scanner.TOK_MINUS {
			p.Scanner.Rewind()
			return left
		}

		op := ast.BinaryOpNode{BaseNode: ast.BaseNode{Token: c}, Op: c, Left: left}
		op.Right = p.term()
		left = &op
	}
}

// term returns a BinaryOpNode, or the result of unary
//
// Grammar:
//
//	term            = unary *( ( "*" / "/" / "%" ) unary )
func (p *Parser) term() ast.ASTNode {
	left := p.unary()

	for {
		c := p.Scanner.Emit()
		if c.Type != scanner.TOK_STAR && c.Type != scanner.TOK_SLASH && c.Type != scanner.TOK_PERCENT {
			p.Scanner.Rewind()
			return left
		}

		op := ast.BinaryOpNode{BaseNode: ast.BaseNode{Token: c}, Op: c, Left: left}
		op.Right = p.unary()
		left = &op
	}
}

// unary returns a UnaryOpNode, or the result of primary
//
// Grammar:
//
//	unary           = ( "-" / "+" ) unary / primary
func (p *Parser) unary() ast.ASTNode {
	t := p.Scanner.Emit()
	if t.Type == scanner.TOK_MINUS || t.Type == scanner.TOK_PLUS {
		return &ast.UnaryOpNode{BaseNode: ast.BaseNode{Token: t}, Operator: t, Operand: p.unary()}
	}
	p.Scanner.Rewind()

	return p.primary()
}

// primary returns a leaf node for an expression
//
// Grammar:
//
//	primary         = identifier / integer / float / string / "true" / "false" / "(" logical-expr ")"
func (p *Parser) primary() ast.ASTNode {
	t := p.Scanner.Emit()

	switch t.Type {
	case scanner.TOK_IDENTIFIER:
		identifier := ast.MakeIdentifierNode(t)
		return &identifier
	case scanner.TOK_INTEGER, scanner.TOK_FLOAT:
		return p.number(t)
	case scanner.TOK_STRING:
		return ast.MakeStringNode(t)
	case scanner.TOK_KEYWORD:
		if isKeyword(t, "true") || isKeyword(t, "false") {
			return ast.MakeBooleanNode(t)
		}
	case scanner.TOK_PAREN_L:
		// We're an expression group, so start over at the lowest precedence
		expr := p.logicalOr()
		p.expect(scanner.TOK_PAREN_R, "')'")
		return expr
	case scanner.TOK_INVALID:
		panic(parse.NewSyntaxError(t, fmt.Sprintf("Error: invalid token '%s'", t.Lexeme)))
	}

	panic(parse.NewSyntaxError(t, fmt.Sprintf("Error: unexpected %s, expected a field, literal or '('", describe(t))))
}

func (p *Parser) number(t parse.Token) *ast.NumberNode {
	n, err := ast.MakeNumberNode(t)
	if err != nil {
		panic(parse.NewSyntaxError(t, fmt.Sprintf("Error: invalid number '%s'", t.Lexeme)))
	}
	return n
}

// startsExpression reports whether the next token can begin a boolean
// expression.
func (p *Parser) startsExpression() bool {
	t := p.Scanner.Peek()

	switch t.Type {
	case scanner.TOK_IDENTIFIER, scanner.TOK_INTEGER, scanner.TOK_FLOAT, scanner.TOK_STRING,
		scanner.TOK_PAREN_L, scanner.TOK_MINUS, scanner.TOK_PLUS, scanner.TOK_INVALID:
		return true
	case scanner.TOK_KEYWORD:
		return isKeyword(t, "not") || isKeyword(t, "true") || isKeyword(t, "false")
	}

	return false
}

// expect consumes the next token, which must be of type tt
func (p *Parser) expect(tt scanner.TokenType, what string) parse.Token {
	t := p.Scanner.Emit()
	if t.Type != tt {
		panic(parse.NewSyntaxError(t, fmt.Sprintf("Error: unexpected %s, expected %s", describe(t), what)))
	}
	return t
}

// accept consumes the next token only if it is of type tt
func (p *Parser) accept(tt scanner.TokenType) bool {
	t := p.Scanner.Emit()
	if t.Type != tt {
		p.Scanner.Rewind()
		return false
	}
	return true
}

func isKeyword(t parse.Token, word string) bool {
	return t.Type == scanner.TOK_KEYWORD && strings.EqualFold(t.Lexeme, word)
}

func describe(t parse.Token) string {
	if t.Type == scanner.TOK_EOF {
		return "end of query"
	}
	return fmt.Sprintf("token '%s'", t.Lexeme)
}
