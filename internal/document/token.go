package document

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type TokenKind int

const (
	TokenStart TokenKind = iota + 1
	TokenEnd
	TokenText
)

func (k TokenKind) String() string {
	switch k {
	case TokenStart:
		return "start"
	case TokenEnd:
		return "end"
	case TokenText:
		return "text"
	default:
		return "invalid"
	}
}

// Token is one element boundary or text run. Name is the local element name
// for start and end tokens.
type Token struct {
	Kind  TokenKind
	Name  string
	Value string
}

func Start(name string) Token { return Token{Kind: TokenStart, Name: name} }
func End(name string) Token   { return Token{Kind: TokenEnd, Name: name} }
func Text(value string) Token { return Token{Kind: TokenText, Value: value} }

// TokenSource is a finite, forward-only token stream. Next returns io.EOF
// once the stream is exhausted.
type TokenSource interface {
	Next() (Token, error)
}

type xmlSource struct {
	dec *xml.Decoder
}

// NewXMLTokenSource adapts an XML byte stream. Namespaces are dropped,
// whitespace-only text, comments and processing instructions are skipped.
func NewXMLTokenSource(r io.Reader) TokenSource {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &xmlSource{dec: dec}
}

func (s *xmlSource) Next() (Token, error) {
	for {
		raw, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, io.EOF
			}
			return Token{}, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
		}
		switch t := raw.(type) {
		case xml.StartElement:
			return Start(t.Name.Local), nil
		case xml.EndElement:
			return End(t.Name.Local), nil
		case xml.CharData:
			value := strings.TrimSpace(string(t))
			if value == "" {
				continue
			}
			return Text(value), nil
		default:
			continue
		}
	}
}

type sliceSource struct {
	tokens []Token
	pos    int
}

// NewSliceSource replays a fixed token list.
func NewSliceSource(tokens ...Token) TokenSource {
	return &sliceSource{tokens: tokens}
}

func (s *sliceSource) Next() (Token, error) {
	if s.pos >= len(s.tokens) {
		return Token{}, io.EOF
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, nil
}
