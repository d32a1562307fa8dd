package scenario

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/funvibe/jinfer/internal/types"
)

// ParseType parses a source-like type string, e.g.
//
//	int
//	java.util.List<java.lang.String>
//	java.util.Map<K, ? extends V>[]
//
// Names found in scope parse as type variables; everything else that is
// not a primitive parses as a class type.
func ParseType(s string, scope map[string]types.Type) (types.Type, error) {
	p := &typeParser{input: s, scope: scope}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("type %q: trailing input at offset %d", s, p.pos)
	}
	return t, nil
}

var primitives = map[string]bool{
	"boolean": true, "byte": true, "short": true, "char": true,
	"int": true, "long": true, "float": true, "double": true,
	"void": true,
}

type typeParser struct {
	input string
	pos   int
	scope map[string]types.Type
}

func (p *typeParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *typeParser) expect(c byte) error {
	p.skipSpaces()
	if p.peek() != c {
		return fmt.Errorf("type %q: expected %q at offset %d", p.input, string(c), p.pos)
	}
	p.pos++
	return nil
}

func isNameChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' || r == '$'
}

func (p *typeParser) parseName() (string, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) && isNameChar(rune(p.input[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", fmt.Errorf("type %q: expected a name at offset %d", p.input, start)
	}
	return p.input[start:p.pos], nil
}

func (p *typeParser) parseType() (types.Type, error) {
	p.skipSpaces()
	if p.peek() == '?' {
		return p.parseWildcard()
	}

	name, err := p.parseName()
	if err != nil {
		return nil, err
	}

	var base types.Type
	switch {
	case primitives[name]:
		base = types.TPrimitive{Name: name}
	case p.scope != nil && p.scope[name] != nil:
		base = p.scope[name]
	default:
		c := types.TClass{Name: name}
		p.skipSpaces()
		if p.peek() == '<' {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			c.Args = args
		}
		base = c
	}
	return p.parseArraySuffix(base)
}

func (p *typeParser) parseArgs() ([]types.Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var args []types.Type
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.skipSpaces()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect('>'); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *typeParser) parseWildcard() (types.Type, error) {
	p.pos++ // '?'
	p.skipSpaces()
	rest := p.input[p.pos:]
	switch {
	case strings.HasPrefix(rest, "extends "):
		p.pos += len("extends ")
		upper, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return types.TWildcard{Upper: upper}, nil
	case strings.HasPrefix(rest, "super "):
		p.pos += len("super ")
		lower, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return types.TWildcard{Lower: lower}, nil
	default:
		return types.TWildcard{}, nil
	}
}

func (p *typeParser) parseArraySuffix(base types.Type) (types.Type, error) {
	for {
		p.skipSpaces()
		if p.peek() != '[' {
			return base, nil
		}
		p.pos++
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		base = types.TArray{Elem: base}
	}
}
