package key

import (
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
)

var tokenValidate = validator.New()

var tokenSeq uint64

// Token is an opaque, unique-by-construction injection token. It is
// string-named for diagnostics but two tokens with the same name are never
// equal — identity is established at construction time, not by name.
type Token struct {
	name          string
	id            uint64
	nonInjectable bool
}

// tokenNameHolder carries the identifier shape forge expects for
// diagnostic names: non-empty, printable ASCII, no spaces.
type tokenNameHolder struct {
	Name string `validate:"required,printascii,excludesall= "`
}

// NewToken creates a new injection token. The name must be a non-empty,
// whitespace-free diagnostic label; it is validated the same way forge
// validates container names (see container.Container), not treated as
// HTTP input — this only guards against tokens that would render unusable
// diagnostics.
func NewToken(name string) *Token {
	if err := tokenValidate.Struct(tokenNameHolder{Name: name}); err != nil {
		panic(fmt.Sprintf("key.NewToken: invalid token name %q: %v", name, err))
	}
	return &Token{
		name: name,
		id:   atomic.AddUint64(&tokenSeq, 1),
	}
}

// NewNonInjectableToken creates a token that IsInjectable always rejects;
// useful for sentinel markers that must never resolve via a container.
func NewNonInjectableToken(name string) *Token {
	t := NewToken(name)
	t.nonInjectable = true
	return t
}

// String renders the token as Token(name#id), its diagnostic name plus
// its unique id.
func (t *Token) String() string {
	return fmt.Sprintf("Token(%s#%d)", t.name, t.id)
}

// Name returns the token's diagnostic label.
func (t *Token) Name() string {
	return t.name
}

// Key wraps the token as a Key, equivalent to key.TokenKey(t).
func (t *Token) Key() Key {
	return TokenKey(t)
}
