package runtime

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mandelsoft/regraph/pkg/utils"
)

type Initializer[T Object] func(o T)

// SchemeTypes is a set of type definitions
// mapping type names to Go types.
// This mapping is used to provide a simple
// object creation by type name.
type SchemeTypes[T Object] interface {
	CreateObject(typ string, init ...Initializer[T]) (T, error)
}

// TypeScheme is a set types with a registration possibility.
type TypeScheme[T Object] interface {
	SchemeTypes[T]

	Register(name string, proto T) error
}

type types[E Object] struct {
	lock  sync.Mutex
	types map[string]reflect.Type
}

var _ SchemeTypes[Object] = (*types[Object])(nil)

func NewTypeScheme[E Object]() *types[E] {
	return &types[E]{types: map[string]reflect.Type{}}
}

func (s *types[E]) Register(name string, proto E) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	t := reflect.TypeOf(proto)
	if t.Kind() != reflect.Pointer {
		return fmt.Errorf("proto type for %s must be pointer", name)
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("proto type for %s must be pointer to struct", name)
	}

	s.types[name] = t
	return nil
}

func (s *types[E]) CreateObject(typ string, init ...Initializer[E]) (E, error) {
	var _nil E

	s.lock.Lock()
	defer s.lock.Unlock()

	t := s.types[typ]
	if t == nil {
		return _nil, fmt.Errorf("unknown object type %q", typ)
	}

	o := reflect.New(t).Interface().(E)
	o.SetType(typ)
	for _, i := range init {
		i(o)
	}
	return o, nil
}

type ElementType[P any] interface {
	Object
	*P
}

// MustRegister registers T's zero value as the prototype for name on s,
// panicking if *T does not actually implement the scheme's element
// interface E. persist.go's snapshot scheme calls this once, at package
// init, for the one payload shape it decodes.
func MustRegister[T any, P ElementType[T], E Object](s TypeScheme[E], name string) {
	var proto T

	p, ok := (any(&proto)).(E)
	if !ok {
		panic(fmt.Errorf("*%s does not implement scheme interface %s", utils.TypeOf[T](), utils.TypeOf[E]()))
	}
	if err := s.Register(name, p); err != nil {
		panic(err)
	}
}
