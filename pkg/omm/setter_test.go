package omm

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name  string  `omm:"name,required"`
	Age   int     `omm:"age"`
	Email *string `omm:"email"`
}

func mustField(t *testing.T, c *Class[*Field], name string) *Field {
	t.Helper()
	f, ok := c.Field(name)
	require.True(t, ok, name)
	return f
}

func TestSetterAssignsFields(t *testing.T) {
	c, err := build[person](DefaultParams())
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.True(t, s.Instance().IsValid())
	require.NoError(t, s.Set(mustField(t, c, "name"), reflect.ValueOf("Ada")))
	require.NoError(t, s.Set(mustField(t, c, "age"), reflect.ValueOf(36)))
	require.NoError(t, s.Set(mustField(t, c, "email"), reflect.Value{}))

	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, person{Name: "Ada", Age: 36}, v.Interface())
}

func TestSetterErrors(t *testing.T) {
	c, err := build[person](DefaultParams())
	require.NoError(t, err)
	name := mustField(t, c, "name")
	age := mustField(t, c, "age")

	tests := []struct {
		name  string
		run   func(s *Setter[*Field]) error
		want  error
		field string
	}{
		{"duplicate", func(s *Setter[*Field]) error {
			require.NoError(t, s.Set(name, reflect.ValueOf("a")))
			return s.Set(name, reflect.ValueOf("b"))
		}, ErrDuplicateField, "name"},
		{"null", func(s *Setter[*Field]) error {
			return s.Set(age, reflect.Value{})
		}, ErrNullField, "age"},
		{"required", func(s *Setter[*Field]) error {
			require.NoError(t, s.Set(age, reflect.ValueOf(1)))
			_, err := s.Finalize()
			return err
		}, ErrRequiredField, "name"},
		{"finalize-twice", func(s *Setter[*Field]) error {
			require.NoError(t, s.Set(name, reflect.ValueOf("a")))
			_, err := s.Finalize()
			require.NoError(t, err)
			_, err = s.Finalize()
			return err
		}, ErrFinalized, ""},
		{"set-after-finalize", func(s *Setter[*Field]) error {
			require.NoError(t, s.Set(name, reflect.ValueOf("a")))
			_, err := s.Finalize()
			require.NoError(t, err)
			return s.Set(age, reflect.ValueOf(2))
		}, ErrFinalized, "age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := c.Spawn(reflect.Value{})
			require.NoError(t, err)
			err = tt.run(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrMapping)
			var me *MappingError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, tt.field, me.Field)
		})
	}
}

type gauge struct {
	Value    int
	Computed int            `omm:"computed,readonly"`
	Items    []string       `omm:"items,readonly"`
	Index    map[string]int `omm:"index,readonly"`
}

func TestSetterReadOnlyFields(t *testing.T) {
	c, err := build[gauge](DefaultParams())
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	err = s.Set(mustField(t, c, "computed"), reflect.ValueOf(7))
	assert.ErrorIs(t, err, ErrReadOnlyField)

	require.NoError(t, s.Set(mustField(t, c, "items"), reflect.ValueOf([]string{"a", "b"})))
	require.NoError(t, s.Set(mustField(t, c, "index"), reflect.ValueOf(map[string]int{"a": 1})))
	v, err := s.Finalize()
	require.NoError(t, err)

	g := v.Interface().(gauge)
	assert.Equal(t, 0, g.Computed)
	assert.Equal(t, []string{"a", "b"}, g.Items)
	assert.Equal(t, map[string]int{"a": 1}, g.Index)
}

func TestAssignRefillsInPlace(t *testing.T) {
	c, err := build[gauge](DefaultParams())
	require.NoError(t, err)
	items := mustField(t, c, "items")
	index := mustField(t, c, "index")

	backing := make([]string, 1, 4)
	g := gauge{Items: backing, Index: map[string]int{"stale": 1}}
	held := g.Index
	v := reflect.ValueOf(&g).Elem()

	assign(items.Get(v), items, reflect.ValueOf([]string{"x", "y"}))
	assign(index.Get(v), index, reflect.ValueOf(map[string]int{"fresh": 2}))

	assert.Equal(t, []string{"x", "y"}, g.Items)
	assert.Equal(t, "x", backing[:2][0])
	assert.Equal(t, map[string]int{"fresh": 2}, held)
}

func moneyParams() Params {
	p := DefaultParams()
	p.Overrides = NewOverrides().SetConstructor(typeOf[money](), newMoney,
		Param{Field: "Amount"}, Param{Field: "Currency", Optional: true})
	return p
}

func TestSetterConstructor(t *testing.T) {
	c, err := build[money](moneyParams())
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	assert.False(t, s.Instance().IsValid())
	require.NoError(t, s.Set(mustField(t, c, "Note"), reflect.ValueOf("tip")))
	require.NoError(t, s.Set(mustField(t, c, "Amount"), reflect.ValueOf(int64(5))))

	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, money{Amount: 5, Note: "tip"}, v.Interface())

	s, err = c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "Currency"), reflect.ValueOf("EUR")))
	_, err = s.Finalize()
	assert.ErrorIs(t, err, ErrRequiredField)
}

var errNegative = errors.New("negative amount")

func TestSetterConstructorError(t *testing.T) {
	p := DefaultParams()
	p.Overrides = NewOverrides().SetConstructor(typeOf[money](),
		func(amount int64) (*money, error) {
			if amount < 0 {
				return nil, errNegative
			}
			return &money{Amount: amount}, nil
		},
		Param{Field: "Amount"})
	c, err := build[money](p)
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "Amount"), reflect.ValueOf(int64(-1))))
	_, err = s.Finalize()
	assert.ErrorIs(t, err, ErrConstruction)
	assert.ErrorIs(t, err, errNegative)

	s, err = c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "Amount"), reflect.ValueOf(int64(3))))
	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, money{Amount: 3}, v.Interface())
}

func TestSetterRunsFinalizersInOrder(t *testing.T) {
	p := DefaultParams()
	p.Overrides = NewOverrides().SetClass(typeOf[finalized](), ClassOptions{Finalizers: []string{"Second", "First"}})
	c, err := build[finalized](p)
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "A"), reflect.ValueOf(1)))
	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, v.Interface().(finalized).steps)
}

type failing struct {
	A int
}

func (f *failing) Check() error {
	if f.A == 0 {
		return errors.New("A must be set")
	}
	return nil
}

func TestSetterFinalizerError(t *testing.T) {
	p := DefaultParams()
	p.Overrides = NewOverrides().SetClass(typeOf[failing](), ClassOptions{Finalizers: []string{"Check"}})
	c, err := build[failing](p)
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	_, err = s.Finalize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstruction)
	assert.Contains(t, err.Error(), "A must be set")
}

type wrapper struct {
	Value string `omm:"value,delegate"`
	Other int
}

func TestSetterDelegate(t *testing.T) {
	c, err := build[wrapper](DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	d, ok := c.Delegate()
	require.True(t, ok)
	assert.Equal(t, "value", d.Name)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(d, reflect.ValueOf("a")))
	require.NoError(t, s.Set(d, reflect.ValueOf("b")))
	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, wrapper{Value: "b"}, v.Interface())
}

func TestSetterInnerType(t *testing.T) {
	p := DefaultParams()
	p.Overrides = NewOverrides().SetFactory(typeOf[line](),
		func(doc *document) *line { return &line{doc: doc} }, Param{Outer: true})
	c, err := build[line](p)
	require.NoError(t, err)

	_, err = c.Spawn(reflect.Value{})
	assert.ErrorIs(t, err, ErrConstruction)

	_, err = c.Spawn(reflect.ValueOf("not a document"))
	assert.ErrorIs(t, err, ErrConstruction)

	doc := &document{}
	s, err := c.Spawn(reflect.ValueOf(doc))
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "Text"), reflect.ValueOf("hello")))
	v, err := s.Finalize()
	require.NoError(t, err)
	l := v.Interface().(line)
	assert.Equal(t, "hello", l.Text)
	assert.Same(t, doc, l.doc)
}

func TestSetterHiddenField(t *testing.T) {
	p := DefaultParams()
	p.Visibility = All
	c, err := build[withHidden](p)
	require.NoError(t, err)

	s, err := c.Spawn(reflect.Value{})
	require.NoError(t, err)
	require.NoError(t, s.Set(mustField(t, c, "h"), reflect.ValueOf("secret")))
	v, err := s.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "secret", v.Interface().(withHidden).hidden)
}
