package json

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/acolita/ommjson/pkg/omm"
)

var codecProviderType = reflect.TypeOf((*CodecProvider)(nil)).Elem()

type subclassEntry struct {
	base    reflect.Type
	factory CodecFactory
}

// matches reports whether t is a concrete type implementing an interface
// base, or a struct embedding base.
func (e subclassEntry) matches(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.Interface:
		return false
	}
	if t == e.base {
		return true
	}
	if e.base.Kind() == reflect.Interface {
		return t.Implements(e.base)
	}
	return embeds(t, e.base, 0)
}

func embeds(t, base reflect.Type, depth int) bool {
	if t.Kind() != reflect.Struct || depth > 16 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft == base || embeds(ft, base, depth+1) {
			return true
		}
	}
	return false
}

// Registry resolves Go types to codecs and caches them. Lookups of cached
// codecs never block. Registration clears the cache and should happen
// before the registry is used.
type Registry struct {
	cfg       Config
	params    omm.Params
	overrides *omm.Overrides
	logger    *slog.Logger

	codecs     *xsync.MapOf[reflect.Type, Codec]
	classes    *xsync.MapOf[reflect.Type, CodecFactory]
	mu         sync.Mutex
	subclasses atomic.Pointer[[]subclassEntry]

	cache *xsync.MapOf[reflect.Type, Codec]
	err   error
}

// New creates a registry. Without options it reads and writes compact JSON
// with comments enabled and nulls serialized. An invalid configuration is
// reported by every codec lookup.
func New(opts ...Option) *Registry {
	r := &Registry{
		cfg:     DefaultConfig(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		codecs:  xsync.NewMapOf[reflect.Type, Codec](),
		classes: xsync.NewMapOf[reflect.Type, CodecFactory](),
		cache:   xsync.NewMapOf[reflect.Type, Codec](),
	}
	r.subclasses.Store(&[]subclassEntry{})
	for t, f := range defaultClassCodecs() {
		r.classes.Store(t, f)
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.cfg.Validate(); err != nil {
		r.err = err
		r.logger.Warn("invalid configuration", "error", err)
	}
	p := omm.DefaultParams()
	if vis, err := omm.ParseVisibility(r.cfg.Visibility); err == nil {
		p.Visibility = vis
	}
	p.RequireAllFields = r.cfg.RequireAllFields
	p.AnnotatedOnlyFields = r.cfg.AnnotatedOnlyFields
	p.WalkEmbedded = r.cfg.WalkEmbedded
	p.AllowInnerClasses = r.cfg.InnerClasses
	p.RequireDeferredFields = r.cfg.RequireDeferredFields
	p.EnumByName = r.cfg.EnumByName
	p.SerializeNulls = r.cfg.SerializeNulls
	p.AllowUnmatchedFields = r.cfg.AllowUnmatchedFields
	p.Qualifier = r.cfg.Qualifier
	p.QualifiedOnly = r.cfg.QualifiedOnly
	p.Overrides = r.overrides
	p.Logger = r.logger
	r.params = p
	return r
}

// Config returns the configuration the registry was built with.
func (r *Registry) Config() Config {
	return r.cfg
}

// RegisterCodec makes c the codec of exactly t. The codec is used as is:
// Initialize is not called on it.
func (r *Registry) RegisterCodec(t reflect.Type, c Codec) {
	r.codecs.Store(t, c)
	r.cache.Clear()
}

// RegisterClassCodec registers a factory for exactly t.
func (r *Registry) RegisterClassCodec(t reflect.Type, f CodecFactory) {
	r.classes.Store(t, f)
	r.cache.Clear()
}

// RegisterSubclassCodec registers a factory for base and every type
// derived from it: the implementations of an interface, or the structs
// embedding a struct. The first matching registration wins.
func (r *Registry) RegisterSubclassCodec(base reflect.Type, f CodecFactory) {
	r.mu.Lock()
	old := *r.subclasses.Load()
	entries := make([]subclassEntry, len(old), len(old)+1)
	copy(entries, old)
	entries = append(entries, subclassEntry{base: base, factory: f})
	r.subclasses.Store(&entries)
	r.mu.Unlock()
	r.cache.Clear()
}

// Merge copies the registrations of other into r. Exact and class codecs of
// other replace those of r for the same type; its subclass registrations
// are appended after the ones of r.
func (r *Registry) Merge(other *Registry) {
	if other == nil || other == r {
		return
	}
	other.codecs.Range(func(t reflect.Type, c Codec) bool {
		r.codecs.Store(t, c)
		return true
	})
	other.classes.Range(func(t reflect.Type, f CodecFactory) bool {
		r.classes.Store(t, f)
		return true
	})
	r.mu.Lock()
	old, add := *r.subclasses.Load(), *other.subclasses.Load()
	entries := make([]subclassEntry, 0, len(old)+len(add))
	entries = append(append(entries, old...), add...)
	r.subclasses.Store(&entries)
	r.mu.Unlock()
	r.cache.Clear()
}

func (r *Registry) registered(t reflect.Type) bool {
	if _, ok := r.codecs.Load(t); ok {
		return true
	}
	_, ok := r.classes.Load(t)
	return ok
}

// Codec returns the codec of t, building and caching it on first use. A
// type that failed to build keeps failing with the same error until the
// registrations change.
func (r *Registry) Codec(t reflect.Type) (Codec, error) {
	if r.err != nil {
		return nil, r.err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}
	if c, ok := r.cache.Load(t); ok {
		return unpack(c)
	}

	b := &build{reg: r, pending: make(map[reflect.Type]Codec)}
	c, err := b.Codec(t)
	if err != nil {
		failed := &failedCodec{err: err}
		r.cache.LoadOrStore(t, failed)
		if b.origin != nil && b.origin != t {
			r.cache.LoadOrStore(b.origin, failed)
		}
		r.logger.Warn("codec build failed", "type", t.String(), "origin", typeName(b.origin), "error", err)
		return nil, err
	}

	// Losing a race discards our copy; the published codec is returned.
	for pt, pc := range b.pending {
		actual, _ := r.cache.LoadOrStore(pt, pc)
		if pt == t {
			c = actual
		}
	}
	r.logger.Debug("codec built", "type", t.String(), "codecs", len(b.pending))
	return unpack(c)
}

// CodecFor returns the codec of T.
func CodecFor[T any](r *Registry) (Codec, error) {
	return r.Codec(reflect.TypeOf((*T)(nil)).Elem())
}

// failedCodec is cached for types whose build failed.
type failedCodec struct {
	err error
}

func (c *failedCodec) WriteNonNull(*Writer, reflect.Value) error { return c.err }

func (c *failedCodec) ReadNonNull(*Reader) (reflect.Value, error) { return reflect.Value{}, c.err }

func unpack(c Codec) (Codec, error) {
	if f, ok := c.(*failedCodec); ok {
		return nil, f.err
	}
	return c, nil
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// build is one resolution of a codec graph. Codecs created during the
// build stay private until every one of them has been initialized, so a
// type referring to itself sees the codec under construction.
type build struct {
	reg     *Registry
	pending map[reflect.Type]Codec
	// origin is the type whose creation or initialization failed first.
	origin reflect.Type
}

func (b *build) Registry() *Registry { return b.reg }

func (b *build) Codec(t reflect.Type) (Codec, error) {
	if c, ok := b.reg.cache.Load(t); ok {
		return unpack(c)
	}
	if c, ok := b.pending[t]; ok {
		return c, nil
	}
	c, initialize, err := b.reg.create(t, b)
	if err != nil {
		b.fail(t)
		return nil, err
	}
	b.pending[t] = c
	if in, ok := c.(Initializer); ok && initialize {
		if err := in.Initialize(b); err != nil {
			b.fail(t)
			return nil, err
		}
	}
	return c, nil
}

func (b *build) fail(t reflect.Type) {
	if b.origin == nil {
		b.origin = t
	}
}

// create makes the codec of t without initializing it. It reports whether
// the codec still needs Initialize.
func (r *Registry) create(t reflect.Type, res Resolver) (Codec, bool, error) {
	if c, ok := r.codecs.Load(t); ok {
		return c, false, nil
	}
	if f, ok := r.classes.Load(t); ok {
		c, err := f(t, res)
		return c, true, err
	}
	for _, e := range *r.subclasses.Load() {
		if e.matches(t) {
			c, err := e.factory(t, res)
			return c, true, err
		}
	}
	if t.Kind() != reflect.Ptr && t.Kind() != reflect.Interface && t.Implements(codecProviderType) {
		if c := reflect.Zero(t).Interface().(CodecProvider).JSONCodec(); c != nil {
			return c, true, nil
		}
	}

	switch t.Kind() {
	case reflect.Ptr:
		return &ptrCodec{t: t}, true, nil
	case reflect.Slice:
		return &listCodec{t: t}, true, nil
	case reflect.Map:
		c, err := newMapCodec(t)
		if err != nil {
			return nil, false, err
		}
		return c, true, nil
	case reflect.Array:
		if c := newNumArrayCodec(t); c != nil {
			return c, false, nil
		}
		return &arrayCodec{t: t}, true, nil
	case reflect.String:
		return stringCodec{t}, false, nil
	}
	if _, ok := enumNames(t); ok {
		byName, err := r.params.EnumByNameFor(t)
		if err != nil {
			return nil, false, err
		}
		c, _ := newEnumCodec(t, byName)
		return c, false, nil
	}
	if c := primitiveCodec(t); c != nil {
		return c, false, nil
	}
	switch t.Kind() {
	case reflect.Interface:
		return &anyCodec{t: t, reg: r}, false, nil
	case reflect.Struct:
		return &classCodec{t: t}, true, nil
	}
	return nil, false, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
}

// NewReader creates a Reader over in using the registry's comment and depth
// settings.
func (r *Registry) NewReader(in io.RuneReader) *Reader {
	return NewTextReader(in, ReaderComments(r.cfg.Comments), ReaderMaxDepth(r.cfg.MaxDepth))
}

// NewWriter creates a Writer honoring the registry's pretty-print settings.
func (r *Registry) NewWriter(out io.Writer) *Writer {
	if r.cfg.PrettyPrint {
		return NewWriter(out, WriterIndent(r.cfg.Indent))
	}
	return NewWriter(out)
}

// Encode writes v to w. A nil v is written as null.
func (r *Registry) Encode(w *Writer, v interface{}) error {
	if v == nil {
		return w.WriteNull()
	}
	rv := reflect.ValueOf(v)
	c, err := r.Codec(rv.Type())
	if err != nil {
		return err
	}
	return WriteValue(w, c, rv)
}

// ToJSON returns the JSON text of v.
func (r *Registry) ToJSON(v interface{}) (string, error) {
	w := r.NewWriter(nil)
	if err := r.Encode(w, v); err != nil {
		return "", err
	}
	if err := w.Finish(); err != nil {
		return "", err
	}
	return w.String(), nil
}

// WriteJSON writes the JSON text of v to out.
func (r *Registry) WriteJSON(out io.Writer, v interface{}) error {
	w := r.NewWriter(out)
	if err := r.Encode(w, v); err != nil {
		return err
	}
	return w.Finish()
}

// Decode reads one value from rd into the value target points to. Input
// after the value is left unread.
func (r *Registry) Decode(rd *Reader, target interface{}) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("%w, have %T", ErrInvalidTarget, target)
	}
	et := rv.Type().Elem()
	c, err := r.Codec(et)
	if err != nil {
		return err
	}
	v, err := ReadValue(rd, c, et)
	if err != nil {
		return err
	}
	rv.Elem().Set(v)
	return nil
}

func (r *Registry) decodeAll(rd *Reader, target interface{}) error {
	if err := r.Decode(rd, target); err != nil {
		return err
	}
	return rd.AssertFullConsumption()
}

// FromJSON decodes the JSON text s into target, which must be a non-nil
// pointer. s must hold exactly one value.
func (r *Registry) FromJSON(s string, target interface{}) error {
	return r.decodeAll(r.NewReader(strings.NewReader(s)), target)
}

// FromJSONReader decodes UTF-8 JSON text from in.
func (r *Registry) FromJSONReader(in io.Reader, target interface{}) error {
	return r.decodeAll(r.NewReader(bufio.NewReader(in)), target)
}

// FromJSONRunes decodes JSON text from a character stream, such as a
// textio.UTF16Reader.
func (r *Registry) FromJSONRunes(in io.RuneReader, target interface{}) error {
	return r.decodeAll(r.NewReader(in), target)
}

// FromValue decodes an in-memory tree of maps, slices and scalars, as
// produced by decoding into an interface{}.
func (r *Registry) FromValue(tree interface{}, target interface{}) error {
	return r.decodeAll(NewObjectReader(tree), target)
}

// Unmarshal decodes the JSON text s as a T.
func Unmarshal[T any](r *Registry, s string) (T, error) {
	var v T
	err := r.FromJSON(s, &v)
	return v, err
}
