package json

import (
	"errors"
	"strings"
	"testing"
)

func readTokens(t *testing.T, input string, opts ...ReaderOption) []Token {
	t.Helper()
	r := NewStringReader(input, opts...)
	var out []Token
	for {
		tok, err := r.Read()
		if err != nil {
			t.Fatalf("Read(%q) failed: %v", input, err)
		}
		out = append(out, tok)
		if tok.Kind() == KindEOF {
			return out
		}
		if len(out) > 1000 {
			t.Fatalf("Read(%q) does not terminate", input)
		}
	}
}

func TestTextReaderTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		comments bool
		want     []Token
	}{
		{
			name:  "object",
			input: `{"a":1,"b":[true,false,null],"c":"x"}`,
			want: []Token{
				TokenBeginObject, NameToken("a"), NumberToken("1"),
				NameToken("b"), TokenBeginArray, TokenTrue, TokenFalse, TokenNull, TokenEndArray,
				NameToken("c"), StringToken("x"), TokenEndObject, TokenEOF,
			},
		},
		{
			name:  "whitespace",
			input: " {\r\n\t\"a\" :\n 1 \r}\n",
			want:  []Token{TokenBeginObject, NameToken("a"), NumberToken("1"), TokenEndObject, TokenEOF},
		},
		{
			name:  "empty-containers",
			input: `[[],{},[{}]]`,
			want: []Token{
				TokenBeginArray, TokenBeginArray, TokenEndArray, TokenBeginObject, TokenEndObject,
				TokenBeginArray, TokenBeginObject, TokenEndObject, TokenEndArray, TokenEndArray, TokenEOF,
			},
		},
		{
			name:  "root-number",
			input: `-1.5e+3`,
			want:  []Token{NumberToken("-1.5e+3"), TokenEOF},
		},
		{
			name:  "root-symbol",
			input: `true `,
			want:  []Token{TokenTrue, TokenEOF},
		},
		{
			name:  "escapes",
			input: `"a\"b\\c\/d\b\f\n\r\t"`,
			want:  []Token{StringToken("a\"b\\c/d\b\f\n\r\t"), TokenEOF},
		},
		{
			name:  "unicode-escape",
			input: `"caf\u00e9"`,
			want:  []Token{StringToken("café"), TokenEOF},
		},
		{
			name:  "surrogate-pair",
			input: `"\uD83D\uDE00"`,
			want:  []Token{StringToken("\U0001F600"), TokenEOF},
		},
		{
			name:  "raw-unicode",
			input: `{"日本":"語😀"}`,
			want:  []Token{TokenBeginObject, NameToken("日本"), StringToken("語😀"), TokenEndObject, TokenEOF},
		},
		{
			name:     "comments",
			input:    "/* head */ [1 /* one */, 2/**/] /* tail ** */",
			comments: true,
			want:     []Token{TokenBeginArray, NumberToken("1"), NumberToken("2"), TokenEndArray, TokenEOF},
		},
		{
			name:     "comment-between-name-and-colon",
			input:    `{"a"/*x*/:/*y*/1}`,
			comments: true,
			want:     []Token{TokenBeginObject, NameToken("a"), NumberToken("1"), TokenEndObject, TokenEOF},
		},
		{
			name:     "slash-in-string",
			input:    `"/* not a comment */"`,
			comments: true,
			want:     []Token{StringToken("/* not a comment */"), TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readTokens(t, tt.input, ReaderComments(tt.comments))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("token %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func readUntilError(input string, opts ...ReaderOption) error {
	r := NewStringReader(input, opts...)
	for i := 0; i < 10000; i++ {
		tok, err := r.Read()
		if err != nil {
			return err
		}
		if tok.Kind() == KindEOF {
			return nil
		}
	}
	return nil
}

func TestTextReaderErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		comments bool
		wantErr  string
	}{
		{"missing-colon", `{"a" 1}`, false, `[1:6] expected ':', got '1'`},
		{"trailing-comma-array", `[1,]`, false, `[1:4] unexpected character ']'`},
		{"trailing-comma-object", `{"a":1,}`, false, `[1:8] expected a member name, got '}'`},
		{"missing-comma", `[1 2]`, false, `[1:4] expected ',' or a closing bracket, got '2'`},
		{"illegal-symbol", `[tru]`, false, `[1:5] illegal symbol "tru"`},
		{"unterminated-string", `"abc`, false, `[1:4] unterminated string`},
		{"bracket-mismatch", `[1}`, false, `[1:3] unexpected "}"`},
		{"object-closed-by-bracket", `{"a":1]`, false, `[1:7] unexpected "]"`},
		{"bad-escape", `"\x"`, false, `[1:3] invalid escape sequence '\x'`},
		{"bad-hex", `"\u12G4"`, false, `[1:6] invalid hex digit 'G' in \u escape`},
		{"lone-high-surrogate", `"\uD83D"`, false, `[1:8] high surrogate \uD83D not followed by a low surrogate`},
		{"high-surrogate-then-char", `"\uD83Dx"`, false, `[1:8] high surrogate \uD83D not followed by a low surrogate`},
		{"high-surrogate-then-escape", `"\uD83D\u0041"`, false, `[1:13] high surrogate \uD83D not followed by a low surrogate`},
		{"lone-low-surrogate", `"\uDE00"`, false, `[1:7] unexpected low surrogate \uDE00`},
		{"two-roots", `1 2`, false, `[1:3] unexpected character '2' after the root value`},
		{"empty", ``, false, `[1:0] unexpected end of input`},
		{"unclosed-array", `[1`, false, `[1:2] unexpected end of input`},
		{"comment-disabled", `/* x */ 1`, false, `[1:1] unexpected character '/'`},
		{"unterminated-comment", `[1 /* open`, true, `[1:10] unterminated comment`},
		{"single-slash", `/x`, true, `[1:2] expected '*' after '/'`},
		{"leading-plus", `+1`, false, `[1:1] unexpected character '+'`},
		{"third-line", "[\n  1,\n  ?]", false, `[3:3] unexpected character '?'`},
		{"illegal-character", "[\x01]", false, `[1:2] illegal character U+0001`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := readUntilError(tt.input, ReaderComments(tt.comments))
			if err == nil {
				t.Fatalf("reading %q succeeded, want error %q", tt.input, tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantErr)
			}
			if !errors.Is(err, ErrRead) {
				t.Errorf("errors.Is(%v, ErrRead) = false", err)
			}
			var re *ReadError
			if !errors.As(err, &re) || re.Line == 0 {
				t.Errorf("error %v carries no position", err)
			}
		})
	}
}

func TestTextReaderStickyError(t *testing.T) {
	r := NewStringReader(`[1 2]`)
	var first error
	for first == nil {
		_, first = r.Read()
	}
	_, err := r.Peek()
	if err != first {
		t.Errorf("Peek after error = %v, want %v", err, first)
	}
	_, err = r.Read()
	if err != first {
		t.Errorf("Read after error = %v, want %v", err, first)
	}
}

func TestTextReaderMaxDepth(t *testing.T) {
	err := readUntilError(`[[[1]]]`, ReaderMaxDepth(2))
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("error = %v, want ErrMaxDepthExceeded", err)
	}
	if !errors.Is(err, ErrRead) {
		t.Errorf("errors.Is(%v, ErrRead) = false", err)
	}
	if !strings.HasPrefix(err.Error(), "[1:3]") {
		t.Errorf("error = %q, want position [1:3]", err.Error())
	}

	if err := readUntilError(`[[[1]]]`, ReaderMaxDepth(3)); err != nil {
		t.Errorf("depth 3 with limit 3: %v", err)
	}
	deep := strings.Repeat("[", 2000) + strings.Repeat("]", 2000)
	if err := readUntilError(deep); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("default limit: error = %v, want ErrMaxDepthExceeded", err)
	}
	if err := readUntilError(deep, ReaderMaxDepth(0)); err != nil {
		t.Errorf("unlimited depth: %v", err)
	}
}

func TestTextReaderEOFStaysPeeked(t *testing.T) {
	r := NewStringReader(`null`)
	if err := r.ReadNull(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		tok, err := r.Read()
		if err != nil || tok.Kind() != KindEOF {
			t.Fatalf("Read #%d = %v, %v; want EOF", i, tok, err)
		}
	}
}

func TestReaderHelpers(t *testing.T) {
	r := NewStringReader(`{"skip":[1,{"b":null},"x"],"n":-7,"u":18446744073709551615,"f":2.5,"s":"v","t":true}`)

	if err := r.BeginObject(); err != nil {
		t.Fatal(err)
	}
	name, err := r.ReadName()
	if err != nil || name != "skip" {
		t.Fatalf("ReadName() = %q, %v", name, err)
	}
	if err := r.SkipValue(); err != nil {
		t.Fatalf("SkipValue() = %v", err)
	}
	if name, _ := r.ReadName(); name != "n" {
		t.Fatalf("ReadName() = %q, want n", name)
	}
	if n, err := r.ReadInt(); err != nil || n != -7 {
		t.Errorf("ReadInt() = %d, %v", n, err)
	}
	r.ReadName()
	if u, err := r.ReadUint64(); err != nil || u != 1<<64-1 {
		t.Errorf("ReadUint64() = %d, %v", u, err)
	}
	r.ReadName()
	if f, err := r.ReadFloat64(); err != nil || f != 2.5 {
		t.Errorf("ReadFloat64() = %v, %v", f, err)
	}
	r.ReadName()
	if s, err := r.ReadString(); err != nil || s != "v" {
		t.Errorf("ReadString() = %q, %v", s, err)
	}
	r.ReadName()
	if b, err := r.ReadBool(); err != nil || !b {
		t.Errorf("ReadBool() = %v, %v", b, err)
	}
	more, err := r.HasNext()
	if err != nil || more {
		t.Errorf("HasNext() = %v, %v; want false", more, err)
	}
	if err := r.EndObject(); err != nil {
		t.Fatal(err)
	}
	if err := r.AssertFullConsumption(); err != nil {
		t.Errorf("AssertFullConsumption() = %v", err)
	}
}

func TestReaderNumberWidth(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		read    func(r *Reader) error
		wantErr error
	}{
		{"int32-overflow", `2147483648`, func(r *Reader) error { _, err := r.ReadInt32(); return err }, ErrNumber},
		{"int64-fits", `2147483648`, func(r *Reader) error { _, err := r.ReadInt64(); return err }, nil},
		{"fraction-as-int", `1.5`, func(r *Reader) error { _, err := r.ReadInt64(); return err }, ErrNumber},
		{"negative-uint", `-1`, func(r *Reader) error { _, err := r.ReadUint64(); return err }, ErrNumber},
		{"malformed", `1.2.3`, func(r *Reader) error { _, err := r.ReadFloat64(); return err }, ErrNumber},
		{"wrong-kind", `"1"`, func(r *Reader) error { _, err := r.ReadInt(); return err }, ErrUnexpectedToken},
		{"name-expected", `[1]`, func(r *Reader) error { _, err := r.ReadName(); return err }, ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewStringReader(tt.input))
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrRead) {
				t.Errorf("error %v is not a read error", err)
			}
		})
	}
}

func TestAssertFullConsumption(t *testing.T) {
	r := NewStringReader(`[1,2]`)
	if err := r.BeginArray(); err != nil {
		t.Fatal(err)
	}
	err := r.AssertFullConsumption()
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("AssertFullConsumption() = %v, want ErrTrailingData", err)
	}
	if !strings.Contains(err.Error(), "next token is NUMBER[1]") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestCopyPreservesOrderAndNumbers(t *testing.T) {
	in := `{"z":1.50,"a":[1e+21,null,"s"],"m":{}}`
	w := NewWriter(nil)
	if err := Copy(w, NewStringReader(in)); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}
	if got := w.String(); got != in {
		t.Errorf("Copy() = %s, want %s", got, in)
	}
}

func TestCopyRejectsMalformedNumbers(t *testing.T) {
	for _, in := range []string{`[1.2.3]`, `[-]`, `[1e]`, `[--5]`, `[01]`, `[1.]`} {
		w := NewWriter(nil)
		err := Copy(w, NewStringReader(in))
		if !errors.Is(err, ErrInvalidValue) || !errors.Is(err, ErrRead) {
			t.Errorf("Copy(%s) error = %v, want positioned ErrInvalidValue", in, err)
			continue
		}
		if !strings.HasPrefix(err.Error(), "[1:") {
			t.Errorf("Copy(%s) error %q has no position", in, err.Error())
		}
		if got := w.String(); got != "[" {
			t.Errorf("Copy(%s) wrote %q", in, got)
		}
	}
}

func TestUnicodeWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"form-feed", "[1,\f2]", true},
		{"line-separator", "[1,\u20282]", true},
		{"paragraph-separator", "\u2029[1,2]", true},
		{"ideographic-space", "[1,\u30002]", true},
		{"no-break-space", "[1,\u00a02]", false},
		{"figure-space", "[1,\u20072]", false},
		{"narrow-no-break-space", "[1,\u202f2]", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int
			err := New().FromJSON(tt.input, &got)
			if !tt.ok {
				if !errors.Is(err, ErrSyntax) {
					t.Errorf("error = %v, want ErrSyntax", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 || got[0] != 1 || got[1] != 2 {
				t.Errorf("got %v, want [1 2]", got)
			}
		})
	}
}
