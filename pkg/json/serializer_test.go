package json

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializer(t *testing.T) {
	s, err := NewSerializer[point](New())
	require.NoError(t, err)

	got, err := s.ToJSON(point{3, 4})
	require.NoError(t, err)
	assert.Equal(t, `{"x":3,"y":4}`, got)

	p, err := s.FromJSON(got)
	require.NoError(t, err)
	assert.Equal(t, point{3, 4}, p)

	p, err = s.Decode(strings.NewReader(` {"y":1} `))
	require.NoError(t, err)
	assert.Equal(t, point{Y: 1}, p)

	p, err = s.FromJSON(`{"x":1} {}`)
	assert.ErrorIs(t, err, ErrSyntax)
	assert.Equal(t, point{}, p)

	r := NewStringReader(`[{"x":1}]`)
	require.NoError(t, r.BeginArray())
	_, err = s.decode(r)
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestSerializerStream(t *testing.T) {
	s, err := NewSerializer[*point](New())
	require.NoError(t, err)

	r := NewStringReader(`[{"x":1}, null, {"x":2}]`)
	require.NoError(t, r.BeginArray())
	var got []*point
	for {
		more, err := r.HasNext()
		require.NoError(t, err)
		if !more {
			break
		}
		p, err := s.Read(r)
		require.NoError(t, err)
		got = append(got, p)
	}
	require.NoError(t, r.EndArray())
	assert.Equal(t, []*point{{X: 1}, nil, {X: 2}}, got)

	w := NewWriter(nil)
	require.NoError(t, w.BeginArray())
	for _, p := range got {
		require.NoError(t, s.Write(w, p))
	}
	require.NoError(t, w.EndArray())
	require.NoError(t, w.Finish())
	assert.Equal(t, `[{"x":1,"y":0},null,{"x":2,"y":0}]`, w.String())
}

func TestSerializerUnsupportedType(t *testing.T) {
	_, err := NewSerializer[map[point]int](New())
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
