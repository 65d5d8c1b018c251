package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetaValue_EqualScalar(t *testing.T) {
	assert.True(t, StringMeta("a").Equal(StringMeta("a")))
	assert.False(t, StringMeta("a").Equal(StringMeta("b")))
	assert.False(t, StringMeta("a").Equal(NumberMeta(1)))
}

func TestMetaValue_EqualArray(t *testing.T) {
	a := StringSetMeta([]string{"x", "y"})
	b := StringSetMeta([]string{"x", "y"})
	c := StringSetMeta([]string{"x", "z"})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(StringMeta("x")))
}

func TestMetaValue_ContainsScalarIsEquality(t *testing.T) {
	assert.True(t, StringMeta("tag").Contains(StringMeta("tag")))
	assert.False(t, StringMeta("tag").Contains(StringMeta("other")))
}

func TestMetaValue_ContainsArrayMembership(t *testing.T) {
	set := StringSetMeta([]string{"alpha", "beta"})
	assert.True(t, set.Contains(StringMeta("alpha")))
	assert.False(t, set.Contains(StringMeta("gamma")))
}

func TestMetadata_CloneIsIndependent(t *testing.T) {
	m := Metadata{"k": StringMeta("v")}
	clone := m.Clone()
	clone["k"] = StringMeta("changed")
	assert.Equal(t, "v", m["k"].Str)
}

func TestMetadata_CloneNilStaysNil(t *testing.T) {
	var m Metadata
	assert.Nil(t, m.Clone())
}
