package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)

	a := HashWithDomain(DomainCatalog, data)
	b := HashWithDomain(DomainConstraintSet, data)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b, "different domains must not collide")
	assert.Equal(t, a, HashWithDomain(DomainCatalog, data), "hash must be stable")
}

func TestHashCanonicalKeyOrderIndependent(t *testing.T) {
	a, err := HashCanonical(DomainConstraintSet, IRObject{"x": IRInt(1), "y": IRInt(2)})
	require.NoError(t, err)
	b, err := HashCanonical(DomainConstraintSet, IRObject{"y": IRInt(2), "x": IRInt(1)})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashCanonicalError(t *testing.T) {
	_, err := HashCanonical(DomainConstraintSet, IRObject{"x": IRNull{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), DomainConstraintSet)
}

func TestCatalogHash(t *testing.T) {
	descriptors := []FilterDescriptor{
		{Key: "dateFrom", Kind: KindComparison, Field: "date_from", Operator: OpGreaterThan},
		{Key: "vvip", Kind: KindComparison, Field: "vvip", Operator: OpEquals},
	}
	models := []ModelSpec{{ID: "Model1", Fields: []string{"dateFrom", "vvip"}}}

	h1, err := CatalogHash(descriptors, models)
	require.NoError(t, err)
	h2, err := CatalogHash(descriptors, models)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	reordered := []ModelSpec{{ID: "Model1", Fields: []string{"vvip", "dateFrom"}}}
	h3, err := CatalogHash(descriptors, reordered)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "field order is part of the catalog identity")
}
