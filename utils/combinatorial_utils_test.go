package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCartesianProduct checks ordering, limits and the degenerate cases of CartesianProduct.
func TestCartesianProduct(t *testing.T) {
	product := CartesianProduct([][]int{{1, 2}, {3, 4, 5}}, 0)
	assert.Equal(t, [][]int{{1, 3}, {1, 4}, {1, 5}, {2, 3}, {2, 4}, {2, 5}}, product)

	limited := CartesianProduct([][]int{{1, 2}, {3, 4, 5}}, 4)
	assert.Equal(t, product[:4], limited)

	assert.Empty(t, CartesianProduct([][]int{{1, 2}, {}}, 0))
	assert.Equal(t, [][]int{{}}, CartesianProduct([][]int{}, 0))
}

// TestCartesianProductSize checks the product size computation saturates at the ceiling.
func TestCartesianProductSize(t *testing.T) {
	assert.Equal(t, 6, CartesianProductSize([]int{2, 3}, 100))
	assert.Equal(t, 0, CartesianProductSize([]int{2, 0}, 100))
	assert.Equal(t, 100, CartesianProductSize([]int{1 << 30, 1 << 30, 1 << 30}, 100))
	assert.Equal(t, 1, CartesianProductSize(nil, 100))
}
