package utils

// CartesianProduct enumerates the cartesian product of the provided choice lists in lexicographic order, with the
// last list varying fastest. At most limit tuples are returned; a non-positive limit means no limit.
// If any list is empty the product is empty. If no lists are provided, the product contains one empty tuple.
func CartesianProduct[T any](choices [][]T, limit int) [][]T {
	for _, c := range choices {
		if len(c) == 0 {
			return nil
		}
	}

	counter := make([]int, len(choices))
	product := make([][]T, 0)
	for {
		tuple := make([]T, len(choices))
		for i, x := range counter {
			tuple[i] = choices[i][x]
		}
		product = append(product, tuple)
		if limit > 0 && len(product) >= limit {
			return product
		}

		// Advance the counter like an odometer, starting at the rightmost position.
		i := len(counter) - 1
		for ; i >= 0; i-- {
			counter[i]++
			if counter[i] < len(choices[i]) {
				break
			}
			counter[i] = 0
		}
		if i < 0 {
			return product
		}
	}
}

// CartesianProductSize returns the number of tuples CartesianProduct would produce without a limit, saturating at
// the provided ceiling so large products cannot overflow.
func CartesianProductSize(lengths []int, ceiling int) int {
	size := 1
	for _, l := range lengths {
		if l == 0 {
			return 0
		}
		if size > ceiling/l {
			return ceiling
		}
		size *= l
	}
	return min(size, ceiling)
}
