package util

// Contain report whether t present in vs
func Contain[T comparable](vs []T, t T) bool {
	for _, v := range vs {
		if v == t {
			return true
		}
	}
	return false
}

// Distinct remove duplicated values, keep the first occurrence order
func Distinct[T comparable](vs []T) []T {
	if len(vs) <= 1 {
		return vs
	}
	seen := make(map[T]struct{}, len(vs))
	res := make([]T, 0, len(vs))
	for _, v := range vs {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		res = append(res, v)
	}
	return res
}

// Chunk split [0, n) into at most parts continuous ranges with nearly equal size
func Chunk(n, parts int) [][2]int {
	if n <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	res := make([][2]int, 0, parts)
	size, rest := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rest {
			end++
		}
		res = append(res, [2]int{start, end})
		start = end
	}
	return res
}
