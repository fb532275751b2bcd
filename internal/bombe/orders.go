package bombe

import "fmt"

// RotorOrders lists the left-to-right rotor orders to search. Without
// exhaustive search the pool itself is the only order and must hold exactly
// three types. With it, a pool of more than three yields every ordered
// choice of three distinct entries, and a pool of three every permutation.
// A type may appear in the pool only once.
func RotorOrders(pool []string, exhaustive bool) ([][3]string, error) {
	seen := make(map[string]bool, len(pool))
	for _, name := range pool {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrRotorReused, name)
		}
		seen[name] = true
	}

	if !exhaustive {
		if len(pool) != 3 {
			return nil, fmt.Errorf("%w: a fixed order needs 3, got %d", ErrRotorCount, len(pool))
		}
		return [][3]string{{pool[0], pool[1], pool[2]}}, nil
	}
	if len(pool) < 3 {
		return nil, fmt.Errorf("%w: exhaustive search needs at least 3, got %d", ErrRotorCount, len(pool))
	}

	if len(pool) > 3 {
		n := len(pool)
		orders := make([][3]string, 0, n*(n-1)*(n-2))
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				for k := 0; k < n; k++ {
					if k == i || k == j {
						continue
					}
					orders = append(orders, [3]string{pool[i], pool[j], pool[k]})
				}
			}
		}
		return orders, nil
	}

	perms := permutations(pool)
	orders := make([][3]string, len(perms))
	for i, p := range perms {
		orders[i] = [3]string{p[0], p[1], p[2]}
	}
	return orders, nil
}

// permutations returns every ordering of items, first element varying
// slowest.
func permutations(items []string) [][]string {
	if len(items) <= 1 {
		return [][]string{append([]string(nil), items...)}
	}
	var out [][]string
	for i, head := range items {
		rest := make([]string, 0, len(items)-1)
		rest = append(rest, items[:i]...)
		rest = append(rest, items[i+1:]...)
		for _, tail := range permutations(rest) {
			out = append(out, append([]string{head}, tail...))
		}
	}
	return out
}
