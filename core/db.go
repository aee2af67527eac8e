package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// FilterOrderings keeps the orderings whose field is in `allowed` ({api field: db column}),
// translating each field to its column. Unknown fields are silently dropped.
func FilterOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	out := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := allowed[strings.ToLower(ord.Field)]
		if !ok {
			continue
		}
		out = append(out, DBOrdering{Field: col, Ascending: ord.Ascending})
	}
	return out
}
