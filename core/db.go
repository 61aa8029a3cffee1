package core

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

// FilterOrderings drops the orderings on fields not in allowed, since Field ends up in queries.
func FilterOrderings(orderings []DBOrdering, allowed ...string) []DBOrdering {
	var kept []DBOrdering
	for _, ord := range orderings {
		for _, field := range allowed {
			if ord.Field == field {
				kept = append(kept, ord)
				break
			}
		}
	}
	return kept
}
