package frame

// GetDummies one-hot encodes every object and categorical column.
//
// Columns that are not encoded keep their position at the front; the indicator
// columns follow, grouped per source column, one uint8 column per category
// named "<column><sep><value>". Object categories are the sorted distinct
// values; categorical columns keep their category order. A missing entry sets
// no indicator.
func GetDummies(t *Table, sep string) (*Table, error) {
	var kept, dummies []*Column
	for _, c := range t.cols {
		dense := c.ToDense()
		switch dense.dtype.Kind {
		case KindObject, KindCategorical:
			dummies = append(dummies, indicatorColumns(dense, sep)...)
		default:
			kept = append(kept, c)
		}
	}
	return NewTable(append(kept, dummies...)...)
}

func indicatorColumns(c *Column, sep string) []*Column {
	cat := c.toCategorical()
	out := make([]*Column, len(cat.categories))
	prefix := c.label.String()
	for k, v := range cat.categories {
		vals := make([]uint8, c.n)
		for i, code := range cat.codes {
			if int(code) == k {
				vals[i] = 1
			}
		}
		out[k] = Uint8s(prefix+sep+FormatScalar(v), vals...)
	}
	return out
}
