package libdiff

// Reverse returns the edits turning the result of edits back into its
// source.
func Reverse(edits []Edit) []Edit {
	res := make([]Edit, len(edits))
	for i, e := range edits {
		switch e.Op {
		case Insert:
			e.Op = Delete
		case Delete:
			e.Op = Insert
		}
		res[i] = e
	}
	return res
}
