package utils

// FilterNonNil is an lo.Filter predicate that drops nil errors from a slice.
func FilterNonNil(err error, _ int) bool {
	return err != nil
}
