//go:build !race

package studygroups

func passwordHashCost() int {
	return 14
}
