package parquet

import "strings"

// columnPath is the dotted path of a column relative to the schema root,
// one element per field traversed, including list and map container groups.
type columnPath []string

func (path columnPath) append(name string) columnPath {
	return append(path[:len(path):len(path)], name)
}

func (path columnPath) equal(other columnPath) bool {
	return stringsAreEqual(path, other)
}

func (path columnPath) String() string {
	return strings.Join(path, ".")
}

func stringsAreEqual(strings1, strings2 []string) bool {
	if len(strings1) != len(strings2) {
		return false
	}
	for i := range strings1 {
		if strings1[i] != strings2[i] {
			return false
		}
	}
	return true
}
