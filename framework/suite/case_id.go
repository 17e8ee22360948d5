package suite

import "strings"

// CaseID identifies a test case as group/operation/name.
type CaseID struct {
	Group     string
	Operation string
	Name      string
}

func (id CaseID) String() string {
	return strings.Join(id.Parts(), "/")
}

// Parts returns the components of the ID, from the most general to the most specific.
func (id CaseID) Parts() []string {
	return []string{id.Group, id.Operation, id.Name}
}
