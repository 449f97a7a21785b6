package planning

// Collection names a child collection navigable from an owner type of the
// planning data model.
type Collection struct {
	Owner string
	Child string
}

// Collections is the closed set of navigable child collections. It replaces
// discovering enumerable properties at runtime.
var Collections = []Collection{
	{Owner: "Patient", Child: "Courses"},
	{Owner: "Patient", Child: "StructureSets"},
	{Owner: "Patient", Child: "Studies"},
	{Owner: "Course", Child: "PlanSetups"},
	{Owner: "Course", Child: "PlanSums"},
	{Owner: "PlanSetup", Child: "Beams"},
	{Owner: "Beam", Child: "ControlPoints"},
	{Owner: "StructureSet", Child: "Structures"},
}

// ChildCollections returns the child collection names declared for owner, in
// declaration order.
func ChildCollections(owner string) []string {
	var out []string
	for _, c := range Collections {
		if c.Owner == owner {
			out = append(out, c.Child)
		}
	}
	return out
}

// HasCollection reports whether owner declares child.
func HasCollection(owner, child string) bool {
	for _, c := range Collections {
		if c.Owner == owner && c.Child == child {
			return true
		}
	}
	return false
}
