package phototag

// Filter returns the paths of snapshot matching selected. With no selected
// tags every path is returned; otherwise a path matches when its tags
// intersect the selection (any selected tag, not all). Paths come back in
// snapshot order, so a Catalog.All snapshot yields path order.
func Filter(snapshot []Entry, selected TagSet) []string {
	out := make([]string, 0, len(snapshot))
	for _, e := range snapshot {
		if len(selected) == 0 || e.Tags.Intersects(selected) {
			out = append(out, e.Path)
		}
	}
	return out
}
