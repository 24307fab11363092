package normalize

// Resolve implements the tool-name attribute-resolution algorithm: given a
// requested name p and the set of stored original names, find the stored
// name p actually refers to.
//
// Order: (1) exact hit; (2) if p is camelCase, any candidate of p present
// among the stored names; (3) any stored name t for which Snake(t) == p.
func Resolve(p string, stored map[string]bool) (string, bool) {
	if stored[p] {
		return p, true
	}
	if IsCamel(p) {
		for _, c := range Candidates(p) {
			if stored[c] {
				return c, true
			}
		}
	}
	for t := range stored {
		if Snake(t) == p {
			return t, true
		}
	}
	return "", false
}
