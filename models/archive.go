package models

// Archive is an account's full server-side file collection: a flat mapping
// from relative path to content bytes. Paths are case-sensitive and carry no
// ordering significance.
type Archive map[string][]byte

// Clone returns a deep copy of the archive. Content slices are copied so the
// clone can be mutated without aliasing the original.
func (a Archive) Clone() Archive {
	clone := make(Archive, len(a))
	for path, content := range a {
		c := make([]byte, len(content))
		copy(c, content)
		clone[path] = c
	}
	return clone
}
