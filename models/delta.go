package models

// Delta is one sync request's change-set against an account archive.
// Deltas are ephemeral: they are decoded from the uploaded container,
// applied, and discarded.
type Delta struct {
	// Adds maps relative paths to content bytes for entries to create or
	// overwrite. Within one delta, deletes are applied before adds, so a
	// path present in both ends up with the new content.
	Adds map[string][]byte

	// Deletes lists the paths to remove from the archive. Removing a path
	// that is not present is a no-op. Ignored when DeleteAll is set.
	Deletes []string

	// DeleteAll discards every existing path before adds are applied.
	DeleteAll bool

	// Download lists the paths the client wants returned from the archive
	// after the merge, in the order requested.
	Download []string

	// Metadata, when non-nil, fully replaces the account's metadata blob.
	Metadata *string
}
