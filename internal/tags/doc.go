// Package tags owns the tag hierarchy of the organizer and its XML file.
//
// A Store holds every Tag in a tree.Index keyed by tag name. Tags carry an
// arbitrary set of string attributes, an optional parent, and the IDs of the
// tasks they are attached to. Names are fixed at construction: renaming
// builds a new Tag, moves attributes, parent, children and tasks onto it,
// and retires the old one.
//
// # Persistence
//
// The store is write-through. Every attribute or structural change on a tag
// that belongs to a store calls Store.Save, which rewrites the whole file in
// a single atomic write:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<tagstore>
//	  <tag name="@work" color="#ff0000"/>
//	  <tag name="@meetings" parent="@work"/>
//	</tagstore>
//
// Tags with no attribute besides "name" and tags marked "special" are never
// written. Loading tolerates a missing file, unknown attributes, and parent
// references to tags defined later in the document.
//
// # Tasks
//
// Tags reference tasks by ID only. Counting and rename propagation resolve
// IDs through a Requester supplied by the caller.
package tags
