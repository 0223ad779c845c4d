// Package library loads paged lists from the remote service and edits playlists.
//
// [Accumulator] implements the paging contract used by every list view: loading offset 0
// replaces the list, loading any later offset appends to it, and more pages remain while
// offset + limit < total. It is not a cache; nothing is evicted or invalidated except by a
// reload from offset 0.
package library
