// Package sloth provides page-number pagination over cursor-capable stores,
// remembering the cursor that starts each page in a shared cache.
//
// Overview
//
// A Paginator answers "give me page N" for an immutable Query. The first time
// a page is reached sequentially it resumes from the cursor left behind by the
// previous full page, so fetching page N costs O(page size) no matter how deep
// N is. When no cursor is known (cold cache, eviction, a jump ahead) it falls
// back to an offset scan.
//
// Key concepts
//   - Query: kind + equality/membership filters + orderings. Never mutated.
//   - Store: scans and counts a Query, handing back an opaque end cursor.
//   - Cache: byte key/value storage shared between requests. A namespace key
//     holds the page-cursor map, namespace+"_COUNT" holds the total count.
//   - KeysetCursor: resume position built from the last row's sort columns.
//   - OffsetCursor: pseudo cursor for stores that only support OFFSET.
//
// Invalidation belongs to whoever mutates the scanned collection: call Clear
// for every namespace whose query could observe the change.
package sloth
