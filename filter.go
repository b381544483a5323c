package flystorage

import "github.com/gobwas/glob"

// Listing predicates for use with DirectoryListing.Filter. Predicates are
// composable with And, Or and Not:
//
//	listing, _ := storage.List(ctx, "images", flystorage.WithDeep(true))
//	jpegs := listing.Filter(flystorage.And(
//	    flystorage.FilesOnly(),
//	    flystorage.MatchGlob("**/*.jpg"),
//	))

// MatchGlob matches entry paths against a glob pattern, with "/" as the
// separator so "*" does not cross directory boundaries and "**" does.
// An invalid pattern matches nothing.
func MatchGlob(pattern string) func(StatEntry) bool {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return func(StatEntry) bool { return false }
	}
	return func(entry StatEntry) bool {
		return g.Match(entry.Path)
	}
}

// FilesOnly keeps file entries.
func FilesOnly() func(StatEntry) bool {
	return func(entry StatEntry) bool {
		return entry.IsFile()
	}
}

// DirectoriesOnly keeps directory entries.
func DirectoriesOnly() func(StatEntry) bool {
	return func(entry StatEntry) bool {
		return entry.IsDir()
	}
}

// And keeps entries matching every predicate.
func And(preds ...func(StatEntry) bool) func(StatEntry) bool {
	return func(entry StatEntry) bool {
		for _, pred := range preds {
			if !pred(entry) {
				return false
			}
		}
		return true
	}
}

// Or keeps entries matching at least one predicate.
func Or(preds ...func(StatEntry) bool) func(StatEntry) bool {
	return func(entry StatEntry) bool {
		for _, pred := range preds {
			if pred(entry) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate.
func Not(pred func(StatEntry) bool) func(StatEntry) bool {
	return func(entry StatEntry) bool {
		return !pred(entry)
	}
}
