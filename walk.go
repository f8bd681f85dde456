package ziptree

import (
	"context"
)

// Walker enumerates a directory breadth-first.
//
// The zero value walks the real filesystem and includes every entry.
type Walker struct {
	// Accessor lists directories. Default to DirectFileAccessor.
	Accessor FileAccessor

	// Filter decides which entries are returned. Nil accepts all.
	Filter Filter

	// Prune stops the Walker from descending into directories rejected by Filter.
	//
	// By default, a rejected directory is left out of the result but its children are still enumerated and filtered
	// independently of their parent.
	Prune bool
}

// Walk returns the entries under root that are accepted by the Filter, root itself excluded.
//
// Parents come before their descendants and siblings are kept in the order returned by
// FileAccessor.ListDirectoryContents. The result is undefined if the directory is modified concurrently.
func (w Walker) Walk(ctx context.Context, root string) ([]DirectoryEntry, error) {
	accessor := w.Accessor
	if accessor == nil {
		accessor = DirectFileAccessor{}
	}

	filter := w.Filter
	if filter == nil {
		filter = IncludeAll
	}

	var entries []DirectoryEntry

	// root is the seed of the queue; it is never filtered nor returned.
	queue := []DirectoryEntry{{Path: root, IsDir: true}}
	for seed := true; len(queue) > 0; seed = false {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		e := queue[0]
		queue = queue[1:]

		if !seed {
			if !filter(e.Path) {
				if !e.IsDir || w.Prune {
					continue
				}
			} else {
				entries = append(entries, e)
			}
		}

		if !e.IsDir {
			continue
		}

		children, err := accessor.ListDirectoryContents(e.Path)
		if err != nil {
			return nil, &Error{Kind: KindIO, Path: e.Path, Err: err}
		}

		queue = append(queue, children...)
	}

	return entries, nil
}
