package qtree

import "github.com/brightloom/sqlgraph/internal/gqlerr"

// reduceFragments runs after the full visitor walk: every fragment spread
// recorded on a TableQuery is replaced by re-visiting the fragment's
// selection set against that same TableQuery. Because visitSelectionSet
// always allocates fresh Columns/Joins/Links/Filter values, this acts as
// the deep copy the spec requires — a fragment spread in multiple places
// never shares state between expansions. Spreads nested inside a fragment
// are queued the same way and drained to a fixed point.
func (ctx *visitContext) reduceFragments(tq *TableQuery) error {
	for len(tq.FragmentSpreads) > 0 {
		pending := tq.FragmentSpreads
		tq.FragmentSpreads = nil
		for _, name := range pending {
			frag, ok := ctx.fragments[name]
			if !ok {
				return gqlerr.Validation("unknown fragment %q", name)
			}
			if err := ctx.visitSelectionSet(tq, frag.SelectionSet); err != nil {
				return err
			}
		}
	}

	for _, j := range tq.Joins {
		if err := ctx.reduceFragments(j.Child); err != nil {
			return err
		}
	}
	for _, l := range tq.Links {
		if err := ctx.reduceFragments(l); err != nil {
			return err
		}
	}
	return nil
}
