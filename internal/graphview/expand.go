package graphview

// expandPairs emits one edge per unordered pair of ids within each group of
// the index. Groups larger than cap only pair their first cap members; the
// excess is silently excluded, which bounds the combinatorial blow-up of
// popular shared values. Pair order is (i, j) with i < j over the capped,
// input-ordered id list.
func (b *builder) expandPairs(ix *Index, rel Relation, cap int, ensure func(string)) {
	ix.Each(func(value string, ids []string) {
		if len(ids) < 2 {
			return
		}
		n := len(ids)
		if cap > 0 && n > cap {
			n = cap
		}
		label := string(rel) + ": " + value
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				ensure(ids[i])
				ensure(ids[j])
				b.addEdge(ids[i], ids[j], rel, label)
			}
		}
	})
}

// expandAnchored emits edges only between anchored ids and the other members
// of their groups. It is the restricted expansion used by focused views: every
// produced edge has at least one endpoint in the anchor set, which keeps the
// result a 1-hop neighborhood instead of a full cross-product.
func (b *builder) expandAnchored(ix *Index, rel Relation, anchors map[string]struct{}, ensure func(string)) {
	ix.Each(func(value string, ids []string) {
		if len(ids) < 2 {
			return
		}
		label := string(rel) + ": " + value
		for _, anchor := range ids {
			if _, ok := anchors[anchor]; !ok {
				continue
			}
			for _, other := range ids {
				if other == anchor {
					continue
				}
				ensure(anchor)
				ensure(other)
				if _, alsoAnchor := anchors[other]; alsoAnchor && other < anchor {
					// pair already emitted with the other member as anchor
					continue
				}
				b.addEdge(anchor, other, rel, label)
			}
		}
	})
}
