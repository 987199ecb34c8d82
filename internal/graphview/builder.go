package graphview

// builder is the accumulator for a single assembly pass. It owns the seen-node
// and seen-edge sets plus degree counts, and is discarded once finish returns.
type builder struct {
	opts     Options
	users    map[string]userRecord
	txs      map[string]txRecord
	nodes    []Node
	nodeSeen map[string]struct{}
	edges    []Edge
	edgeSeen map[string]struct{}
	degree   map[string]int
}

type userRecord struct {
	name string
}

type txRecord struct {
	status string
}

func newBuilder(opts Options) *builder {
	return &builder{
		opts:     opts,
		users:    make(map[string]userRecord),
		txs:      make(map[string]txRecord),
		nodeSeen: make(map[string]struct{}),
		edgeSeen: make(map[string]struct{}),
		degree:   make(map[string]int),
	}
}

// registerUser records the display attributes used when the id is ensured as a
// node. Records without an id are skipped entirely.
func (b *builder) registerUser(id, name string) {
	if id == "" {
		return
	}
	if _, exists := b.users[id]; !exists {
		b.users[id] = userRecord{name: name}
	}
}

func (b *builder) registerTransaction(id, status string) {
	if id == "" {
		return
	}
	if _, exists := b.txs[id]; !exists {
		b.txs[id] = txRecord{status: status}
	}
}

// ensureUser inserts the user node once, regardless of how many edges reference
// it. Unknown ids still get a node so the edge set never dangles.
func (b *builder) ensureUser(id string) {
	if id == "" {
		return
	}
	if _, seen := b.nodeSeen[id]; seen {
		return
	}
	b.nodeSeen[id] = struct{}{}

	label := id
	if rec, ok := b.users[id]; ok && rec.name != "" {
		label = rec.name
	}
	b.nodes = append(b.nodes, Node{
		ID:    id,
		Kind:  KindUser,
		Label: label,
	})
}

// ensureTransaction inserts the transaction node once. Its status is fixed at
// first insertion and never updated by later references.
func (b *builder) ensureTransaction(id string) {
	if id == "" {
		return
	}
	if _, seen := b.nodeSeen[id]; seen {
		return
	}
	b.nodeSeen[id] = struct{}{}

	var status string
	if rec, ok := b.txs[id]; ok {
		status = rec.status
	}
	b.nodes = append(b.nodes, Node{
		ID:     id,
		Kind:   KindTransaction,
		Label:  id,
		Status: status,
	})
}

// addEdge inserts an edge unless an identical (from, to, relation) key was
// already emitted during this build. Dedup is global across all assembly steps.
func (b *builder) addEdge(from, to string, rel Relation, label string) bool {
	if from == "" || to == "" {
		return false
	}
	key := from + "||" + to + "||" + string(rel)
	if _, dup := b.edgeSeen[key]; dup {
		return false
	}
	b.edgeSeen[key] = struct{}{}
	b.edges = append(b.edges, Edge{
		From:     from,
		To:       to,
		Relation: rel,
		Label:    label,
	})
	b.degree[from]++
	b.degree[to]++
	return true
}

// finish applies degree-based sizing and returns the accumulated graph.
func (b *builder) finish() Graph {
	nodes := make([]Node, len(b.nodes))
	for i, n := range b.nodes {
		switch n.Kind {
		case KindUser:
			size := b.opts.BaseSize + float64(b.degree[n.ID])*b.opts.SizeScale
			if size > b.opts.SizeCap {
				size = b.opts.SizeCap
			}
			n.Size = size
		case KindTransaction:
			n.Size = b.opts.TransactionSize
		}
		nodes[i] = n
	}
	edges := b.edges
	if edges == nil {
		edges = []Edge{}
	}
	return Graph{Nodes: nodes, Edges: edges}
}
