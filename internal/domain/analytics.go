package domain

// GraphStats carries the aggregate counts shown on the dashboard.
type GraphStats struct {
	Users        int64 `json:"users"`
	Transactions int64 `json:"transactions"`
	Flagged      int64 `json:"flagged"`
	Review       int64 `json:"review"`
	Clear        int64 `json:"clear"`
}

// PathResult is the outcome of a shortest-path query between two users.
// Path holds node ids in traversal order; Hops is the edge count.
type PathResult struct {
	Path []string `json:"path"`
	Hops int      `json:"hops"`
}
