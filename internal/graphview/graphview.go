// Package graphview turns flat user and transaction records into the
// deduplicated, bounded node/edge graph consumed by the dashboard's
// force-directed renderer. It performs no I/O; every build is a pure
// synchronous transform over an already-fetched snapshot.
package graphview

// NodeKind distinguishes the two id spaces rendered on the canvas.
type NodeKind string

const (
	KindUser        NodeKind = "user"
	KindTransaction NodeKind = "transaction"
)

// Relation classifies an edge's semantic meaning. The set is closed: filters
// enumerate exactly these categories.
type Relation string

const (
	RelationSent          Relation = "SENT"
	RelationDebit         Relation = "DEBIT"
	RelationSharedEmail   Relation = "SHARED_EMAIL"
	RelationSharedPhone   Relation = "SHARED_PHONE"
	RelationSharedAddress Relation = "SHARED_ADDRESS"
	RelationSharedPayment Relation = "SHARED_PAYMENT"
	RelationSameIP        Relation = "SAME_IP"
	RelationSameDevice    Relation = "SAME_DEVICE"
)

// Node is a renderable graph vertex. Size is derived from degree for user
// nodes; transaction nodes keep a fixed size and communicate status via color
// in the presentation layer.
type Node struct {
	ID     string   `json:"id"`
	Kind   NodeKind `json:"kind"`
	Label  string   `json:"label"`
	Size   float64  `json:"size"`
	Status string   `json:"status,omitempty"`
}

// Edge connects two nodes. Identity for deduplication is (From, To, Relation);
// Label carries tooltip text such as the shared value and never participates
// in identity.
type Edge struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Relation Relation `json:"relation"`
	Label    string   `json:"label"`
}

// Graph is the assembled result handed to the rendering layer.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Filters toggles each relation category independently. Zero value disables
// everything.
type Filters struct {
	Users        bool
	Transactions bool
	Credit       bool
	Debit        bool
	Email        bool
	Phone        bool
	Address      bool
	Payment      bool
	IP           bool
	Device       bool
}

// AllFilters enables every relation category.
func AllFilters() Filters {
	return Filters{
		Users:        true,
		Transactions: true,
		Credit:       true,
		Debit:        true,
		Email:        true,
		Phone:        true,
		Address:      true,
		Payment:      true,
		IP:           true,
		Device:       true,
	}
}

// Options bounds pair expansion and controls visual sizing. The context cap is
// deliberately tighter than the user-attribute cap because IP and device groups
// can be much larger.
type Options struct {
	UserGroupCap    int
	ContextGroupCap int
	BaseSize        float64
	SizeScale       float64
	SizeCap         float64
	TransactionSize float64
}

// DefaultOptions returns the tuning used by the dashboard.
func DefaultOptions() Options {
	return Options{
		UserGroupCap:    50,
		ContextGroupCap: 8,
		BaseSize:        10,
		SizeScale:       1.5,
		SizeCap:         30,
		TransactionSize: 12,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.UserGroupCap <= 0 {
		o.UserGroupCap = def.UserGroupCap
	}
	if o.ContextGroupCap <= 0 {
		o.ContextGroupCap = def.ContextGroupCap
	}
	if o.BaseSize <= 0 {
		o.BaseSize = def.BaseSize
	}
	if o.SizeScale <= 0 {
		o.SizeScale = def.SizeScale
	}
	if o.SizeCap <= 0 {
		o.SizeCap = def.SizeCap
	}
	if o.TransactionSize <= 0 {
		o.TransactionSize = def.TransactionSize
	}
	return o
}
