package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/meera/framl/internal/domain"
	"github.com/meera/framl/internal/service"
)

// Pool sizes bound how many distinct shareable values exist, which controls
// how dense the shared-attribute clusters become.
const (
	emailPoolSize   = 20
	phonePoolSize   = 20
	addressPoolSize = 15
	paymentPoolSize = 15
	ipPoolSize      = 50
	devicePoolSize  = 50
)

// Dataset contains the generated users and transactions.
type Dataset struct {
	Users        []service.UserInput        `json:"users"`
	Transactions []service.TransactionInput `json:"transactions"`
}

// Generator produces synthetic fraud-graph data with deliberately shared
// attributes and transaction context.
type Generator struct {
	cfg   Config
	rand  *rand.Rand
	names nameFragments
	pools attributePools
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = defaults.NumUsers
	}
	if cfg.NumTransactions <= 0 {
		cfg.NumTransactions = defaults.NumTransactions
	}
	if cfg.EmailShareChance <= 0 {
		cfg.EmailShareChance = defaults.EmailShareChance
	}
	if cfg.PhoneShareChance <= 0 {
		cfg.PhoneShareChance = defaults.PhoneShareChance
	}
	if cfg.AddressShareChance <= 0 {
		cfg.AddressShareChance = defaults.AddressShareChance
	}
	if cfg.PaymentShareChance <= 0 {
		cfg.PaymentShareChance = defaults.PaymentShareChance
	}
	if cfg.IPShareChance <= 0 {
		cfg.IPShareChance = defaults.IPShareChance
	}
	if cfg.DeviceShareChance <= 0 {
		cfg.DeviceShareChance = defaults.DeviceShareChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	g := &Generator{
		cfg:   cfg,
		rand:  rand.New(rand.NewSource(cfg.Seed)),
		names: defaultNameFragments(),
	}
	g.pools = g.buildPools()
	return g
}

// Generate synthesises users and transactions. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	users := make([]service.UserInput, g.cfg.NumUsers)

	for i := 0; i < g.cfg.NumUsers; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		userID := fmt.Sprintf("U%04d", i+1)
		users[i] = service.UserInput{
			ID:            userID,
			Name:          g.randomFullName(),
			Email:         g.maybeShared(g.pools.emails, g.cfg.EmailShareChance, func() string { return g.uniqueEmail(userID) }),
			Phone:         g.maybeShared(g.pools.phones, g.cfg.PhoneShareChance, g.uniquePhone),
			Address:       g.maybeShared(g.pools.addresses, g.cfg.AddressShareChance, g.uniqueAddress),
			PaymentMethod: g.maybeShared(g.pools.payments, g.cfg.PaymentShareChance, func() string { return g.uniquePayment(userID) }),
		}
	}

	now := time.Now().UTC()
	transactions := make([]service.TransactionInput, g.cfg.NumTransactions)

	for i := 0; i < g.cfg.NumTransactions; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		txID := fmt.Sprintf("T%05d", i+1)
		senderIdx := g.rand.Intn(len(users))
		receiverIdx := g.rand.Intn(len(users))
		if senderIdx == receiverIdx {
			receiverIdx = (receiverIdx + 1) % len(users)
		}

		sharedIP := g.rand.Float64() < g.cfg.IPShareChance
		ip := g.uniqueIP()
		if sharedIP {
			ip = g.pools.ips[g.rand.Intn(len(g.pools.ips))]
		}
		sharedDevice := g.rand.Float64() < g.cfg.DeviceShareChance
		device := g.uniqueDevice()
		if sharedDevice {
			device = g.pools.devices[g.rand.Intn(len(g.pools.devices))]
		}

		// INR amounts between 500 and 5,000,000.
		amount := 500 + g.rand.Float64()*(5_000_000-500)
		risk := riskScore(amount, sharedIP, sharedDevice)

		transactions[i] = service.TransactionInput{
			ID:         txID,
			SenderID:   users[senderIdx].ID,
			ReceiverID: users[receiverIdx].ID,
			Amount:     amount,
			Currency:   "INR",
			Status:     statusForRisk(risk),
			RiskScore:  risk,
			IPAddress:  ip,
			DeviceID:   device,
			Timestamp:  now.Add(-time.Duration(g.rand.Intn(90*24)) * time.Hour),
		}
	}

	return Dataset{Users: users, Transactions: transactions}, nil
}

// riskScore weights shared context and large amounts, capped at 1.
func riskScore(amount float64, sharedIP, sharedDevice bool) float64 {
	risk := 0.05
	if sharedIP {
		risk += 0.4
	}
	if sharedDevice {
		risk += 0.3
	}
	if amount > 1_000_000 {
		risk += 0.2
	}
	if risk > 1 {
		risk = 1
	}
	return risk
}

func statusForRisk(risk float64) string {
	switch {
	case risk > 0.7:
		return domain.StatusFlagged
	case risk > 0.4:
		return domain.StatusReview
	default:
		return domain.StatusClear
	}
}

type attributePools struct {
	emails    []string
	phones    []string
	addresses []string
	payments  []string
	ips       []string
	devices   []string
}

func (g *Generator) buildPools() attributePools {
	pools := attributePools{}
	for i := 0; i < emailPoolSize; i++ {
		pools.emails = append(pools.emails, fmt.Sprintf("shared%02d@%s", i+1, g.names.domains[i%len(g.names.domains)]))
	}
	for i := 0; i < phonePoolSize; i++ {
		pools.phones = append(pools.phones, g.uniquePhone())
	}
	for i := 0; i < addressPoolSize; i++ {
		pools.addresses = append(pools.addresses, g.uniqueAddress())
	}
	for i := 0; i < paymentPoolSize; i++ {
		pools.payments = append(pools.payments, fmt.Sprintf("card_%04d", g.rand.Intn(10000)))
	}
	for i := 0; i < ipPoolSize; i++ {
		pools.ips = append(pools.ips, g.uniqueIP())
	}
	for i := 0; i < devicePoolSize; i++ {
		pools.devices = append(pools.devices, g.uniqueDevice())
	}
	return pools
}

func (g *Generator) maybeShared(pool []string, chance float64, unique func() string) string {
	if g.rand.Float64() < chance {
		return pool[g.rand.Intn(len(pool))]
	}
	return unique()
}

func (g *Generator) randomFullName() string {
	return fmt.Sprintf("%s %s",
		g.names.first[g.rand.Intn(len(g.names.first))],
		g.names.last[g.rand.Intn(len(g.names.last))])
}

func (g *Generator) uniqueEmail(userID string) string {
	domainName := g.names.domains[g.rand.Intn(len(g.names.domains))]
	return fmt.Sprintf("user.%s@%s", userID, domainName)
}

func (g *Generator) uniquePhone() string {
	return fmt.Sprintf("+91%05d%05d", g.rand.Intn(100000), g.rand.Intn(100000))
}

func (g *Generator) uniqueAddress() string {
	return fmt.Sprintf("%d %s, %s",
		g.rand.Intn(999)+1,
		g.names.streets[g.rand.Intn(len(g.names.streets))],
		g.names.cities[g.rand.Intn(len(g.names.cities))])
}

func (g *Generator) uniquePayment(userID string) string {
	return fmt.Sprintf("card_%s_%03d", userID, g.rand.Intn(1000))
}

func (g *Generator) uniqueIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(256))
}

func (g *Generator) uniqueDevice() string {
	return fmt.Sprintf("device-%06d", g.rand.Intn(999999))
}

type nameFragments struct {
	first   []string
	last    []string
	domains []string
	streets []string
	cities  []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:   []string{"Aarav", "Priya", "Rohan", "Ananya", "Vikram", "Meera", "Arjun", "Diya", "Kabir", "Isha", "Ravi", "Sneha", "Nikhil", "Pooja", "Aditya"},
		last:    []string{"Sharma", "Patel", "Reddy", "Khan", "Iyer", "Gupta", "Nair", "Singh", "Das", "Mehta", "Joshi", "Rao"},
		domains: []string{"example.com", "mail.com", "framl.io", "payments.net", "securepay.org"},
		streets: []string{"MG Road", "Brigade Road", "Link Road", "Park Street", "Anna Salai", "FC Road", "Juhu Lane", "Ring Road"},
		cities:  []string{"Mumbai", "Delhi", "Bengaluru", "Hyderabad", "Chennai", "Pune", "Kolkata", "Ahmedabad"},
	}
}
