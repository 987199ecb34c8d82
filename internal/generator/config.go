package generator

// Config drives the synthetic data generator.
type Config struct {
	NumUsers        int
	NumTransactions int

	EmailShareChance   float64
	PhoneShareChance   float64
	AddressShareChance float64
	PaymentShareChance float64
	IPShareChance      float64
	DeviceShareChance  float64

	Seed int64
}

// DefaultConfig returns baseline settings producing a well-connected graph.
func DefaultConfig() Config {
	return Config{
		NumUsers:           100,
		NumTransactions:    400,
		EmailShareChance:   0.30,
		PhoneShareChance:   0.25,
		AddressShareChance: 0.20,
		PaymentShareChance: 0.20,
		IPShareChance:      0.15,
		DeviceShareChance:  0.10,
		Seed:               42,
	}
}
