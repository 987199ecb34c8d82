package domain

// User is the canonical account record stored as a graph node. Every field
// except ID is optional and used only for shared-attribute linking and display.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	PaymentMethod string `json:"payment_method"`
}
