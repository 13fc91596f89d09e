package models

// Customer captures the contact details entered at checkout.
type Customer struct {
	Name  string `bson:"name" json:"customerName"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}
