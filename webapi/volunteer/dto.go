package volunteer

// ApplicationInput is a public volunteer application. Its fields match
// records.Application.
type ApplicationInput struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Email        string   `json:"email" validate:"required,email"`
	Phone        string   `json:"phone" validate:"max=40"`
	Skills       []string `json:"skills" validate:"max=20,dive,max=100"`
	Availability string   `json:"availability" validate:"max=200"`
}
