package domain

import (
	"regexp"
	"strings"
)

// FormData is the contact and shipping address input for one checkout.
type FormData struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

var (
	phonePattern  = regexp.MustCompile(`^\d{10}$`)
	postalPattern = regexp.MustCompile(`^\d{6}$`)
	emailPattern  = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Validate checks required fields and format rules, returning a message
// per violating field. An empty map means the form is good.
func (f FormData) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(f.FirstName) == "" {
		errs["first_name"] = "First name is required"
	}
	if strings.TrimSpace(f.LastName) == "" {
		errs["last_name"] = "Last name is required"
	}

	phone := strings.ReplaceAll(strings.TrimSpace(f.Phone), " ", "")
	if phone == "" {
		errs["phone"] = "Phone number is required"
	} else if !phonePattern.MatchString(phone) {
		errs["phone"] = "Please enter a valid 10-digit phone number"
	}

	if strings.TrimSpace(f.Email) == "" {
		errs["email"] = "Email is required"
	} else if !emailPattern.MatchString(f.Email) {
		errs["email"] = "Please enter a valid email address"
	}

	if strings.TrimSpace(f.Address) == "" {
		errs["address"] = "Delivery address is required"
	}
	if strings.TrimSpace(f.City) == "" {
		errs["city"] = "City is required"
	}
	if strings.TrimSpace(f.State) == "" {
		errs["state"] = "State is required"
	}

	if strings.TrimSpace(f.PostalCode) == "" {
		errs["postal_code"] = "Pincode is required"
	} else if !postalPattern.MatchString(strings.TrimSpace(f.PostalCode)) {
		errs["postal_code"] = "Please enter a valid 6-digit pincode"
	}

	return errs
}

// CustomerName joins first and last name for the gateway prefill and the
// order record.
func (f FormData) CustomerName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}
