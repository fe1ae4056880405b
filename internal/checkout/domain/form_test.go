package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() FormData {
	return FormData{
		FirstName:  "Asha",
		LastName:   "Rao",
		Phone:      "9876543210",
		Email:      "asha@example.com",
		Address:    "12 Pottery Lane",
		City:       "Bengaluru",
		State:      "Karnataka",
		PostalCode: "560001",
	}
}

func TestValidate_GoodFormHasNoErrors(t *testing.T) {
	assert.Empty(t, validForm().Validate())
}

func TestValidate_ShortPhoneRejected(t *testing.T) {
	form := validForm()
	form.Phone = "12345"

	errs := form.Validate()

	assert.Equal(t, "Please enter a valid 10-digit phone number", errs["phone"])
}

func TestValidate_PhoneWithSpacesAccepted(t *testing.T) {
	form := validForm()
	form.Phone = "98765 43210"

	assert.Empty(t, form.Validate())
}

func TestValidate_PostalCodeMustBeSixDigits(t *testing.T) {
	form := validForm()
	form.PostalCode = "5600"

	errs := form.Validate()

	assert.Equal(t, "Please enter a valid 6-digit pincode", errs["postal_code"])
}

func TestValidate_EmailShape(t *testing.T) {
	form := validForm()
	form.Email = "not-an-email"

	errs := form.Validate()

	assert.Equal(t, "Please enter a valid email address", errs["email"])
}

func TestValidate_RequiredFields(t *testing.T) {
	errs := FormData{}.Validate()

	for _, field := range []string{"first_name", "last_name", "phone", "email", "address", "city", "state", "postal_code"} {
		assert.Contains(t, errs, field)
	}
}
