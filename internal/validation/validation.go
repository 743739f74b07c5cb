// Package validation checks user-supplied item fields before they are stored.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"grocery_bot/internal/expiry"
	"grocery_bot/internal/model"
)

// Categories lists the accepted item categories.
var Categories = []string{
	"fruits", "vegetables", "dairy", "meat", "pantry",
	"beverages", "snacks", "frozen", "household", "other",
}

var validate = validator.New()

// ItemInput holds the item fields accepted from users.
type ItemInput struct {
	Name           string  `validate:"required,max=255"`
	Quantity       int     `validate:"min=1,max=9999"`
	Category       string  `validate:"oneof=fruits vegetables dairy meat pantry beverages snacks frozen household other"`
	Priority       string  `validate:"oneof=low medium high"`
	PurchaseDate   string  `validate:"omitempty,max=32"`
	ShelfLifeDays  *int    `validate:"omitempty,min=0,max=3650"`
	EstimatedPrice float64 `validate:"min=0"`
	Notes          string  `validate:"max=500"`
}

// NewItemInput returns an input with the default quantity, category and priority.
func NewItemInput(name string) ItemInput {
	return ItemInput{Name: name, Quantity: 1, Category: "other", Priority: string(model.PriorityMedium)}
}

// Validate reports the first invalid field as a user-facing error.
func (in ItemInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return describe(err)
	}
	if in.PurchaseDate != "" {
		if _, err := expiry.ParseDate(in.PurchaseDate); err != nil {
			return fmt.Errorf("invalid purchase date %q, use YYYY-MM-DD", in.PurchaseDate)
		}
	}
	return nil
}

// Item converts the input into a model item.
func (in ItemInput) Item() model.Item {
	return model.Item{
		Name:           in.Name,
		Category:       in.Category,
		Quantity:       in.Quantity,
		Priority:       model.Priority(in.Priority),
		PurchaseDate:   in.PurchaseDate,
		ShelfLifeDays:  in.ShelfLifeDays,
		EstimatedPrice: in.EstimatedPrice,
		Notes:          in.Notes,
	}
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Errorf("%s is invalid", field)
	}
}
