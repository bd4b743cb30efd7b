package views

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
	"github.com/go-playground/validator/v10"
)

// MaxPageSize bounds the rows a single page may request.
const MaxPageSize = 500

var validate = validator.New(validator.WithRequiredStructEnabled())

// Update is a partial ViewState change. Nil fields are left untouched. An empty SortKey
// clears the sort; SortDirection alone re-orders the active key.
type Update struct {
	Search        *string           `json:"search,omitempty" validate:"omitempty,max=200"`
	Filters       map[string]string `json:"filters,omitempty" validate:"omitempty,dive,keys,required,endkeys,max=100"`
	SortKey       *string           `json:"sort_key,omitempty"`
	SortDirection *string           `json:"sort_direction,omitempty" validate:"omitempty,oneof=asc desc ASC DESC"`
	Page          *int              `json:"page,omitempty" validate:"omitempty,min=1"`
	PageSize      *int              `json:"page_size,omitempty" validate:"omitempty,min=1,max=500"`
}

// Validate checks the field constraints that do not depend on the table schema.
func (u Update) Validate() error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return nil
}

func (u Update) sortSpec(current dataview.SortSpec) (dataview.SortSpec, bool, error) {
	if u.SortKey == nil && u.SortDirection == nil {
		return current, false, nil
	}
	next := current
	if u.SortKey != nil {
		next.Key = *u.SortKey
		next.Direction = dataview.Ascending
	}
	if u.SortDirection != nil {
		direction, err := dataview.ParseDirection(*u.SortDirection)
		if err != nil {
			return current, false, err
		}
		next.Direction = direction
	}
	return next, true, nil
}
