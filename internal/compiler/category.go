package compiler

import (
	"fmt"

	"github.com/roach88/callgen/internal/ir"
)

// IndexCategories assigns every concrete operation to its category bucket.
// helper_base operations are exempt. A concrete operation without a category
// is reported as E104; indexing continues so every missing category is found
// in one pass.
func IndexCategories(library string, ops []*ir.Operation) (ir.CategoryMap, []ValidationError) {
	categories := make(ir.CategoryMap)
	var errs []ValidationError

	for _, op := range ops {
		if op.HelperBase {
			continue
		}
		if op.Category == "" {
			errs = append(errs, ValidationError{
				Library:   library,
				Operation: op.Name,
				Field:     "category",
				Message:   fmt.Sprintf("operation %s is missing a category", op.Name),
				Code:      ErrMissingCategory,
			})
			continue
		}
		categories.Add(op.Category, op.Name)
	}

	return categories, errs
}
