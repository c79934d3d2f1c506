package reconcile

import (
	"context"
	"fmt"

	"github.com/umalmyha/customersync/internal/model"
)

// CustomerWriter is the write side of customer data layer
type CustomerWriter interface {
	CreateCustomerRecord(context.Context, *model.Customer) error
	UpdateCustomerRecord(context.Context, *model.Customer) error
	UpdateShoppingList(context.Context, *model.ShoppingList) error
}

// Persister writes reconciliation plan to data layer. There are no retries and no rollback,
// the first failure aborts remaining writes.
type Persister struct {
	writer CustomerWriter
}

// NewPersister builds Persister
func NewPersister(writer CustomerWriter) *Persister {
	return &Persister{writer: writer}
}

// Persist stores duplicates, then primary customer, then shopping lists.
// Returns true if primary customer was created.
func (p *Persister) Persist(ctx context.Context, plan Plan) (bool, error) {
	for _, dup := range plan.Duplicates {
		if _, err := p.save(ctx, dup); err != nil {
			return false, err
		}
	}

	created, err := p.save(ctx, plan.Primary)
	if err != nil {
		return false, err
	}

	// customer is stored again after each list, association is part of its persisted state
	for _, sl := range plan.ShoppingLists {
		if err := p.writer.UpdateShoppingList(ctx, sl); err != nil {
			return created, fmt.Errorf("failed to update shopping list %s - %w", sl.ID, err)
		}

		if err := p.writer.UpdateCustomerRecord(ctx, plan.Primary); err != nil {
			return created, fmt.Errorf("failed to update customer %s - %w", plan.Primary.ID, err)
		}
	}

	return created, nil
}

func (p *Persister) save(ctx context.Context, c *model.Customer) (bool, error) {
	if c.IsNew() {
		if err := p.writer.CreateCustomerRecord(ctx, c); err != nil {
			return false, fmt.Errorf("failed to create customer with external id %s - %w", model.StringValue(c.ExternalID), err)
		}
		return true, nil
	}

	if err := p.writer.UpdateCustomerRecord(ctx, c); err != nil {
		return false, fmt.Errorf("failed to update customer %s - %w", c.ID, err)
	}
	return false, nil
}
