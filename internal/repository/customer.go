package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/pkg/db/transactor"
)

// CustomerRepository is the data layer reconciliation reads from and writes to.
// Find methods return nil customer without error if nothing matches.
// FindByExternalID prefers the authoritative record, whose master external id equals its external id,
// over demoted records sharing the same external id.
type CustomerRepository interface {
	FindByExternalID(context.Context, string) (*model.Customer, error)
	FindByMasterExternalID(context.Context, string) (*model.Customer, error)
	FindByCompanyNumber(context.Context, string) (*model.Customer, error)
	CreateCustomerRecord(context.Context, *model.Customer) error
	UpdateCustomerRecord(context.Context, *model.Customer) error
	UpdateShoppingList(context.Context, *model.ShoppingList) error
}

// ErrCustomerNotFound is returned on update of customer which is missing in data source
var ErrCustomerNotFound = errors.New("customer not found")

const customerColumns = `id, external_id, master_external_id, name, street, city, postal_code,
	preferred_store, company_number, customer_type`

type postgresCustomerRepository struct {
	trx transactor.PgxWithinTransactionExecutor
}

// NewPostgresCustomerRepository builds postgres-backed CustomerRepository
func NewPostgresCustomerRepository(trx transactor.PgxWithinTransactionExecutor) CustomerRepository {
	return &postgresCustomerRepository{trx: trx}
}

func (r *postgresCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	q := "SELECT " + customerColumns + ` FROM customers WHERE external_id = $1
		ORDER BY (master_external_id = external_id) IS TRUE DESC LIMIT 1`
	return r.findOne(ctx, q, externalID)
}

func (r *postgresCustomerRepository) FindByMasterExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	q := "SELECT " + customerColumns + " FROM customers WHERE master_external_id = $1 LIMIT 1"
	return r.findOne(ctx, q, externalID)
}

func (r *postgresCustomerRepository) FindByCompanyNumber(ctx context.Context, companyNumber string) (*model.Customer, error) {
	q := "SELECT " + customerColumns + " FROM customers WHERE company_number = $1 LIMIT 1"
	return r.findOne(ctx, q, companyNumber)
}

func (r *postgresCustomerRepository) CreateCustomerRecord(ctx context.Context, c *model.Customer) error {
	id := uuid.NewString()
	street, city, postalCode := addressColumns(c.Address)

	q := `INSERT INTO customers(` + customerColumns + `)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.trx.Executor(ctx).Exec(ctx, q, id, c.ExternalID, c.MasterExternalID, c.Name, street, city, postalCode,
		c.PreferredStore, c.CompanyNumber, c.CustomerType.String())
	if err != nil {
		return err
	}

	c.ID = id
	return r.linkShoppingLists(ctx, c)
}

func (r *postgresCustomerRepository) UpdateCustomerRecord(ctx context.Context, c *model.Customer) error {
	street, city, postalCode := addressColumns(c.Address)

	q := `UPDATE customers SET external_id = $1, master_external_id = $2, name = $3, street = $4, city = $5,
		postal_code = $6, preferred_store = $7, company_number = $8, customer_type = $9
		WHERE id = $10`
	comm, err := r.trx.Executor(ctx).Exec(ctx, q, c.ExternalID, c.MasterExternalID, c.Name, street, city, postalCode,
		c.PreferredStore, c.CompanyNumber, c.CustomerType.String(), c.ID)
	if err != nil {
		return err
	}

	if comm.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return r.linkShoppingLists(ctx, c)
}

func (r *postgresCustomerRepository) UpdateShoppingList(ctx context.Context, sl *model.ShoppingList) error {
	if sl.ID == "" {
		sl.ID = uuid.NewString()
	}

	products := sl.Products
	if products == nil {
		products = make([]string, 0)
	}

	q := `INSERT INTO shopping_lists(id, products) VALUES($1, $2)
		ON CONFLICT (id) DO UPDATE SET products = EXCLUDED.products`
	if _, err := r.trx.Executor(ctx).Exec(ctx, q, sl.ID, products); err != nil {
		return err
	}
	return nil
}

// linkShoppingLists stores association only for shopping lists which are already persisted,
// the rest is linked by subsequent update once shopping list itself is stored
func (r *postgresCustomerRepository) linkShoppingLists(ctx context.Context, c *model.Customer) error {
	q := `INSERT INTO customer_shopping_lists(customer_id, shopping_list_id, position)
		SELECT $1, $2, $3 WHERE EXISTS (SELECT 1 FROM shopping_lists WHERE id = $2)
		ON CONFLICT (customer_id, shopping_list_id) DO UPDATE SET position = EXCLUDED.position`

	for i, sl := range c.ShoppingLists {
		if sl.ID == "" {
			continue
		}

		if _, err := r.trx.Executor(ctx).Exec(ctx, q, c.ID, sl.ID, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresCustomerRepository) findOne(ctx context.Context, q string, arg string) (*model.Customer, error) {
	row := r.trx.Executor(ctx).QueryRow(ctx, q, arg)

	c, err := r.scanRow(row)
	if err != nil || c == nil {
		return nil, err
	}

	lists, err := r.findShoppingLists(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.ShoppingLists = lists

	return c, nil
}

func (r *postgresCustomerRepository) findShoppingLists(ctx context.Context, customerID string) ([]*model.ShoppingList, error) {
	q := `SELECT sl.id, sl.products FROM shopping_lists sl
		JOIN customer_shopping_lists csl ON csl.shopping_list_id = sl.id
		WHERE csl.customer_id = $1 ORDER BY csl.position`

	rows, err := r.trx.Executor(ctx).Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := make([]*model.ShoppingList, 0)
	for rows.Next() {
		var sl model.ShoppingList
		if err := rows.Scan(&sl.ID, &sl.Products); err != nil {
			return nil, err
		}
		lists = append(lists, &sl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *postgresCustomerRepository) scanRow(row pgx.Row) (*model.Customer, error) {
	var c model.Customer
	var street, city, postalCode *string
	var customerType string

	err := row.Scan(&c.ID, &c.ExternalID, &c.MasterExternalID, &c.Name, &street, &city, &postalCode,
		&c.PreferredStore, &c.CompanyNumber, &customerType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := c.CustomerType.UnmarshalText([]byte(customerType)); err != nil {
		return nil, err
	}

	if street != nil || city != nil || postalCode != nil {
		c.Address = &model.Address{
			Street:     model.StringValue(street),
			City:       model.StringValue(city),
			PostalCode: model.StringValue(postalCode),
		}
	}
	return &c, nil
}

func addressColumns(a *model.Address) (street, city, postalCode *string) {
	if a == nil {
		return nil, nil, nil
	}
	return &a.Street, &a.City, &a.PostalCode
}
