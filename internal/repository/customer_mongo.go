package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/umalmyha/customersync/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	customersCollection     = "customers"
	shoppingListsCollection = "shopping_lists"
)

type customerDocument struct {
	model.Customer  `bson:",inline"`
	ShoppingListIDs []string `bson:"shoppingListIds"`
}

type mongoCustomerRepository struct {
	customers     *mongo.Collection
	shoppingLists *mongo.Collection
}

// NewMongoCustomerRepository builds mongodb-backed CustomerRepository
func NewMongoCustomerRepository(client *mongo.Client, database string) CustomerRepository {
	db := client.Database(database)
	return &mongoCustomerRepository{
		customers:     db.Collection(customersCollection),
		shoppingLists: db.Collection(shoppingListsCollection),
	}
}

func (r *mongoCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	// demoted records have no master external id, so they sort last
	opts := options.FindOne().SetSort(bson.D{{Key: "masterExternalId", Value: -1}})
	return r.findOne(ctx, bson.D{{Key: "externalId", Value: externalID}}, opts)
}

func (r *mongoCustomerRepository) FindByMasterExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	return r.findOne(ctx, bson.D{{Key: "masterExternalId", Value: externalID}})
}

func (r *mongoCustomerRepository) FindByCompanyNumber(ctx context.Context, companyNumber string) (*model.Customer, error) {
	return r.findOne(ctx, bson.D{{Key: "companyNumber", Value: companyNumber}})
}

func (r *mongoCustomerRepository) CreateCustomerRecord(ctx context.Context, c *model.Customer) error {
	doc := r.document(c)
	doc.ID = uuid.NewString()

	if _, err := r.customers.InsertOne(ctx, doc); err != nil {
		return err
	}

	c.ID = doc.ID
	return nil
}

func (r *mongoCustomerRepository) UpdateCustomerRecord(ctx context.Context, c *model.Customer) error {
	res, err := r.customers.ReplaceOne(ctx, bson.D{{Key: "_id", Value: c.ID}}, r.document(c))
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *mongoCustomerRepository) UpdateShoppingList(ctx context.Context, sl *model.ShoppingList) error {
	if sl.ID == "" {
		sl.ID = uuid.NewString()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.shoppingLists.ReplaceOne(ctx, bson.D{{Key: "_id", Value: sl.ID}}, sl, opts); err != nil {
		return err
	}
	return nil
}

func (r *mongoCustomerRepository) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (*model.Customer, error) {
	var doc customerDocument
	if err := r.customers.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}

	c := doc.Customer
	lists, err := r.findShoppingLists(ctx, doc.ShoppingListIDs)
	if err != nil {
		return nil, err
	}
	c.ShoppingLists = lists

	return &c, nil
}

func (r *mongoCustomerRepository) findShoppingLists(ctx context.Context, ids []string) ([]*model.ShoppingList, error) {
	lists := make([]*model.ShoppingList, 0, len(ids))
	if len(ids) == 0 {
		return lists, nil
	}

	cur, err := r.shoppingLists.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}

	var found []*model.ShoppingList
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.ShoppingList, len(found))
	for _, sl := range found {
		byID[sl.ID] = sl
	}

	// keep association order
	for _, id := range ids {
		if sl, ok := byID[id]; ok {
			lists = append(lists, sl)
		}
	}
	return lists, nil
}

func (r *mongoCustomerRepository) document(c *model.Customer) *customerDocument {
	ids := make([]string, 0, len(c.ShoppingLists))
	for _, sl := range c.ShoppingLists {
		if sl.ID != "" {
			ids = append(ids, sl.ID)
		}
	}
	return &customerDocument{Customer: *c, ShoppingListIDs: ids}
}
