package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/whatsapp-storefront/backend/internal/models"
)

// Collection names in the document store
const (
	ProductsCollection = "products"
	SellersCollection  = "sellers"
)

// MongoStore keeps products and sellers as documents
type MongoStore struct {
	client   *mongo.Client
	products *mongo.Collection
	sellers  *mongo.Collection
}

// NewMongoStore uses the given database on an already connected client
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		products: db.Collection(ProductsCollection),
		sellers:  db.Collection(SellersCollection),
	}
}

// EnsureIndexes creates the seller lookup index on products
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create products index: %w", err)
	}
	return nil
}

// Product operations
func (m *MongoStore) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	p := *product
	p.ID = primitive.NewObjectID().Hex()
	p.CreatedAt = time.Now().UTC()

	if _, err := m.products.InsertOne(ctx, p); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return &p, nil
}

func (m *MongoStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	err := m.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (m *MongoStore) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return m.findProducts(ctx, bson.M{})
}

func (m *MongoStore) ListProductsBySeller(ctx context.Context, sellerID string) ([]*models.Product, error) {
	return m.findProducts(ctx, bson.M{"sellerId": sellerID})
}

func (m *MongoStore) findProducts(ctx context.Context, filter bson.M) ([]*models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (m *MongoStore) UpdateProduct(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.StockStatus != nil {
		set["stockStatus"] = *update.StockStatus
	}
	if update.IsAvailable != nil {
		set["isAvailable"] = *update.IsAvailable
	}
	if len(set) == 0 {
		return m.GetProduct(ctx, id)
	}

	var p models.Product
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &p, nil
}

func (m *MongoStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := m.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// Seller operations
func (m *MongoStore) CreateSeller(ctx context.Context, seller *models.Seller) (*models.Seller, error) {
	s := *seller
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := m.sellers.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("seller %s: %w", s.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("insert seller: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) GetSeller(ctx context.Context, id string) (*models.Seller, error) {
	var s models.Seller
	err := m.sellers.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get seller: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) ListSellers(ctx context.Context) ([]*models.Seller, error) {
	cursor, err := m.sellers.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sellers: %w", err)
	}
	defer cursor.Close(ctx)

	sellers := make([]*models.Seller, 0)
	if err := cursor.All(ctx, &sellers); err != nil {
		return nil, fmt.Errorf("decode sellers: %w", err)
	}
	return sellers, nil
}

func (m *MongoStore) UpdateSeller(ctx context.Context, id string, update models.SellerUpdate) (*models.Seller, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Location != nil {
		set["location"] = *update.Location
	}
	if update.Active != nil {
		set["active"] = *update.Active
	}

	var s models.Seller
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.sellers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("seller %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update seller: %w", err)
	}
	return &s, nil
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
