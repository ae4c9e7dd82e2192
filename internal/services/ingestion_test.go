package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/whatsapp-storefront/backend/internal/models"
	"github.com/whatsapp-storefront/backend/internal/storage"
)

func TestIngest_RoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewIngestionService(store)
	ctx := context.Background()

	parsed := ParseCommand("/addproduct ₵50 Nice Shirt\nCotton, size M ", 1)
	require.Equal(t, CommandMatched, parsed.Kind)

	created, err := svc.Ingest(ctx, "233241234567", parsed, "https://media.example/img0")
	require.NoError(t, err)

	stored, err := store.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, parsed.Price, stored.Price)
	assert.Equal(t, parsed.Description, stored.Description)
	assert.Equal(t, "233241234567", stored.SellerID)
	assert.Equal(t, "https://media.example/img0", stored.ImageURL)
	assert.False(t, stored.CreatedAt.IsZero())

	// admin-controlled fields keep their defaults
	assert.Empty(t, stored.Status)
	assert.Empty(t, stored.StockStatus)
	assert.False(t, stored.IsAvailable)
	assert.Equal(t, models.ProductStatusUnknown, stored.DisplayStatus())
}

func TestIngest_NotIdempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewIngestionService(store)
	ctx := context.Background()
	parsed := ParseCommand("/addproduct ₵50 Nice Shirt", 1)

	first, err := svc.Ingest(ctx, "233241234567", parsed, "")
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, "233241234567", parsed, "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	products, err := store.ListProductsBySeller(ctx, "233241234567")
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestIngest_StoreFailureIsWrapped(t *testing.T) {
	creator := new(mockProductCreator)
	creator.On("CreateProduct", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	svc := NewIngestionService(creator)
	_, err := svc.Ingest(context.Background(), "233241234567", ParseCommand("/addproduct ₵50 Nice Shirt", 1), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreWrite)
	creator.AssertNumberOfCalls(t, "CreateProduct", 1)
}

func TestIngest_RejectsMissingSellerWithoutWriting(t *testing.T) {
	creator := new(mockProductCreator)
	svc := NewIngestionService(creator)

	_, err := svc.Ingest(context.Background(), "", ParseCommand("/addproduct ₵50 Nice Shirt", 1), "")

	assert.ErrorIs(t, err, models.ErrMissingSeller)
	creator.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestIngest_RejectsUnmatchedResult(t *testing.T) {
	creator := new(mockProductCreator)
	svc := NewIngestionService(creator)

	_, err := svc.Ingest(context.Background(), "233241234567", ParseResult{Kind: CommandMalformed}, "")

	assert.Error(t, err)
	creator.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}
