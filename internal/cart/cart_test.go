package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/znasser/storefront/internal/models"
)

type memStorage struct {
	data map[string]string
	sets int
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string]string{}}
}

func (m *memStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStorage) Set(_ context.Context, key, value string) error {
	m.sets++
	m.data[key] = value
	return nil
}

func testProduct() models.Product {
	return models.Product{
		ID:     1,
		Name:   "Linen Shirt",
		Price:  10,
		Images: []string{"shirt.jpg"},
		Colors: []string{"Black", "White"},
		Sizes:  []string{"S", "M", "L"},
	}
}

func newTestStore(t *testing.T) (*Store, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	s, err := NewStore(context.Background(), storage, "cart:test")
	require.NoError(t, err)
	return s, storage
}

func requireTotals(t *testing.T, s *Store) {
	t.Helper()
	snap := s.Snapshot()
	var items uint
	var price float64
	for _, l := range snap.Items {
		items += l.Quantity
		price += float64(l.Quantity) * l.UnitPrice
	}
	require.Equal(t, items, snap.TotalItems)
	require.InDelta(t, price, snap.TotalPrice, 1e-9)
}

func TestAddItemAccumulatesSameVariant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 2))
	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	require.Equal(t, uint(3), snap.Items[0].Quantity)
	require.Equal(t, uint(3), snap.TotalItems)
	require.InDelta(t, 30.0, snap.TotalPrice, 1e-9)
}

func TestAddItemDistinctVariantsKeepSeparateLines(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))
	require.NoError(t, s.AddItem(ctx, testProduct(), "White", "M", 1))
	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "L", 1))

	snap := s.Snapshot()
	require.Len(t, snap.Items, 3)
	require.Equal(t, uint(3), snap.TotalItems)
	requireTotals(t, s)
}

func TestAddItemValidation(t *testing.T) {
	s, storage := newTestStore(t)
	ctx := context.Background()

	require.ErrorIs(t, s.AddItem(ctx, testProduct(), "", "M", 1), ErrValidation)
	require.ErrorIs(t, s.AddItem(ctx, testProduct(), "Black", "", 1), ErrValidation)
	require.ErrorIs(t, s.AddItem(ctx, testProduct(), "Black", "M", 0), ErrValidation)

	require.Empty(t, s.Snapshot().Items)
	require.Zero(t, storage.sets, "rejected add must not persist")
}

func TestRemoveItem(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 2))
	require.NoError(t, s.RemoveItem(ctx, LineID(1, "Black", "M")))

	snap := s.Snapshot()
	require.Empty(t, snap.Items)
	require.Zero(t, snap.TotalItems)
	require.Zero(t, snap.TotalPrice)
}

func TestRemoveUnknownLineIsNoop(t *testing.T) {
	s, storage := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))
	before := storage.sets

	require.NoError(t, s.RemoveItem(ctx, "999|Red|XL"))
	require.Len(t, s.Snapshot().Items, 1)
	require.Equal(t, before, storage.sets)
}

func TestIncrementAndDecrement(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := LineID(1, "Black", "M")

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))
	require.NoError(t, s.IncrementQuantity(ctx, id))
	require.Equal(t, uint(2), s.GetQuantity(1, "Black", "M"))
	requireTotals(t, s)

	require.NoError(t, s.DecrementQuantity(ctx, id))
	require.Equal(t, uint(1), s.GetQuantity(1, "Black", "M"))
	requireTotals(t, s)
}

func TestDecrementFloorsAtOne(t *testing.T) {
	s, storage := newTestStore(t)
	ctx := context.Background()
	id := LineID(1, "Black", "M")

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))
	before := storage.sets

	require.NoError(t, s.DecrementQuantity(ctx, id))
	require.Equal(t, uint(1), s.GetQuantity(1, "Black", "M"))
	require.Len(t, s.Snapshot().Items, 1, "decrement must never remove a line")
	require.Equal(t, before, storage.sets)
}

func TestClear(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 4))
	require.NoError(t, s.Clear(ctx))

	snap := s.Snapshot()
	require.Empty(t, snap.Items)
	require.Zero(t, snap.TotalItems)
	require.Zero(t, snap.TotalPrice)
}

func TestLoadRecomputesCorruptedTotals(t *testing.T) {
	s, _ := newTestStore(t)

	s.Load(State{
		Items: []Line{
			{LineID: "1|Black|M", ProductID: 1, UnitPrice: 12.5, Quantity: 3},
		},
		TotalItems: 99,
		TotalPrice: 1.0,
	})

	snap := s.Snapshot()
	require.Equal(t, uint(3), snap.TotalItems)
	require.InDelta(t, 37.5, snap.TotalPrice, 1e-9)
}

func TestNewStoreRestoresPersistedSnapshot(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()

	first, err := NewStore(ctx, storage, "cart:s1")
	require.NoError(t, err)
	require.NoError(t, first.AddItem(ctx, testProduct(), "Black", "M", 2))

	second, err := NewStore(ctx, storage, "cart:s1")
	require.NoError(t, err)
	require.Equal(t, first.Snapshot(), second.Snapshot())
	requireTotals(t, second)
}

func TestWriteThroughOnEveryMutation(t *testing.T) {
	s, storage := newTestStore(t)
	ctx := context.Background()
	id := LineID(1, "Black", "M")

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 1))
	require.NoError(t, s.IncrementQuantity(ctx, id))
	require.NoError(t, s.DecrementQuantity(ctx, id))
	require.NoError(t, s.RemoveItem(ctx, id))
	require.NoError(t, s.Clear(ctx))

	require.Equal(t, 5, storage.sets)
}

func TestLookups(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, testProduct(), "Black", "M", 2))

	require.True(t, s.IsInCart(1, "Black", "M"))
	require.False(t, s.IsInCart(1, "White", "M"))
	require.Equal(t, uint(2), s.GetQuantity(1, "Black", "M"))
	require.Zero(t, s.GetQuantity(2, "Black", "M"))
}
