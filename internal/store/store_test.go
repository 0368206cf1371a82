package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"primeur_back_end/internal/models"
)

// memKV est un KV en mémoire pour les tests.
type memKV struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", ErrAbsent
	}
	return val, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("écriture refusée")
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func produit(id gocql.UUID, name string, price float64) models.Product {
	return models.Product{ID: id, Name: name, Price: price, Unit: "kg"}
}

func fraises() models.Product {
	id, _ := gocql.ParseUUID("11111111-1111-1111-1111-111111111111")
	return produit(id, "Fraises gariguette", 4.90)
}

func tomates() models.Product {
	id, _ := gocql.ParseUUID("22222222-2222-2222-2222-222222222222")
	return produit(id, "Tomates anciennes", 3.50)
}

const uid = "user-1"

func TestAddToCartNewProduct(t *testing.T) {
	s := New(newMemKV())

	s.AddToCart(uid, fraises())

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, fraises().ID.String(), items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, "Fraises gariguette", items[0].Name)
}

func TestAddToCartIncrementsExistingLine(t *testing.T) {
	s := New(newMemKV())

	s.AddToCart(uid, fraises())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, fraises())

	items := s.CartItems(uid)
	require.Len(t, items, 1, "jamais de ligne dupliquée pour un même produit")
	assert.Equal(t, 3, items[0].Quantity)
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())

	s.UpdateCartItemQuantity(uid, fraises().ID.String(), 7)

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestUpdateQuantityBelowOneRemoves(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, tomates())

	s.UpdateCartItemQuantity(uid, fraises().ID.String(), 0)

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, tomates().ID.String(), items[0].ProductID)
}

func TestUpdateQuantityUnknownProductIsIgnored(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())

	s.UpdateCartItemQuantity(uid, "inconnu", 5)

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestRemoveFromCartAbsentIsNoop(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())

	s.RemoveFromCart(uid, "inconnu")

	assert.Len(t, s.CartItems(uid), 1)
}

func TestClearCart(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, tomates())

	s.ClearCart(uid)

	assert.Empty(t, s.CartItems(uid))
}

func TestPlaceOrder(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, tomates())

	order, ok := s.PlaceOrder(uid)
	require.True(t, ok)

	// Panier vidé, commande en tête de l'historique
	assert.Empty(t, s.CartItems(uid))
	orders := s.Orders(uid)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	assert.Equal(t, StatusProcessing, order.Status)
	assert.Equal(t, DefaultPaymentMethod, order.PaymentMethod)
	assert.InDelta(t, 4.90*2+3.50, order.Total, 1e-9)
	assert.False(t, order.CreatedAt.IsZero())
	require.Len(t, order.Items, 2)

	// L'instantané ne doit pas être aliasé sur le panier courant
	s.AddToCart(uid, fraises())
	s.UpdateCartItemQuantity(uid, fraises().ID.String(), 99)
	got, found := s.Order(uid, order.ID)
	require.True(t, found)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestPlaceOrderEmptyCartIsNoop(t *testing.T) {
	s := New(newMemKV())

	_, ok := s.PlaceOrder(uid)

	assert.False(t, ok)
	assert.Empty(t, s.CartItems(uid))
	assert.Empty(t, s.Orders(uid))
}

func TestOrdersMostRecentFirst(t *testing.T) {
	s := New(newMemKV())

	s.AddToCart(uid, fraises())
	first, ok := s.PlaceOrder(uid)
	require.True(t, ok)

	s.AddToCart(uid, tomates())
	second, ok := s.PlaceOrder(uid)
	require.True(t, ok)

	orders := s.Orders(uid)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestDeleteOrderRemovesExactlyOne(t *testing.T) {
	s := New(newMemKV())
	var ids []string
	for i := 0; i < 3; i++ {
		s.AddToCart(uid, fraises())
		o, _ := s.PlaceOrder(uid)
		ids = append(ids, o.ID)
	}

	s.DeleteOrder(uid, ids[1])

	orders := s.Orders(uid)
	require.Len(t, orders, 2)
	// Ordre relatif des survivantes conservé (plus récente en tête)
	assert.Equal(t, ids[2], orders[0].ID)
	assert.Equal(t, ids[0], orders[1].ID)

	s.DeleteOrder(uid, "inconnu") // silencieux
	assert.Len(t, s.Orders(uid), 2)
}

func TestReorderItemsUnknownOrder(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())

	ok := s.ReorderItems(uid, "inconnu")

	assert.False(t, ok)
	assert.Len(t, s.CartItems(uid), 1, "panier inchangé en cas d'échec")
}

func TestReorderItemsIncrementsPerLine(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, fraises())
	s.AddToCart(uid, tomates())
	order, _ := s.PlaceOrder(uid)

	// Panier reconstruit partiellement avant la recommande
	s.AddToCart(uid, tomates())

	ok := s.ReorderItems(uid, order.ID)
	require.True(t, ok)

	items := s.CartItems(uid)
	require.Len(t, items, 2)
	byID := map[string]int{}
	for _, it := range items {
		byID[it.ProductID] = it.Quantity
	}
	// Chaque ligne de l'instantané vaut un incrément de 1, pas sa quantité
	assert.Equal(t, 1, byID[fraises().ID.String()])
	assert.Equal(t, 2, byID[tomates().ID.String()])
}

func TestReorderItemsCompoundsDuplicateSnapshotLines(t *testing.T) {
	// Un instantané historique peut contenir deux lignes du même produit
	// (données héritées) ; chacune déclenche son propre incrément.
	kv := newMemKV()
	orders := []models.Order{{
		ID:     "o-legacy",
		UserID: uid,
		Items: []models.CartItem{
			{ProductID: "p1", Name: "Poireaux", Price: 2.20, Quantity: 3},
			{ProductID: "p1", Name: "Poireaux", Price: 2.20, Quantity: 1},
		},
		Total:  8.80,
		Status: StatusProcessing,
	}}
	data, err := json.Marshal(orders)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), ordersKeyPrefix+uid, string(data)))

	s := New(kv)
	ok := s.ReorderItems(uid, "o-legacy")
	require.True(t, ok)

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestOrderNoteInstructionsRating(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	order, _ := s.PlaceOrder(uid)

	s.AddOrderNote(uid, order.ID, "Sonner deux fois")
	s.AddDeliveryInstructions(uid, order.ID, "Déposer devant la porte B")
	s.SubmitOrderRating(uid, order.ID, 5)

	got, found := s.Order(uid, order.ID)
	require.True(t, found)
	assert.Equal(t, "Sonner deux fois", got.Note)
	assert.Equal(t, "Déposer devant la porte B", got.DeliveryInstructions)
	assert.Equal(t, 5, got.Rating)

	// Commande inconnue : no-op silencieux
	s.AddOrderNote(uid, "inconnu", "perdu")
	s.SubmitOrderRating(uid, "inconnu", 1)
	assert.Len(t, s.Orders(uid), 1)
}

func TestUpdateOrderStatusStampsKnownStatuses(t *testing.T) {
	s := New(newMemKV())
	s.AddToCart(uid, fraises())
	order, _ := s.PlaceOrder(uid)

	s.UpdateOrderStatus(uid, order.ID, StatusDelivered)

	got, _ := s.Order(uid, order.ID)
	assert.Equal(t, StatusDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)

	// Statut inconnu : stocké tel quel, aucun nouvel horodatage
	s.UpdateOrderStatus(uid, order.ID, "unknown_status")
	got, _ = s.Order(uid, order.ID)
	assert.Equal(t, "unknown_status", got.Status)
	assert.NotNil(t, got.DeliveredAt)
	assert.Nil(t, got.InTransitAt)
	assert.Nil(t, got.CancelledAt)
}

func TestScenarioAddTwicePlaceOrder(t *testing.T) {
	s := New(newMemKV())
	id, _ := gocql.ParseUUID("33333333-3333-3333-3333-333333333333")
	p := produit(id, "Pommes", 2.50)

	s.AddToCart(uid, p)
	s.AddToCart(uid, p)

	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.InDelta(t, 5.00, s.CartTotal(uid), 1e-9)

	order, ok := s.PlaceOrder(uid)
	require.True(t, ok)
	assert.Empty(t, s.CartItems(uid))
	assert.InDelta(t, 5.00, order.Total, 1e-9)
	assert.Equal(t, "Processing", order.Status)
}

func TestRoundTripThroughKV(t *testing.T) {
	kv := newMemKV()
	s := New(kv)

	s.AddToCart(uid, fraises())
	s.AddToCart(uid, tomates())
	s.UpdateCartItemQuantity(uid, tomates().ID.String(), 4)
	s.AddToCart(uid, fraises())
	order, _ := s.PlaceOrder(uid)
	s.AddToCart(uid, fraises())
	s.UpdateOrderStatus(uid, order.ID, StatusInTransit)
	s.Sync()

	// Nouveau processus, même KV : les deux collections sont restaurées.
	// Comparaison sous forme sérialisée (l'horloge monotone de time.Time ne
	// survit pas au JSON).
	reloaded := New(kv)
	assert.Equal(t, s.CartItems(uid), reloaded.CartItems(uid))
	want, err := json.Marshal(s.Orders(uid))
	require.NoError(t, err)
	got, err := json.Marshal(reloaded.Orders(uid))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestMalformedPersistedDataStartsEmpty(t *testing.T) {
	kv := newMemKV()
	require.NoError(t, kv.Set(context.Background(), cartKeyPrefix+uid, "{pas du json"))
	require.NoError(t, kv.Set(context.Background(), ordersKeyPrefix+uid, "42"))

	s := New(kv)

	assert.Empty(t, s.CartItems(uid))
	assert.Empty(t, s.Orders(uid))
}

func TestPersistenceFailureKeepsMemoryState(t *testing.T) {
	kv := newMemKV()
	kv.failSet = true
	s := New(kv)

	s.AddToCart(uid, fraises())
	s.AddToCart(uid, fraises())
	s.Sync()

	// L'échec d'écriture est avalé ; l'état mémoire reste correct
	items := s.CartItems(uid)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	_, ok := s.PlaceOrder(uid)
	assert.True(t, ok)
	assert.Len(t, s.Orders(uid), 1)
}

func TestUsersAreIsolated(t *testing.T) {
	s := New(newMemKV())

	s.AddToCart("alice", fraises())
	s.AddToCart("bruno", tomates())

	require.Len(t, s.CartItems("alice"), 1)
	require.Len(t, s.CartItems("bruno"), 1)
	assert.NotEqual(t, s.CartItems("alice")[0].ProductID, s.CartItems("bruno")[0].ProductID)
}
