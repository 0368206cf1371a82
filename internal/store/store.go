package store

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"primeur_back_end/internal/models"
)

const (
	cartKeyPrefix   = "cart:"
	ordersKeyPrefix = "orders:"

	// Moyen de paiement appliqué par défaut à la création d'une commande
	DefaultPaymentMethod = "card"
)

// Statuts connus du cycle de vie d'une commande :
// Processing → in_transit → delivered, cancelled atteignable depuis tout
// statut non terminal. Le champ reste une chaîne libre ; un statut inconnu
// est stocké tel quel mais ne tamponne aucun horodatage.
const (
	StatusProcessing = "Processing"
	StatusInTransit  = "in_transit"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Store possède les deux collections (panier, historique de commandes) de
// chaque utilisateur. L'état en mémoire fait autorité pour la session en
// cours : chaque mutation est appliquée de façon synchrone sous verrou, puis
// une écriture complète de la collection est déclenchée en tâche de fond
// (dernière écriture gagnante, échec journalisé puis ignoré).
type Store struct {
	kv KV

	mu     sync.Mutex
	states map[string]*userState

	// File d'écritures drainée par un unique worker : l'ordre d'arrivée
	// en file (sous s.mu) est l'ordre d'application au KV.
	wmu      sync.Mutex
	queue    []writeOp
	draining bool
	writes   sync.WaitGroup
}

type writeOp struct {
	key   string
	value string
	del   bool
}

type userState struct {
	cart   []models.CartItem
	orders []models.Order // invariant : plus récente en tête
}

func New(kv KV) *Store {
	return &Store{
		kv:     kv,
		states: make(map[string]*userState),
	}
}

// state charge paresseusement les collections d'un utilisateur depuis le KV.
// Valeur absente ou illisible → collection vide, jamais d'échec.
// Doit être appelé sous s.mu.
func (s *Store) state(userID string) *userState {
	if st, ok := s.states[userID]; ok {
		return st
	}

	st := &userState{}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if data, err := s.kv.Get(ctx, cartKeyPrefix+userID); err == nil {
		if err := json.Unmarshal([]byte(data), &st.cart); err != nil {
			log.Printf("⚠️ Panier illisible pour %s, on repart à vide: %v", userID, err)
			st.cart = nil
		}
	}
	if data, err := s.kv.Get(ctx, ordersKeyPrefix+userID); err == nil {
		if err := json.Unmarshal([]byte(data), &st.orders); err != nil {
			log.Printf("⚠️ Historique illisible pour %s, on repart à vide: %v", userID, err)
			st.orders = nil
		}
	}

	s.states[userID] = st
	return st
}

// enqueue pousse une opération vers le KV en tâche de fond. L'appelant
// n'attend jamais ; un échec laisse l'état mémoire intact et correct pour la
// session en cours.
func (s *Store) enqueue(op writeOp) {
	s.writes.Add(1)
	s.wmu.Lock()
	s.queue = append(s.queue, op)
	if !s.draining {
		s.draining = true
		go s.drain()
	}
	s.wmu.Unlock()
}

func (s *Store) drain() {
	for {
		s.wmu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.wmu.Unlock()
			return
		}
		op := s.queue[0]
		s.queue = s.queue[1:]
		s.wmu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		var err error
		if op.del {
			err = s.kv.Del(ctx, op.key)
		} else {
			err = s.kv.Set(ctx, op.key, op.value)
		}
		cancel()
		if err != nil {
			log.Printf("❌ Écriture %s échouée (état mémoire conservé): %v", op.key, err)
		}
		s.writes.Done()
	}
}

// persistCart sérialise le panier sous le verrou puis écrit en tâche de fond.
// Un panier vide supprime la clé : absence et vide sont équivalents au rechargement.
func (s *Store) persistCart(userID string, cart []models.CartItem) {
	if len(cart) == 0 {
		s.enqueue(writeOp{key: cartKeyPrefix + userID, del: true})
		return
	}
	data, err := json.Marshal(cart)
	if err != nil {
		log.Printf("❌ Sérialisation panier %s: %v", userID, err)
		return
	}
	s.enqueue(writeOp{key: cartKeyPrefix + userID, value: string(data)})
}

func (s *Store) persistOrders(userID string, orders []models.Order) {
	data, err := json.Marshal(orders)
	if err != nil {
		log.Printf("❌ Sérialisation commandes %s: %v", userID, err)
		return
	}
	s.enqueue(writeOp{key: ordersKeyPrefix + userID, value: string(data)})
}

// Sync attend la fin des écritures en cours. Utilisé à l'arrêt du serveur et
// dans les tests ; les mutations normales ne l'attendent jamais.
func (s *Store) Sync() {
	s.writes.Wait()
}

// addItem incrémente la quantité si la ligne existe, sinon insère à
// quantité 1. Doit être appelé sous s.mu.
func addItem(st *userState, item models.CartItem) {
	for i := range st.cart {
		if st.cart[i].ProductID == item.ProductID {
			st.cart[i].Quantity++
			return
		}
	}
	item.Quantity = 1
	st.cart = append(st.cart, item)
}

// AddToCart ajoute un produit au panier. Ne peut pas échouer.
func (s *Store) AddToCart(userID string, p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	addItem(st, models.CartItem{
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		Unit:      p.Unit,
		ImageURL:  p.ImageURL,
		Organic:   p.Organic,
	})
	s.persistCart(userID, st.cart)
}

// RemoveFromCart retire la ligne du produit ; silencieux si absente.
func (s *Store) RemoveFromCart(userID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	kept := st.cart[:0]
	for _, item := range st.cart {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	st.cart = kept
	s.persistCart(userID, st.cart)
}

// UpdateCartItemQuantity fixe la quantité d'une ligne. Une quantité < 1
// équivaut à RemoveFromCart ; un produit absent est ignoré silencieusement.
func (s *Store) UpdateCartItemQuantity(userID, productID string, quantity int) {
	if quantity < 1 {
		s.RemoveFromCart(userID, productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	for i := range st.cart {
		if st.cart[i].ProductID == productID {
			st.cart[i].Quantity = quantity
			break
		}
	}
	s.persistCart(userID, st.cart)
}

// ClearCart vide le panier inconditionnellement.
func (s *Store) ClearCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	st.cart = nil
	s.persistCart(userID, st.cart)
}

// CartItems renvoie une copie des lignes du panier.
func (s *Store) CartItems(userID string) []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	return append([]models.CartItem(nil), st.cart...)
}

// CartTotal calcule la somme prix × quantité des lignes courantes.
func (s *Store) CartTotal(userID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	total := 0.0
	for _, item := range st.cart {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// PlaceOrder transforme le panier courant en commande : total calculé,
// identifiant frais, statut Processing, copie profonde des lignes, insertion
// en tête de l'historique, puis panier vidé — le tout sous un seul verrou,
// aucun état partiel n'est observable. Panier vide → (zéro, false).
func (s *Store) PlaceOrder(userID string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	if len(st.cart) == 0 {
		return models.Order{}, false
	}

	total := 0.0
	for _, item := range st.cart {
		total += item.Price * float64(item.Quantity)
	}

	order := models.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         append([]models.CartItem(nil), st.cart...),
		Total:         total,
		Status:        StatusProcessing,
		PaymentMethod: DefaultPaymentMethod,
		CreatedAt:     time.Now(),
	}

	st.orders = append([]models.Order{order}, st.orders...)
	st.cart = nil
	s.persistCart(userID, st.cart)
	s.persistOrders(userID, st.orders)

	return order, true
}

// Orders renvoie une copie de l'historique, plus récente en tête.
func (s *Store) Orders(userID string) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	return append([]models.Order(nil), st.orders...)
}

// Order renvoie la commande demandée si elle existe.
func (s *Store) Order(userID, orderID string) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	for _, o := range st.orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return models.Order{}, false
}

// DeleteOrder supprime la commande de l'historique ; silencieux si absente.
func (s *Store) DeleteOrder(userID, orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	kept := st.orders[:0]
	for _, o := range st.orders {
		if o.ID != orderID {
			kept = append(kept, o)
		}
	}
	st.orders = kept
	s.persistOrders(userID, st.orders)
}

// ReorderItems remet les lignes d'une ancienne commande dans le panier, un
// incrément par ligne de l'instantané (un produit déjà présent gagne +1, un
// doublon dans l'instantané se cumule). Renvoie false si la commande est
// introuvable — la seule opération qui remonte l'absence à l'appelant.
func (s *Store) ReorderItems(userID, orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	for _, o := range st.orders {
		if o.ID == orderID {
			for _, item := range o.Items {
				addItem(st, item)
			}
			s.persistCart(userID, st.cart)
			return true
		}
	}
	return false
}

// AddOrderNote attache une note libre à la commande ; silencieux si absente.
func (s *Store) AddOrderNote(userID, orderID, note string) {
	s.mutateOrder(userID, orderID, func(o *models.Order) {
		o.Note = note
	})
}

// AddDeliveryInstructions attache des instructions de livraison.
func (s *Store) AddDeliveryInstructions(userID, orderID, text string) {
	s.mutateOrder(userID, orderID, func(o *models.Order) {
		o.DeliveryInstructions = text
	})
}

// SubmitOrderRating enregistre l'évaluation (1-5) de la commande.
func (s *Store) SubmitOrderRating(userID, orderID string, rating int) {
	s.mutateOrder(userID, orderID, func(o *models.Order) {
		o.Rating = rating
	})
}

// UpdateOrderStatus met à jour le statut et tamponne l'horodatage associé
// pour les statuts connus (comparaison insensible à la casse). Un statut
// inconnu est stocké tel quel, sans horodatage.
func (s *Store) UpdateOrderStatus(userID, orderID, status string) {
	s.mutateOrder(userID, orderID, func(o *models.Order) {
		o.Status = status
		now := time.Now()
		switch strings.ToLower(status) {
		case "processing":
			o.ProcessingAt = &now
		case "in_transit":
			o.InTransitAt = &now
		case "delivered":
			o.DeliveredAt = &now
		case "cancelled":
			o.CancelledAt = &now
		}
	})
}

// mutateOrder applique fn à la commande si elle existe puis persiste
// l'historique. Une commande absente dégrade en no-op silencieux.
func (s *Store) mutateOrder(userID, orderID string, fn func(*models.Order)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	for i := range st.orders {
		if st.orders[i].ID == orderID {
			fn(&st.orders[i])
			s.persistOrders(userID, st.orders)
			return
		}
	}
}
