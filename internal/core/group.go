package core

// ordered is an insertion-ordered map of accumulators. Iteration follows the
// order in which keys were first seen, which gives every ranking its
// first-encountered tie-break.
type ordered[K comparable, V any] struct {
	index  map[K]int
	values []*V
}

func newOrdered[K comparable, V any]() *ordered[K, V] {
	return &ordered[K, V]{index: make(map[K]int)}
}

// get returns the accumulator for k, creating it with init on first sight.
func (o *ordered[K, V]) get(k K, init func() V) *V {
	if i, ok := o.index[k]; ok {
		return o.values[i]
	}
	v := init()
	o.index[k] = len(o.values)
	o.values = append(o.values, &v)
	return &v
}

// list copies the accumulators out in first-seen order.
func (o *ordered[K, V]) list() []V {
	out := make([]V, len(o.values))
	for i, v := range o.values {
		out[i] = *v
	}
	return out
}

// GroupOrders folds line items into orders keyed by OrderID, in the order the
// orders were first seen. Store, timestamps and ID come from the first member;
// Total is the sum of member subtotals.
func GroupOrders(items []LineItem) []Order {
	groups := newOrdered[string, Order]()
	for _, it := range items {
		o := groups.get(it.OrderID, func() Order {
			return Order{
				ID:           it.OrderID,
				StoreName:    it.StoreName,
				CreatedAt:    it.CreatedAt,
				DeliveryTime: it.DeliveryTime,
			}
		})
		o.Items = append(o.Items, it)
		o.Total = o.Total.Add(it.Subtotal)
	}
	return groups.list()
}

// topN returns the first n elements of s, or all of s when shorter.
func topN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
