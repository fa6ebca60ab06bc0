package classify

// Order holds the user's overrides for band nodes: custom display names and
// explicit point order, both keyed by band key so they survive regeneration
// whenever a band with the same boundaries reappears. Manual categories keep
// their name and order in the category itself.
type Order struct {
	names     map[string]string
	bandOrder map[string][]int64
}

// NewOrder returns an empty override set.
func NewOrder() *Order {
	return &Order{
		names:     make(map[string]string),
		bandOrder: make(map[string][]int64),
	}
}

// SetName stores a custom display name for a node key.
func (o *Order) SetName(key, name string) {
	o.names[key] = name
}

// Name returns the custom display name for a node key.
func (o *Order) Name(key string) (string, bool) {
	name, ok := o.names[key]
	return name, ok
}

// SetBandOrder records an explicit point order for a band.
func (o *Order) SetBandOrder(key string, ids []int64) {
	cp := make([]int64, len(ids))
	copy(cp, ids)
	o.bandOrder[key] = cp
}

// Apply orders natural (the band's members in store order) by the saved
// override: ids from the override that are still members come first in
// saved order, the rest follow in natural order.
func (o *Order) Apply(key string, natural []int64) []int64 {
	saved, ok := o.bandOrder[key]
	if !ok || len(saved) == 0 {
		return natural
	}
	member := make(map[int64]bool, len(natural))
	for _, id := range natural {
		member[id] = true
	}
	out := make([]int64, 0, len(natural))
	placed := make(map[int64]bool, len(natural))
	for _, id := range saved {
		if member[id] && !placed[id] {
			out = append(out, id)
			placed[id] = true
		}
	}
	for _, id := range natural {
		if !placed[id] {
			out = append(out, id)
		}
	}
	return out
}

// Forget drops deleted point ids from every saved band order.
func (o *Order) Forget(ids ...int64) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	for key, saved := range o.bandOrder {
		kept := saved[:0]
		for _, id := range saved {
			if !drop[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) == 0 {
			delete(o.bandOrder, key)
			continue
		}
		o.bandOrder[key] = kept
	}
}

// Reset clears all names and orders.
func (o *Order) Reset() {
	o.names = make(map[string]string)
	o.bandOrder = make(map[string][]int64)
}
