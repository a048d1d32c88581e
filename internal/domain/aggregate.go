package domain

// CanonicalizeProducts rewrites product seller references that still use a
// seller's historical auth uid so they point at the canonical seller id.
// It runs once per snapshot load; Aggregate only matches canonical ids.
func CanonicalizeProducts(sellers []Seller, products []Product) []Product {
	canonical := make(map[string]string, len(sellers))
	for _, s := range sellers {
		if s.ID == "" {
			continue
		}
		canonical[s.ID] = s.ID
	}
	for _, s := range sellers {
		if s.AuthUID == "" || s.ID == "" {
			continue
		}
		// A canonical id always wins over another seller's uid.
		if _, taken := canonical[s.AuthUID]; !taken {
			canonical[s.AuthUID] = s.ID
		}
	}

	out := make([]Product, len(products))
	for i, p := range products {
		if id, ok := canonical[p.SellerID]; ok {
			p.SellerID = id
		}
		out[i] = p
	}
	return out
}

// Aggregate produces one SellerStats per seller. Sellers without products
// report zero percent sold. Sellers with an empty id are ignored.
func Aggregate(sellers []Seller, products []Product) []SellerStats {
	type totals struct{ stock, sold int64 }
	bySeller := make(map[string]*totals, len(sellers))
	for _, p := range products {
		if p.SellerID == "" {
			continue
		}
		t, ok := bySeller[p.SellerID]
		if !ok {
			t = &totals{}
			bySeller[p.SellerID] = t
		}
		t.stock += p.Stock
		t.sold += p.Sold
	}

	stats := make([]SellerStats, 0, len(sellers))
	for _, s := range sellers {
		if s.ID == "" {
			continue
		}
		st := SellerStats{SellerID: s.ID}
		if t, ok := bySeller[s.ID]; ok {
			st.TotalStock = t.stock
			st.TotalSold = t.sold
		}
		st.PercentSold = PercentSold(st.TotalSold, st.TotalStock)
		stats = append(stats, st)
	}
	return stats
}

// PercentSold is totalSold/totalStock*100, or zero when there is no stock.
func PercentSold(totalSold, totalStock int64) float64 {
	if totalStock <= 0 {
		return 0
	}
	// Multiply first so exact ratios such as 105/150 land on 70 without drift.
	return float64(totalSold) * 100 / float64(totalStock)
}
