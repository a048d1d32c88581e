package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"onsalenow.io/analytics/internal/domain"
	"onsalenow.io/analytics/internal/messages"
)

const topN = 3

// LoadDashboard builds the admin analytics view. Every load is also an
// evaluation trigger: the snapshot read under the pass locks feeds both the
// pass and the tables. A pass refused by the lease is reported in PassError;
// the dashboard is then built from a plain read.
func (s *Service) LoadDashboard(ctx context.Context, trigger Trigger) (*Dashboard, error) {
	d := &Dashboard{}
	pass, snap, err := s.runPass(ctx, trigger)
	switch {
	case errors.Is(err, ErrPassInProgress):
		d.PassError = messages.StatusPassRunning
		if snap, err = s.loadSnapshot(ctx); err != nil {
			return nil, err
		}
	case err != nil:
		log.Error().Err(err).Str("trigger", string(trigger)).Msg("evaluation pass failed")
		return nil, err
	default:
		d.Pass = pass
	}

	orderDocs, err := s.store.ReadAll(ctx, domain.CollectionOrders)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	d.TopBrands = topSold(snap.products, func(p domain.Product) string { return p.Brand })
	d.TopCategories = topSold(snap.products, func(p domain.Product) string { return p.Category })
	d.OrderStatus = orderStatusCounts(orderDocs)

	// Rows reflect flags written by the pass that just ran.
	d.Sellers = sellerRows(snap, pass)
	for _, row := range d.Sellers {
		if row.PercentSold >= domain.FiftyPercentThreshold {
			d.NeedingNotification = append(d.NeedingNotification, row)
		}
	}
	if d.NeedingNotification == nil {
		d.NeedingNotification = []SellerRow{}
	}
	return d, nil
}

// SellerTable returns the seller inventory table without running a pass.
func (s *Service) SellerTable(ctx context.Context) ([]SellerRow, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return sellerRows(snap, nil), nil
}

func sellerRows(snap *snapshot, pass *PassResult) []SellerRow {
	sellers := make(map[string]domain.Seller, len(snap.sellers))
	for _, sl := range snap.sellers {
		sellers[sl.ID] = sl
	}
	fired := map[string]domain.Tier{}
	if pass != nil {
		for _, n := range pass.Notices {
			fired[n.SellerID] = n.Tier
		}
	}

	rows := make([]SellerRow, 0, len(snap.stats))
	for _, st := range snap.stats {
		sl := sellers[st.SellerID]
		row := SellerRow{
			SellerID:        st.SellerID,
			Label:           sellerLabel(sl),
			Email:           sl.Email,
			TotalStock:      st.TotalStock,
			TotalSold:       st.TotalSold,
			PercentSold:     st.PercentSold,
			PercentLabel:    messages.FormatPercent(st.PercentSold),
			PaymentRequired: st.PercentSold >= domain.SeventyPercentThreshold,
			SentFifty:       sl.SentFiftyPercentNotice,
			SentSeventy:     sl.SentSeventyPercentNotice,
		}
		switch fired[st.SellerID] {
		case domain.TierFifty:
			row.SentFifty = true
		case domain.TierSeventy:
			row.SentSeventy = true
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PercentSold != rows[j].PercentSold {
			return rows[i].PercentSold > rows[j].PercentSold
		}
		return rows[i].SellerID < rows[j].SellerID
	})
	return rows
}

func sellerLabel(s domain.Seller) string {
	if s.BrandName != "" {
		return s.BrandName
	}
	if name := strings.TrimSpace(s.FirstName + " " + s.LastName); name != "" {
		return name
	}
	if s.Email != "" {
		return s.Email
	}
	return s.ID
}

// topSold sums units sold per key and keeps the three largest. Products
// without a key are ignored.
func topSold(products []domain.Product, key func(domain.Product) string) []NameCount {
	totals := map[string]int64{}
	for _, p := range products {
		if k := key(p); k != "" {
			totals[k] += p.Sold
		}
	}
	out := sortedCounts(totals)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func orderStatusCounts(orders map[string]domain.Record) []NameCount {
	counts := map[string]int64{}
	for _, o := range orders {
		status := o.String("status")
		if status == "" {
			status = "unknown"
		}
		counts[status]++
	}
	return sortedCounts(counts)
}

func sortedCounts(m map[string]int64) []NameCount {
	out := make([]NameCount, 0, len(m))
	for name, v := range m {
		out = append(out, NameCount{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
