package domain

// Tier is the sell-through bracket that selects notice content and the flag it sets.
type Tier string

const (
	TierFifty   Tier = "FIFTY"
	TierSeventy Tier = "SEVENTY"
)

// Threshold percentages for each tier.
const (
	FiftyPercentThreshold   = 50.0
	SeventyPercentThreshold = 70.0
)

// Persisted flag field names on seller documents.
const (
	FieldSentFifty   = "sentFiftyPercentNotice"
	FieldSentSeventy = "sentSeventyPercentNotice"

	// Historical names written by the first admin console. Read-only aliases.
	legacyFieldFifty   = "isFiftyPercentEmail"
	legacyFieldSeventy = "isSeventyPercentEmail"
)

// FlagField returns the seller document field recording that the tier's notice was sent.
func (t Tier) FlagField() string {
	switch t {
	case TierFifty:
		return FieldSentFifty
	case TierSeventy:
		return FieldSentSeventy
	}
	return ""
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t == TierFifty || t == TierSeventy
}

// Seller is the identity and notification state of a seller account.
type Seller struct {
	// ID is the canonical key of the seller document.
	ID string `json:"id"`
	// AuthUID is the historical auth-issued identifier some products still reference.
	AuthUID   string `json:"uid,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	BrandName string `json:"brandName,omitempty"`

	SentFiftyPercentNotice   bool `json:"sentFiftyPercentNotice"`
	SentSeventyPercentNotice bool `json:"sentSeventyPercentNotice"`
}

// DisplayName personalises notices: first name, then brand name, then "Seller".
func (s Seller) DisplayName() string {
	if s.FirstName != "" {
		return s.FirstName
	}
	if s.BrandName != "" {
		return s.BrandName
	}
	return "Seller"
}

// NoticeSent reports whether the tier's flag is already set.
func (s Seller) NoticeSent(t Tier) bool {
	switch t {
	case TierFifty:
		return s.SentFiftyPercentNotice
	case TierSeventy:
		return s.SentSeventyPercentNotice
	}
	return false
}

// Product is a sales unit belonging to exactly one seller.
type Product struct {
	ID       string `json:"id"`
	SellerID string `json:"sellerId"`
	Stock    int64  `json:"stock"`
	Sold     int64  `json:"sold"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// SellerStats is derived per evaluation and never persisted.
type SellerStats struct {
	SellerID    string  `json:"sellerId"`
	TotalStock  int64   `json:"totalStock"`
	TotalSold   int64   `json:"totalSold"`
	PercentSold float64 `json:"percentSold"`
}

// NotificationEvent is produced by the engine and consumed once by the notifier.
type NotificationEvent struct {
	SellerID    string  `json:"sellerId"`
	Email       string  `json:"email"`
	PercentSold float64 `json:"percentSold"`
	Tier        Tier    `json:"tier"`
	Subject     string  `json:"subject"`
	Message     string  `json:"message"`
}

// DecideTier applies the threshold rules in priority order. At most one tier
// is returned per evaluation; a seller at or above 70% never gets FIFTY.
func DecideTier(s Seller, percentSold float64) (Tier, bool) {
	switch {
	case percentSold >= SeventyPercentThreshold:
		if !s.SentSeventyPercentNotice {
			return TierSeventy, true
		}
	case percentSold >= FiftyPercentThreshold:
		if !s.SentFiftyPercentNotice {
			return TierFifty, true
		}
	}
	return "", false
}
