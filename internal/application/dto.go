package application

import (
	"time"

	"github.com/google/uuid"
	"onsalenow.io/analytics/internal/domain"
)

// Trigger names the orchestration boundary that started a pass.
type Trigger string

const (
	TriggerViewLoad    Trigger = "view_load"
	TriggerViewRefresh Trigger = "view_refresh"
	TriggerManual      Trigger = "manual"
	TriggerEvent       Trigger = "snapshot_event"
)

// Failure stages reported per seller.
const (
	StageClaim  = "claim"
	StageSend   = "send"
	StageOutbox = "outbox"
	StageFlag   = "flag"
)

// SellerFailure names one seller whose notice could not be completed.
type SellerFailure struct {
	SellerID string      `json:"sellerId"`
	Tier     domain.Tier `json:"tier"`
	Stage    string      `json:"stage"`
	Error    string      `json:"error"`
}

// PassResult is the operator-facing outcome of one evaluation pass.
type PassResult struct {
	PassID     uuid.UUID `json:"passId"`
	Trigger    Trigger   `json:"trigger"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMS int64     `json:"durationMs"`

	Evaluated      int `json:"evaluated"`
	Eligible       int `json:"eligible"`
	Sent           int `json:"sent"`
	Repaired       int `json:"repaired"`
	Held           int `json:"held"`
	SkippedNoEmail int `json:"skippedNoEmail"`

	Notices  []domain.NotificationEvent `json:"notices"`
	Failures []SellerFailure            `json:"failures"`
	Status   string                     `json:"status"`
}

// SellerRow is one line of the seller inventory table.
type SellerRow struct {
	SellerID        string  `json:"sellerId"`
	Label           string  `json:"label"`
	Email           string  `json:"email,omitempty"`
	TotalStock      int64   `json:"totalStock"`
	TotalSold       int64   `json:"totalSold"`
	PercentSold     float64 `json:"percentSold"`
	PercentLabel    string  `json:"percentLabel"`
	PaymentRequired bool    `json:"paymentRequired"`
	SentFifty       bool    `json:"sentFiftyPercentNotice"`
	SentSeventy     bool    `json:"sentSeventyPercentNotice"`
}

// NameCount is a label with an aggregate count, used for chart slices.
type NameCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Dashboard is the admin analytics view.
type Dashboard struct {
	TopBrands           []NameCount `json:"topBrands"`
	TopCategories       []NameCount `json:"topCategories"`
	OrderStatus         []NameCount `json:"orderStatus"`
	Sellers             []SellerRow `json:"sellers"`
	NeedingNotification []SellerRow `json:"needingNotification"`
	Pass                *PassResult `json:"pass,omitempty"`
	PassError           string      `json:"passError,omitempty"`
}

// TestSellerInput describes a synthetic seller for admin testing.
type TestSellerInput struct {
	Email           string  `json:"email"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	BrandName       string  `json:"brandName"`
	Percentage      float64 `json:"percentage"`
	StockPerProduct int64   `json:"stockPerProduct"`
}

// TestSellerResult reports what seeding did.
type TestSellerResult struct {
	SellerID        string `json:"sellerId"`
	Action          string `json:"action"`
	ProductsTouched int    `json:"productsTouched"`
	SoldPerProduct  int64  `json:"soldPerProduct"`
	TotalStock      int64  `json:"totalStock"`
	TotalSold       int64  `json:"totalSold"`
	PercentLabel    string `json:"percentSold"`
}
