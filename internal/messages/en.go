package messages

// ─── Seller sell-through notices ─────────────────────────────────────────────

const (
	SellThroughSubject = "OnSaleNow - Account Alert (%s%% Sold)"

	SeventyPercentBody = "Dear %s,\n\nYour account has reached %s%% sold. Please pay the amount to continue selling on our platform.\n\nBest regards,\nOnSaleNow Team"

	FiftyPercentBody = "Dear %s,\n\nYour account has reached above %s%% sold. Please monitor your sales and consider payment when you reach 70%%.\n\nBest regards,\nOnSaleNow Team"
)

// ─── Operator status banners ─────────────────────────────────────────────────

const (
	StatusSent        = "Automatically sent %d email notification(s) for threshold alerts."
	StatusNoneSent    = "No emails sent - all thresholds already handled or no qualifying sellers."
	StatusFailures    = " %d seller(s) failed: %s."
	StatusPassRunning = "An evaluation pass is already running; try again shortly."
)
