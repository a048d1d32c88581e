package messages

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatPercent renders a percentage at one decimal, dropping a trailing ".0".
func FormatPercent(p float64) string {
	return strconv.FormatFloat(math.Round(p*10)/10, 'f', -1, 64)
}

// noticePercent truncates to one decimal so a notice never quotes a
// threshold the seller has not reached yet (69.96 reads "69.9", not "70").
func noticePercent(p float64) string {
	return strconv.FormatFloat(math.Floor(p*10+1e-9)/10, 'f', -1, 64)
}

// ─── Notice builders ─────────────────────────────────────────────────────────

func SeventyPercentNotice(displayName string, percentSold float64) (string, string) {
	pct := noticePercent(percentSold)
	return fmt.Sprintf(SellThroughSubject, pct), fmt.Sprintf(SeventyPercentBody, displayName, pct)
}

func FiftyPercentNotice(displayName string, percentSold float64) (string, string) {
	pct := noticePercent(percentSold)
	return fmt.Sprintf(SellThroughSubject, pct), fmt.Sprintf(FiftyPercentBody, displayName, pct)
}

// ─── Status builders ─────────────────────────────────────────────────────────

// PassStatus builds the operator-facing banner for a finished pass.
// failed lists the seller ids whose send or flag write failed.
func PassStatus(sent int, failed []string) string {
	var status string
	if sent > 0 {
		status = fmt.Sprintf(StatusSent, sent)
	} else {
		status = StatusNoneSent
	}
	if len(failed) > 0 {
		status += fmt.Sprintf(StatusFailures, len(failed), strings.Join(failed, ", "))
	}
	return status
}
