package vouchersvc

import (
	"strings"

	"github.com/dkarlovs/voucherd/internal/models"
)

// Device comment conventions. Voucher accounts are tagged so that an
// operator looking at the device sees what the account is, and so the sync
// worker can recover the password mode for accounts whose ledger row is
// missing.
const (
	commentVoucherTag  = "Type: voucher"
	commentCustomerTag = "Customer: "
	commentSameTag     = "password=same"
	commentBlankTag    = "password=blank"
)

// BuildComment renders the device-side comment for a voucher account.
func BuildComment(customerName string, sameAsCode bool) string {
	parts := []string{commentVoucherTag}
	if customerName != "" {
		parts = append(parts, commentCustomerTag+customerName)
	}
	if sameAsCode {
		parts = append(parts, commentSameTag)
	}
	return strings.Join(parts, " | ")
}

// IsVoucherComment reports whether a device comment carries the voucher tag.
func IsVoucherComment(comment string) bool {
	return strings.Contains(comment, commentVoucherTag)
}

// CommentSaysPasswordSame reports whether the comment records that the
// account password equals the voucher code.
func CommentSaysPasswordSame(comment string) bool {
	return strings.Contains(strings.ToLower(comment), commentSameTag)
}

// CommentPasswordMode recovers the password mode from a device comment for
// an account with no ledger row. An untagged comment means the operator set
// a real password by hand.
func CommentPasswordMode(comment string) models.PasswordMode {
	c := strings.ToLower(comment)
	switch {
	case strings.Contains(c, commentSameTag):
		return models.PasswordSame
	case strings.Contains(c, commentBlankTag) || strings.Contains(c, "blank password"):
		return models.PasswordBlank
	default:
		return models.PasswordCustom
	}
}
