// Package cooldown suppresses repeat alerts for an unchanged situation.
//
// An alert is identified by its Key. The Gate decides whether an alert
// should reach the digest, and records it, through a single atomic
// compare-and-set on the Store so concurrent passes never double-alert.
package cooldown

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/waiverintel/internal/domain/model"
)

// Key identifies an alert for suppression purposes.
type Key struct {
	PlayerID string
	Rule     model.RuleID
	Week     int
	Tier     model.Tier
	Band     string
}

// KeyFor builds the key for a priced alert.
func KeyFor(a model.Alert, bid model.BidBand) Key {
	return Key{PlayerID: a.PlayerID, Rule: a.Rule, Week: a.Week, Tier: a.Tier, Band: bid.Band}
}

// Hash returns the stable hex-encoded xxhash64 of the key.
func (k Key) Hash() string {
	d := xxhash.New()
	_, _ = d.WriteString(k.PlayerID)
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(string(k.Rule))
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(strconv.Itoa(k.Week))
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(string(k.Tier))
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(k.Band)
	return strconv.FormatUint(d.Sum64(), 16)
}
