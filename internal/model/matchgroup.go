package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// MatchGroupID derives the deterministic identity of a match group from
// the free-text identifiers of its contributing detail records. The
// identifiers are deduplicated and sorted before hashing so the id never
// depends on iteration order, and SHA-256 keeps it stable across
// processes. Empty identifiers are discarded; an empty set yields "".
func MatchGroupID(identifiers []string) string {
	uniq := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		if id = strings.TrimSpace(id); id != "" {
			uniq[id] = struct{}{}
		}
	}
	if len(uniq) == 0 {
		return ""
	}

	keys := make([]string, 0, len(uniq))
	for id := range uniq {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	hash := sha256.Sum256([]byte(strings.Join(keys, "\x1f")))
	return fmt.Sprintf("%x", hash)[:16]
}

// DetailGroupIdentifiers collects the group-hash inputs for a set of
// detail records: each record contributes its trade and merchant
// numbers when present.
func DetailGroupIdentifiers(details []*DetailRecord) []string {
	ids := make([]string, 0, len(details)*2)
	for _, d := range details {
		if d.TradeNo != "" {
			ids = append(ids, d.TradeNo)
		}
		if d.MerchantNo != "" {
			ids = append(ids, d.MerchantNo)
		}
	}
	return ids
}
