package service

import (
	"github.com/mlevkov/go-note-sync/internal/config"
	"github.com/mlevkov/go-note-sync/models"
)

// quotaPolicy holds the byte limits applied before any note write. Limits
// scale by the premium multiplier for accounts on the premium tier.
type quotaPolicy struct {
	maxNoteBytes      int64
	maxUserBytes      int64
	premiumMultiplier int64
}

func newQuotaPolicy(cfg config.Quota) quotaPolicy {
	return quotaPolicy{
		maxNoteBytes:      cfg.MaxNoteBytes,
		maxUserBytes:      cfg.MaxUserBytes,
		premiumMultiplier: cfg.PremiumMultiplier,
	}
}

// limitsFor returns the per-note and per-user byte limits for a quota tier.
func (q quotaPolicy) limitsFor(tier string) (noteLimit, userLimit int64) {
	noteLimit, userLimit = q.maxNoteBytes, q.maxUserBytes
	if tier == models.QuotaTierPremium && q.premiumMultiplier > 0 {
		noteLimit *= q.premiumMultiplier
		userLimit *= q.premiumMultiplier
	}
	return noteLimit, userLimit
}

// CalcNewSize computes a note's total byte size after applying the proposed
// items on top of the current ones, and the change against the current size.
// A proposed item replaces the current item of the same type; current items
// the proposal does not touch keep contributing to the new size. Adding the
// delta to a user's stored usage counter keeps it correct without
// re-aggregating.
func CalcNewSize(current map[string]models.NoteItem, proposed []models.NoteItem) (newSize, delta int64) {
	var oldSize int64
	sizes := make(map[string]int64, len(current)+len(proposed))
	for itemType, item := range current {
		oldSize += item.Size()
		sizes[itemType] = item.Size()
	}
	for _, item := range proposed {
		sizes[item.Type] = item.Size()
	}
	for _, size := range sizes {
		newSize += size
	}
	return newSize, newSize - oldSize
}
