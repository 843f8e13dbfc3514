package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/jgoulah/gridprofile/internal/analysis"
	"github.com/jgoulah/gridprofile/pkg/models"
)

// Fingerprint hashes everything a profile depends on: the period-sorted
// (period, kWh) pairs, the requested window and the analysis configuration.
// Record order in the request does not matter.
func Fingerprint(cfg analysis.Config, records []models.UsageRecord, window *models.Window) string {
	sorted := make([]models.UsageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period.Index() < sorted[j].Period.Index()
	})

	h := sha256.New()
	for _, r := range sorted {
		h.Write([]byte(r.Period.String()))
		h.Write([]byte{'='})
		h.Write(strconv.AppendFloat(nil, r.KWh, 'g', -1, 64))
		h.Write([]byte{';'})
	}
	h.Write([]byte("|window="))
	if window != nil {
		h.Write([]byte(window.Start.String() + ".." + window.End.String()))
	}
	h.Write([]byte("|config=" + cfg.Fingerprint()))
	return hex.EncodeToString(h.Sum(nil))
}

// Key derives the cache key for a user's input fingerprint
func Key(userID, fingerprint string) string {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	return "profile:" + hex.EncodeToString(h.Sum(nil))
}
