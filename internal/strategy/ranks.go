package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fadai88/binance-momentum-bot/internal/model"
)

// ErrRankMismatch indicates the two metric orderings cover different symbols.
var ErrRankMismatch = errors.New("rank orderings cover different symbols")

// CombineRanks orders the scanned symbols by momentum return and by
// discreteness, both descending, and sums the two 1-based positions into a
// combined rank per symbol. Equal metric values keep their scan order, so
// tied symbols still receive distinct positions.
func CombineRanks(signals []model.SymbolSignal) (map[string]int, error) {
	byReturn := make([]model.SymbolSignal, len(signals))
	copy(byReturn, signals)
	sort.SliceStable(byReturn, func(i, j int) bool {
		return byReturn[i].Signal.MomentumReturn > byReturn[j].Signal.MomentumReturn
	})

	byDisc := make([]model.SymbolSignal, len(signals))
	copy(byDisc, signals)
	sort.SliceStable(byDisc, func(i, j int) bool {
		return byDisc[i].Signal.Discreteness > byDisc[j].Signal.Discreteness
	})

	returnRank := make(map[string]int, len(signals))
	for i, s := range byReturn {
		returnRank[s.Symbol] = i + 1
	}
	discRank := make(map[string]int, len(signals))
	for i, s := range byDisc {
		discRank[s.Symbol] = i + 1
	}
	if len(returnRank) != len(signals) || len(discRank) != len(signals) {
		return nil, fmt.Errorf("%w: duplicate symbols in scan", ErrRankMismatch)
	}

	combined := make(map[string]int, len(signals))
	for _, s := range signals {
		rr, okReturn := returnRank[s.Symbol]
		dr, okDisc := discRank[s.Symbol]
		if !okReturn || !okDisc {
			return nil, fmt.Errorf("%w: %s missing a rank", ErrRankMismatch, s.Symbol)
		}
		combined[s.Symbol] = rr + dr
	}
	return combined, nil
}

// SelectTop returns the n symbols with the largest combined rank, resolving
// ties by scan order.
func SelectTop(signals []model.SymbolSignal, combined map[string]int, n int) []string {
	ordered := make([]string, len(signals))
	for i, s := range signals {
		ordered[i] = s.Symbol
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return combined[ordered[i]] > combined[ordered[j]]
	})
	if n < 0 {
		n = 0
	}
	if n > len(ordered) {
		n = len(ordered)
	}
	return ordered[:n]
}
