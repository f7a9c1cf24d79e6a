package enrich

// Dedupe collapses the raw trade list into unique fills, keeping the first
// occurrence of each identity key in input order. Pure function, no I/O.
func Dedupe(trades []TradeRecord) []TradeRecord {
	if len(trades) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(trades))
	unique := make([]TradeRecord, 0, len(trades))
	for _, trade := range trades {
		key := trade.IdentityKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, trade)
	}
	return unique
}
