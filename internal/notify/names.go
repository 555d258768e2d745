package notify

import "context"

// firstNameCounts tallies how often each first name occurs among the distinct
// participants of a conversation. A line author whose first name occurs more
// than once is ambiguous and must be rendered with the full name instead.
// The self participant is counted at most once even if the store returns it
// multiple times.
func firstNameCounts(ctx context.Context, store MessageStore, conversationID string) (map[string]int, error) {
	participants, err := store.Participants(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(participants))
	seenSelf := false
	for _, p := range participants {
		if p.IsSelf {
			if seenSelf {
				continue
			}
			seenSelf = true
		}
		if p.FirstName == "" {
			continue
		}
		counts[p.FirstName]++
	}
	return counts, nil
}

// nameResolver caches the first-name counts of the conversation currently
// being scanned. The cache lives for a single aggregation pass and is
// invalidated whenever the conversation id changes mid-scan; there is no
// cross-cycle caching.
type nameResolver struct {
	store          MessageStore
	conversationID string
	counts         map[string]int
}

func (r *nameResolver) countsFor(ctx context.Context, conversationID string) (map[string]int, error) {
	if r.conversationID != conversationID || r.counts == nil {
		counts, err := firstNameCounts(ctx, r.store, conversationID)
		if err != nil {
			return nil, err
		}
		r.conversationID = conversationID
		r.counts = counts
	}
	return r.counts, nil
}
