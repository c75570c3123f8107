package model

import "sort"

// SortedDownstreamChannels returns a copy ordered by channel number.
func SortedDownstreamChannels(channels []DownstreamChannel) []DownstreamChannel {
	sorted := append([]DownstreamChannel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Channel < sorted[j].Channel
	})
	return sorted
}

// SortedUpstreamChannels returns a copy ordered by channel number.
func SortedUpstreamChannels(channels []UpstreamChannel) []UpstreamChannel {
	sorted := append([]UpstreamChannel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Channel < sorted[j].Channel
	})
	return sorted
}

// SortedLogEntries returns a copy ordered by timestamp, oldest first.
func SortedLogEntries(entries []LogEntry) []LogEntry {
	sorted := append([]LogEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
