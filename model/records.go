package model

import "time"

type ConnectionInfo struct {
	UptimeSeconds    int64
	NetworkAccess    string
	ConnectionStatus string
}

type ConnectionHome struct {
	Online       string
	Status       string
	DownChannels int
	UpChannels   int
}

type ConnectionAddress struct {
	MAC     string
	IPv4    string
	IPv6    string
	Version string
	Result  string
}

type DownstreamChannel struct {
	Channel     int
	ChannelID   int
	LockStatus  string
	Modulation  string
	Frequency   float64
	Power       float64
	SNR         float64
	Corrected   int64
	Uncorrected int64
}

type UpstreamChannel struct {
	Channel     int
	ChannelID   int
	LockStatus  string
	ChannelType string
	SymbolRate  float64
	Frequency   float64
	Power       float64
}

type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// Point is a single time-series sample. Tags carry identity, Fields carry values.
type Point struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]interface{}
	Time        time.Time
}
