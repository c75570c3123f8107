package model

import (
	"errors"
	"math"
	"strconv"
	"time"
)

// Raw is a field map as returned by the modem for a single response or list item.
type Raw map[string]string

const (
	logDateLayout = "Mon Jan 02 2006"
	logTimeLayout = "15:04:05"
)

var errNegative = errors.New("value must not be negative")
var errNotFinite = errors.New("value must be finite")

// fieldReader reads required keys from a raw map and keeps the first failure,
// so a parser either returns a fully populated record or an error.
type fieldReader struct {
	kind Kind
	raw  Raw
	err  error
}

func (r *fieldReader) lookup(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	value, ok := r.raw[key]
	if !ok {
		r.err = &ParseError{Kind: r.kind, Key: key}
		return "", false
	}
	return value, true
}

func (r *fieldReader) fail(key string, err error) {
	r.err = &ParseError{Kind: r.kind, Key: key, Err: err}
}

func (r *fieldReader) text(key string) string {
	value, _ := r.lookup(key)
	return value
}

func (r *fieldReader) integer(key string) int {
	value, ok := r.lookup(key)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, err)
		return 0
	}
	return i
}

func (r *fieldReader) count(key string) int64 {
	value, ok := r.lookup(key)
	if !ok {
		return 0
	}
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.fail(key, err)
		return 0
	}
	if i < 0 {
		r.fail(key, errNegative)
		return 0
	}
	return i
}

func (r *fieldReader) number(key string) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, err)
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		r.fail(key, errNotFinite)
		return 0
	}
	return f
}

const uptimeKey = "MotoConnSystemUpTime"

func ParseConnectionInfo(raw Raw) (ConnectionInfo, error) {
	r := fieldReader{kind: KindConnectionInfo, raw: raw}
	uptime := r.text(uptimeKey)
	info := ConnectionInfo{
		NetworkAccess:    r.text("MotoConnNetworkAccess"),
		ConnectionStatus: r.text("GetMotoStatusConnectionInfoResult"),
	}
	if r.err != nil {
		return ConnectionInfo{}, r.err
	}

	seconds, err := ParseUptime(uptime)
	if err != nil {
		return ConnectionInfo{}, err
	}
	info.UptimeSeconds = seconds
	return info, nil
}

func ParseConnectionHome(raw Raw) (ConnectionHome, error) {
	r := fieldReader{kind: KindConnectionHome, raw: raw}
	home := ConnectionHome{
		Online:       r.text("MotoHomeOnline"),
		Status:       r.text("GetHomeConnectionResult"),
		DownChannels: int(r.count("MotoHomeDownNum")),
		UpChannels:   int(r.count("MotoHomeUpNum")),
	}
	if r.err != nil {
		return ConnectionHome{}, r.err
	}
	return home, nil
}

func ParseConnectionAddress(raw Raw) (ConnectionAddress, error) {
	r := fieldReader{kind: KindConnectionAddress, raw: raw}
	address := ConnectionAddress{
		MAC:     r.text("MotoHomeMacAddress"),
		IPv4:    r.text("MotoHomeIpAddress"),
		IPv6:    r.text("MotoHomeIpv6Address"),
		Version: r.text("MotoHomeSfVer"),
		Result:  r.text("GetHomeAddressResult"),
	}
	if r.err != nil {
		return ConnectionAddress{}, r.err
	}
	return address, nil
}

func ParseDownstreamChannel(raw Raw) (DownstreamChannel, error) {
	r := fieldReader{kind: KindDownstreamChannel, raw: raw}
	channel := DownstreamChannel{
		Channel:     r.integer("Channel"),
		LockStatus:  r.text("LockStatus"),
		Modulation:  r.text("Modulation"),
		ChannelID:   r.integer("ChannelID"),
		Frequency:   r.number("Frequency"),
		Power:       r.number("Power"),
		SNR:         r.number("SNR"),
		Corrected:   r.count("Corrected"),
		Uncorrected: r.count("Uncorrected"),
	}
	if r.err != nil {
		return DownstreamChannel{}, r.err
	}
	return channel, nil
}

func ParseUpstreamChannel(raw Raw) (UpstreamChannel, error) {
	r := fieldReader{kind: KindUpstreamChannel, raw: raw}
	channel := UpstreamChannel{
		Channel:     r.integer("Channel"),
		LockStatus:  r.text("LockStatus"),
		ChannelType: r.text("ChannelType"),
		ChannelID:   r.integer("ChannelID"),
		SymbolRate:  r.number("SymbolRate"),
		Frequency:   r.number("Frequency"),
		Power:       r.number("Power"),
	}
	if r.err != nil {
		return UpstreamChannel{}, r.err
	}
	return channel, nil
}

// ParseLogEntry combines the Date and Time cells of a log row into a UTC timestamp.
func ParseLogEntry(raw Raw) (LogEntry, error) {
	r := fieldReader{kind: KindLogEntry, raw: raw}
	clock := r.text("Time")
	date := r.text("Date")
	entry := LogEntry{
		Level:   r.text("Level"),
		Message: r.text("Message"),
	}
	if r.err != nil {
		return LogEntry{}, r.err
	}

	day, err := time.ParseInLocation(logDateLayout, date, time.UTC)
	if err != nil {
		return LogEntry{}, &ParseError{Kind: KindLogEntry, Key: "Date", Err: err}
	}
	tod, err := time.ParseInLocation(logTimeLayout, clock, time.UTC)
	if err != nil {
		return LogEntry{}, &ParseError{Kind: KindLogEntry, Key: "Time", Err: err}
	}
	entry.Timestamp = time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), tod.Second(), 0, time.UTC)
	return entry, nil
}

// ParseDownstreamChannels parses every item or none.
func ParseDownstreamChannels(raws []Raw) ([]DownstreamChannel, error) {
	channels := make([]DownstreamChannel, 0, len(raws))
	for _, raw := range raws {
		channel, err := ParseDownstreamChannel(raw)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// ParseUpstreamChannels parses every item or none.
func ParseUpstreamChannels(raws []Raw) ([]UpstreamChannel, error) {
	channels := make([]UpstreamChannel, 0, len(raws))
	for _, raw := range raws {
		channel, err := ParseUpstreamChannel(raw)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// ParseLogEntries parses every item or none.
func ParseLogEntries(raws []Raw) ([]LogEntry, error) {
	entries := make([]LogEntry, 0, len(raws))
	for _, raw := range raws {
		entry, err := ParseLogEntry(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
