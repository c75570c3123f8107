package collector

import (
	"strconv"
	"time"

	"github.com/swoga/moto-exporter/model"
)

const (
	MeasurementConnectionInfo    = "connection_info"
	MeasurementConnectionHome    = "connection_home"
	MeasurementConnectionAddress = "connection_address"
	MeasurementDownstreamChannel = "downstream_channel"
	MeasurementUpstreamChannel   = "upstream_channel"
	MeasurementLog               = "modem_log"
)

func ConnectionInfoPoint(info model.ConnectionInfo, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementConnectionInfo,
		Tags:        map[string]string{},
		Fields: map[string]interface{}{
			"uptime_seconds":    info.UptimeSeconds,
			"network_access":    info.NetworkAccess,
			"connection_status": info.ConnectionStatus,
		},
		Time: now,
	}
}

func ConnectionHomePoint(home model.ConnectionHome, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementConnectionHome,
		Tags:        map[string]string{},
		Fields: map[string]interface{}{
			"online":        home.Online,
			"status":        home.Status,
			"down_channels": int64(home.DownChannels),
			"up_channels":   int64(home.UpChannels),
		},
		Time: now,
	}
}

func ConnectionAddressPoint(address model.ConnectionAddress, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementConnectionAddress,
		Tags:        map[string]string{},
		Fields: map[string]interface{}{
			"mac":     address.MAC,
			"ipv4":    address.IPv4,
			"ipv6":    address.IPv6,
			"version": address.Version,
			"result":  address.Result,
		},
		Time: now,
	}
}

func DownstreamChannelPoint(channel model.DownstreamChannel, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementDownstreamChannel,
		Tags: map[string]string{
			"channel":     strconv.Itoa(channel.Channel),
			"channel_id":  strconv.Itoa(channel.ChannelID),
			"lock_status": channel.LockStatus,
			"modulation":  channel.Modulation,
		},
		Fields: map[string]interface{}{
			"frequency":   channel.Frequency,
			"power":       channel.Power,
			"snr":         channel.SNR,
			"corrected":   channel.Corrected,
			"uncorrected": channel.Uncorrected,
		},
		Time: now,
	}
}

func UpstreamChannelPoint(channel model.UpstreamChannel, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementUpstreamChannel,
		Tags: map[string]string{
			"channel":      strconv.Itoa(channel.Channel),
			"channel_id":   strconv.Itoa(channel.ChannelID),
			"lock_status":  channel.LockStatus,
			"channel_type": channel.ChannelType,
		},
		Fields: map[string]interface{}{
			"symbol_rate": channel.SymbolRate,
			"frequency":   channel.Frequency,
			"power":       channel.Power,
		},
		Time: now,
	}
}

// LogEntryPoint keeps the entry's own time as a field; the point is stamped with now.
func LogEntryPoint(entry model.LogEntry, now time.Time) model.Point {
	return model.Point{
		Measurement: MeasurementLog,
		Tags: map[string]string{
			"level": entry.Level,
		},
		Fields: map[string]interface{}{
			"message":   entry.Message,
			"timestamp": entry.Timestamp.UTC().Format(time.RFC3339),
		},
		Time: now,
	}
}
