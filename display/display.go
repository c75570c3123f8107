package display

import (
	"context"
	"strconv"
	"time"

	"github.com/swoga/moto-exporter/model"
)

// Renderer draws a titled table.
type Renderer interface {
	Table(title string, header []string, rows [][]string) error
}

// Emitter renders records as tables. Channel lists are shown by channel number
// and logs by timestamp; the slices handed in are left untouched.
type Emitter struct {
	renderer Renderer
}

func NewEmitter(renderer Renderer) *Emitter {
	return &Emitter{renderer: renderer}
}

func (e *Emitter) ConnectionInfo(_ context.Context, info model.ConnectionInfo) error {
	return e.renderer.Table("Connection Info",
		[]string{"Uptime Seconds", "Network Access", "Connection Status"},
		[][]string{{
			strconv.FormatInt(info.UptimeSeconds, 10),
			info.NetworkAccess,
			info.ConnectionStatus,
		}})
}

func (e *Emitter) ConnectionHome(_ context.Context, home model.ConnectionHome) error {
	return e.renderer.Table("Connection Home",
		[]string{"Online", "Status", "Down Channels", "Up Channels"},
		[][]string{{
			home.Online,
			home.Status,
			strconv.Itoa(home.DownChannels),
			strconv.Itoa(home.UpChannels),
		}})
}

func (e *Emitter) ConnectionAddress(_ context.Context, address model.ConnectionAddress) error {
	return e.renderer.Table("Connection Address",
		[]string{"MAC", "IPv4", "IPv6", "Version", "Result"},
		[][]string{{address.MAC, address.IPv4, address.IPv6, address.Version, address.Result}})
}

func (e *Emitter) DownstreamChannels(_ context.Context, channels []model.DownstreamChannel) error {
	rows := make([][]string, 0, len(channels))
	for _, c := range model.SortedDownstreamChannels(channels) {
		rows = append(rows, []string{
			strconv.Itoa(c.Channel),
			c.LockStatus,
			c.Modulation,
			strconv.Itoa(c.ChannelID),
			formatFloat(c.Frequency),
			formatFloat(c.Power),
			formatFloat(c.SNR),
			strconv.FormatInt(c.Corrected, 10),
			strconv.FormatInt(c.Uncorrected, 10),
		})
	}
	return e.renderer.Table("Downstream Channels",
		[]string{"Channel", "Lock Status", "Modulation", "Channel ID", "Frequency", "Power", "SNR", "Corrected", "Uncorrected"},
		rows)
}

func (e *Emitter) UpstreamChannels(_ context.Context, channels []model.UpstreamChannel) error {
	rows := make([][]string, 0, len(channels))
	for _, c := range model.SortedUpstreamChannels(channels) {
		rows = append(rows, []string{
			strconv.Itoa(c.Channel),
			c.LockStatus,
			c.ChannelType,
			strconv.Itoa(c.ChannelID),
			formatFloat(c.SymbolRate),
			formatFloat(c.Frequency),
			formatFloat(c.Power),
		})
	}
	return e.renderer.Table("Upstream Channels",
		[]string{"Channel", "Lock Status", "Channel Type", "Channel ID", "Symbol Rate", "Frequency", "Power"},
		rows)
}

func (e *Emitter) Logs(_ context.Context, entries []model.LogEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, entry := range model.SortedLogEntries(entries) {
		rows = append(rows, []string{
			entry.Timestamp.Format(time.RFC3339),
			entry.Level,
			entry.Message,
		})
	}
	return e.renderer.Table("Logs", []string{"Timestamp", "Level", "Message"}, rows)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Multi renders every table with each renderer in turn.
type Multi []Renderer

func (m Multi) Table(title string, header []string, rows [][]string) error {
	for _, r := range m {
		if err := r.Table(title, header, rows); err != nil {
			return err
		}
	}
	return nil
}
