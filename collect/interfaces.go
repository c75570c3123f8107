package collect

import (
	"context"

	"github.com/swoga/moto-exporter/model"
)

// Device returns raw field maps from the modem.
type Device interface {
	Login(ctx context.Context) error
	GetConnectionInfo(ctx context.Context) (model.Raw, error)
	GetConnectionHome(ctx context.Context) (model.Raw, error)
	GetConnectionAddress(ctx context.Context) (model.Raw, error)
	GetDownstreamChannels(ctx context.Context) ([]model.Raw, error)
	GetUpstreamChannels(ctx context.Context) ([]model.Raw, error)
	GetLogs(ctx context.Context) ([]model.Raw, error)
}

// Emitter receives parsed records, either to ingest or to display them.
// Implementations must not modify the records they are handed.
type Emitter interface {
	ConnectionInfo(ctx context.Context, info model.ConnectionInfo) error
	ConnectionHome(ctx context.Context, home model.ConnectionHome) error
	ConnectionAddress(ctx context.Context, address model.ConnectionAddress) error
	DownstreamChannels(ctx context.Context, channels []model.DownstreamChannel) error
	UpstreamChannels(ctx context.Context, channels []model.UpstreamChannel) error
	Logs(ctx context.Context, entries []model.LogEntry) error
}

// Observer is notified around every step, used for interactive progress.
type Observer interface {
	StepStarted(step Step)
	StepFinished(result StepResult)
}

type noopObserver struct{}

func (noopObserver) StepStarted(Step)        {}
func (noopObserver) StepFinished(StepResult) {}
