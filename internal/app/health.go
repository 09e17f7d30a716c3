package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/Speshl/gorrc_drive/internal/models"
	"github.com/Speshl/gorrc_drive/internal/vehicle/minicar"
	"github.com/prometheus/procfs"
	"github.com/rs/zerolog/log"
)

func selfNetDev() (procfs.NetDev, error) {
	p, err := procfs.Self()
	if err != nil {
		return nil, fmt.Errorf("error: procfs could not get process: %w", err)
	}
	netDev, err := p.NetDev()
	if err != nil {
		return nil, fmt.Errorf("error: failed getting netstat: %w", err)
	}
	return netDev, nil
}

// healthCheck reports link stats and car state on every tick and forwards
// them to the relay when one is connected.
func (a *App) healthCheck(ctx context.Context) error {
	interval := a.cfg.HealthCfg.Interval
	if interval <= 0 {
		interval = config.DefaultHealthInterval
	}
	healthTicker := time.NewTicker(interval)
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("health checker stopped")
			return ctx.Err()
		case <-healthTicker.C:
			health := a.health()
			log.Debug().Interface("health", health).Msg("healthcheck: healthy")

			if a.client != nil {
				encodedMsg, err := encode(health)
				if err != nil {
					log.Warn().Err(err).Msg("failed encoding health")
					continue
				}
				a.client.Emit("car_healthy", encodedMsg)
			}
		}
	}
}

func (a *App) health() models.Health {
	iface := a.cfg.HealthCfg.Interface
	health := buildHealth(a.car.State(), a.server.Clients(), iface, time.Now())

	netDev, err := a.netStats()
	if err != nil {
		log.Warn().Err(err).Msg("network stats unavailable")
		return health
	}
	line, ok := netDev[iface]
	if !ok {
		log.Warn().Str("interface", iface).Msg("network interface not found")
		return health
	}
	applyNetDev(&health, line)
	return health
}

func buildHealth(state minicar.Snapshot, clients int, iface string, now time.Time) models.Health {
	return models.Health{
		Interface: iface,
		Clients:   clients,
		Light:     state.Light.String(),
		Speed:     state.Speed,
		Angle:     state.Angle,
		TimeStamp: now.Unix(),
	}
}

func applyNetDev(health *models.Health, line procfs.NetDevLine) {
	health.RxBytes = line.RxBytes
	health.TxBytes = line.TxBytes
	health.RxErrors = line.RxErrors
	health.TxErrors = line.TxErrors
}
