package service

import (
	"log"
	"time"

	"github.com/UnendingLoop/ImageDrop/internal/model"
	"github.com/wb-go/wbf/config"
)

const defaultResetDelay = 500 * time.Millisecond

// Settings holds read-only pipeline configuration shared by all runs.
type Settings struct {
	Endpoints  []model.Endpoint
	ResetDelay time.Duration
	Policy     model.ValidationPolicy
}

func SettingsFromConfig(cfg *config.Config) Settings {
	s := Settings{
		Endpoints:  model.ParseEndpoints(cfg.GetString("UPLOAD_SERVERS")),
		ResetDelay: defaultResetDelay,
		Policy:     model.DefaultPolicy(),
	}

	if raw := cfg.GetString("PROGRESS_RESET_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			log.Printf("Incorrect PROGRESS_RESET_DELAY %q, using default %v", raw, defaultResetDelay)
		} else {
			s.ResetDelay = d
		}
	}

	return s
}
