package matchmaker

import (
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"github.com/IdanG7/matchmaker-platform/internal/matchmaking"
	"github.com/IdanG7/matchmaker-platform/internal/transport"
)

const configFile = "./configs/matchmaker/app.env"

type Config struct {
	NatsURL           string
	QueueSubject      string
	MatchFoundSubject string
	StatsInterval     time.Duration

	Engine matchmaking.Config
}

// LoadConfig reads the env config file, with OS environment variables taking
// precedence. Every knob has a default, so a missing file is fine.
func LoadConfig() (Config, error) {
	var cfg Config

	viper.SetConfigFile(configFile)
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, eris.Wrap(err, "failed to read config file")
		}
	}

	cfg.NatsURL = viper.GetString("NATS_URL")
	cfg.QueueSubject = viper.GetString("MM_QUEUE_SUBJECT")
	cfg.MatchFoundSubject = viper.GetString("MM_MATCH_FOUND_SUBJECT")
	cfg.StatsInterval = viper.GetDuration("MM_STATS_INTERVAL")

	cfg.Engine = matchmaking.Config{
		BandInitial:      viper.GetInt("MM_BAND_INITIAL"),
		BandMax:          viper.GetInt("MM_BAND_MAX"),
		BandGrowthPerSec: viper.GetInt("MM_BAND_GROWTH_PER_SEC"),
		MaxWaitTime:      viper.GetDuration("MM_MAX_WAIT_TIME"),
		MinMatchQuality:  viper.GetFloat64("MM_MIN_MATCH_QUALITY"),
		TickInterval:     viper.GetDuration("MM_TICK_INTERVAL"),
		NumTeams:         viper.GetInt("MM_NUM_TEAMS"),
	}

	return cfg, nil
}

func setDefaults() {
	defaults := matchmaking.DefaultConfig()

	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("MM_QUEUE_SUBJECT", transport.DefaultQueueSubject)
	viper.SetDefault("MM_MATCH_FOUND_SUBJECT", transport.DefaultMatchFoundSubject)
	viper.SetDefault("MM_STATS_INTERVAL", 10*time.Second)

	viper.SetDefault("MM_BAND_INITIAL", defaults.BandInitial)
	viper.SetDefault("MM_BAND_MAX", defaults.BandMax)
	viper.SetDefault("MM_BAND_GROWTH_PER_SEC", defaults.BandGrowthPerSec)
	viper.SetDefault("MM_MAX_WAIT_TIME", defaults.MaxWaitTime)
	viper.SetDefault("MM_MIN_MATCH_QUALITY", defaults.MinMatchQuality)
	viper.SetDefault("MM_TICK_INTERVAL", defaults.TickInterval)
	viper.SetDefault("MM_NUM_TEAMS", defaults.NumTeams)
}
