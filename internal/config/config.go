package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

// Config is filled from command line flags, falling back to environment
// variables and then to the defaults below.
type Config struct {
	ListenAddr      string        `long:"listen-addr"      env:"LISTEN_ADDR"      default:":8080"                                             description:"Address to listen on"`
	BackendURL      string        `long:"backend-url"      env:"BACKEND_URL"      default:"http://localhost:3333"                             description:"Base URL of the collection points API"`
	GeographyURL    string        `long:"geography-url"    env:"GEOGRAPHY_URL"    default:"https://servicodados.ibge.gov.br/api/v1/localidades" description:"Base URL of the IBGE localities API"`
	LogLevel        string        `long:"log-level"        env:"LOG_LEVEL"        default:"info"                                              description:"Log level (debug, info, warn, error)"`
	LogFile         string        `long:"log-file"         env:"LOG_FILE"                                                                     description:"Also write logs to this file"`
	SessionTTL      time.Duration `long:"session-ttl"      env:"SESSION_TTL"      default:"30m"                                               description:"Idle time before a form session is discarded"`
	SessionCapacity int           `long:"session-capacity" env:"SESSION_CAPACITY" default:"10000"                                             description:"Maximum number of live form sessions"`
	MapConfig       string        `long:"map-config"       env:"MAP_CONFIG"                                                                   description:"Path to YAML file with map settings"`

	Map MapSettings `no-flag:"true"`
}

// MapSettings configures the Leaflet map on the form page.
type MapSettings struct {
	TileURL     string `yaml:"tile_url"`
	Attribution string `yaml:"attribution"`
	Zoom        int    `yaml:"zoom"`
}

func DefaultMapSettings() MapSettings {
	return MapSettings{
		TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors`,
		Zoom:        15,
	}
}

// Load parses args (without the program name). A --help request is returned
// as a *flags.Error with Type flags.ErrHelp.
func Load(args []string) (*Config, error) {
	cfg := &Config{Map: DefaultMapSettings()}

	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if cfg.MapConfig != "" {
		if err := loadMapSettings(cfg.MapConfig, &cfg.Map); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadMapSettings overlays the non-empty values found in the YAML file at
// path onto m.
func loadMapSettings(path string, m *MapSettings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read map config: %w", err)
	}

	var file MapSettings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse map config %s: %w", path, err)
	}

	if file.TileURL != "" {
		m.TileURL = file.TileURL
	}
	if file.Attribution != "" {
		m.Attribution = file.Attribution
	}
	if file.Zoom > 0 {
		m.Zoom = file.Zoom
	}
	return nil
}
