package utils

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"syscall"
)

var LibexecDir = "."
var EtcDir = "."
var DataDir = "."

// string used to format Go ISO times
const ISOFormat = "2006-01-02T15:04:05.000Z"

type ServiceConfig struct {
	SISHostname string `json:"sis_hostname"`
	MetaAddress string `json:"meta_address"`
	TempDir     string `json:"temp_dir"`
}

// DataSource locates the raster payload of a dataset on one of the
// file system backends.
type DataSource struct {
	FileSystem string `json:"file_system"`
	Address    string `json:"address"`
	User       string `json:"user"`
	Password   string `json:"password"`
	Path       string `json:"path"`
}

// Dataset contains all the details a dataset needs to be published
// and rendered.
type Dataset struct {
	Name        string     `json:"name"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract"`
	Source      DataSource `json:"source"`
	OffsetValue float64    `json:"offset_value"`
	ScaleValue  float64    `json:"scale_value"`
	ClipValue   float64    `json:"clip_value"`
	Palette     string     `json:"palette"`
}

// CustomBand binds one expression variable to a source band through
// the same three tiers the built in formulas use.
type CustomBand struct {
	Variable   string `json:"variable"`
	Domain     string `json:"domain"`
	Wavelength int    `json:"wavelength"`
	Default    *int   `json:"default"`
}

// CustomIndex declares a user defined index formula as a set of
// band expressions plus the band bindings for their variables.
type CustomIndex struct {
	Identifier  string       `json:"identifier"`
	Name        string       `json:"name"`
	Expressions []string     `json:"expressions"`
	Bands       []CustomBand `json:"bands"`
	Palette     string       `json:"palette"`
}

// Config is the struct representing the configuration of a SIS
// server: the datasets it publishes and the custom indices layered
// over the built in catalog.
type Config struct {
	ServiceConfig ServiceConfig       `json:"service_config"`
	Datasets      []Dataset           `json:"datasets"`
	CustomIndices []CustomIndex       `json:"custom_indices"`
	Palettes      map[string]*Palette `json:"palettes"`
}

// LoadConfigFile marshalls the config.json document returning an
// instance of a Config variable containing all the values
func (config *Config) LoadConfigFile(configFile string) error {
	*config = Config{}
	cfg, err := ioutil.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("Error while reading config file: %s. Error: %v", configFile, err)
	}

	err = json.Unmarshal(cfg, config)
	if err != nil {
		return fmt.Errorf("Error at JSON parsing config document: %s. Error: %v", configFile, err)
	}

	for _, ds := range config.Datasets {
		if len(ds.Name) == 0 {
			return fmt.Errorf("dataset without a name in %s", configFile)
		}
		switch ds.Source.FileSystem {
		case "", "local", "ftp", "memory":
		default:
			return fmt.Errorf("dataset %s: unknown file system %q", ds.Name, ds.Source.FileSystem)
		}
	}

	for _, ci := range config.CustomIndices {
		if _, err := ParseBandExpressions(ci.Expressions); err != nil {
			return fmt.Errorf("custom index %s: %v", ci.Identifier, err)
		}
	}

	for name, palette := range config.Palettes {
		if palette != nil && len(palette.Colours) < 2 {
			return fmt.Errorf("The colour palette %s must contain at least 2 colours.", name)
		}
	}
	return nil
}

// GetDataset returns the published dataset with the given name, or
// nil.
func (config *Config) GetDataset(name string) *Dataset {
	for i := range config.Datasets {
		if config.Datasets[i].Name == name {
			return &config.Datasets[i]
		}
	}
	return nil
}

// GetPalette resolves a palette name against the config palettes
// first, then the built in ones.
func (config *Config) GetPalette(name string) (*Palette, error) {
	if p, ok := config.Palettes[name]; ok {
		return p, nil
	}
	return NamedPalette(name)
}

// WatchConfig reloads the server config on SIGHUP.
func WatchConfig(infoLog, errLog *log.Logger, configFile string, config *Config) {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	go func() {
		for range sighup {
			infoLog.Println("Caught SIGHUP, reloading config...")
			newConfig := &Config{}
			if err := newConfig.LoadConfigFile(configFile); err != nil {
				errLog.Printf("Error in loading config file: %v\n", err)
				continue
			}
			*config = *newConfig
		}
	}()
}
