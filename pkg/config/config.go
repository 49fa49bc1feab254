package config

import (
	goflag "flag"

	flag "github.com/spf13/pflag"
)

type Config struct {
	Coordinator Coordinator
	Version     string `fig:"version" default:"1"`
}

type Coordinator struct {
	Debug      bool
	Server     Server
	Monitoring Monitoring
	Origin     Origin
	Session    Session
	Storage    Storage
}

type Server struct {
	Address string `fig:"address" default:":8000"`
	Https   bool
	Tls     Tls
}

func (s Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}

type Tls struct {
	Address string `fig:"address" default:":443"`
	Domain  string
	// directory for certificates obtained via ACME
	CertCacheDir string `fig:"certCacheDir" default:".codesync/certs"`
	HttpsCert    string
	HttpsKey     string
}

type Monitoring struct {
	Port             int    `fig:"port" default:"6601"`
	URLPrefix        string `fig:"urlPrefix" default:"/coordinator"`
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (m Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

type Origin struct {
	ClientWs string
}

// Session holds the defaults of a freshly created room buffer.
type Session struct {
	Code     string `fig:"code" default:"// Start coding together!\n"`
	Language string `fig:"language" default:"javascript"`
	FileName string `fig:"fileName" default:"index.js"`
}

// Storage points to the optional room side-cache.
// An empty address disables persistence entirely.
type Storage struct {
	RedisAddress  string
	RedisPassword string
	RedisDB       int
}

func (s Storage) IsEnabled() bool { return s.RedisAddress != "" }

// allows custom config path
var configPath string

func NewConfig() Config {
	var conf Config
	if err := LoadConfig(&conf, configPath); err != nil {
		panic(err)
	}
	return conf
}

func (c *Config) ParseFlags() {
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.StringVarP(&c.Coordinator.Server.Address, "address", "a", c.Coordinator.Server.Address, "HTTP server address")
	flag.IntVar(&c.Coordinator.Monitoring.Port, "monitoring.port", c.Coordinator.Monitoring.Port, "Monitoring server port")
	flag.BoolVar(&c.Coordinator.Debug, "debug", c.Coordinator.Debug, "Enable debug logging")
	flag.StringVar(&c.Coordinator.Storage.RedisAddress, "redis", c.Coordinator.Storage.RedisAddress, "Redis address of the room side-cache")
	flag.StringVar(&configPath, "conf", configPath, "Set custom configuration file path")
	flag.Parse()
}
