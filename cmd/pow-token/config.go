package main

import (
	"fmt"
	"log"

	envstruct "code.cloudfoundry.org/go-envstruct"
	flags "github.com/jessevdk/go-flags"
	uuid "github.com/nu7hatch/gouuid"
)

// Config is the process configuration. The POW service settings themselves
// are read on every request by the config package.
type Config struct {
	SourceID      string `env:"SOURCE_ID, report"`
	InstanceIndex string `env:"INSTANCE_INDEX, report"`

	LoggregatorAddr     string `env:"LOGGREGATOR_ADDR, report"`
	LoggregatorCAPath   string `env:"LOGGREGATOR_CA_PATH, report"`
	LoggregatorCertPath string `env:"LOGGREGATOR_CERT_PATH, report"`
	LoggregatorKeyPath  string `env:"LOGGREGATOR_KEY_PATH, report"`
}

func LoadConfig() Config {
	defaultSourceID, err := uuid.NewV4()
	if err != nil {
		log.Fatalf("unable to generate uuid: %s", err)
	}

	cfg := Config{
		SourceID:      defaultSourceID.String(),
		InstanceIndex: "0",
	}
	if err := envstruct.Load(&cfg); err != nil {
		log.Fatalf("failed to load config from environment: %s", err)
	}

	return cfg
}

type options struct {
	ConfigPath string `long:"config" description:"YAML file with the POW service settings. Environment variables take precedence."`
	JSON       bool   `long:"json" description:"Print the token, device id and user agent as a JSON object"`
	LogLevel   string `long:"log-level" default:"info" description:"Diagnostic log level (debug, info, warn, error)"`
}

func parseOptions(args []string) (options, error) {
	var opts options

	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	rest, err := parser.ParseArgs(args)
	if err != nil {
		return opts, err
	}

	if len(rest) != 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", rest)
	}

	return opts, nil
}

func isHelp(err error) bool {
	fe, ok := err.(*flags.Error)
	return ok && fe.Type == flags.ErrHelp
}
