package worker

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type appConfig struct {
	Watermill SubscriberConfig `yaml:"watermill"`
}

type rulesConfig struct {
	Rules []struct {
		Topic string `yaml:"topic"`
	} `yaml:"rules"`
}

// LoadSubscriberConfig reads the watermill block of a chathooks config file.
func LoadSubscriberConfig(path string) (SubscriberConfig, error) {
	var cfg appConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg.Watermill, err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg.Watermill, err
	}
	applySubscriberDefaults(&cfg.Watermill)
	return cfg.Watermill, nil
}

// LoadTopicsFromConfig collects the distinct topics the routing rules emit
// to, for workers that want to mirror the server's rule file.
func LoadTopicsFromConfig(path string) ([]string, error) {
	var cfg rulesConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	topics := make([]string, 0, len(cfg.Rules))
	seen := make(map[string]struct{}, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		topic := strings.TrimSpace(rule.Topic)
		if topic == "" {
			continue
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		topics = append(topics, topic)
	}
	return topics, nil
}

func applySubscriberDefaults(cfg *SubscriberConfig) {
	if cfg.Driver == "" && len(cfg.Drivers) == 0 {
		cfg.Driver = "gochannel"
	}
	if cfg.GoChannel.OutputChannelBuffer == 0 {
		cfg.GoChannel.OutputChannelBuffer = 64
	}
	if cfg.NATS.ClientIDSuffix == "" {
		cfg.NATS.ClientIDSuffix = "-worker"
	}
}
