package config

// SenderConfig describes the collector endpoint events are shipped to.
// An empty host or a zero port selects the transport defaults.
// Example YAML:
// sender:
//   kind: tcp
//   host: "10.0.0.2"
//   port: 24224
type SenderConfig struct {
	Kind string `mapstructure:"kind"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// RetryConfig controls the backoff applied above the sender. The sender
// itself never retries.
type RetryConfig struct {
	Attempts  int `mapstructure:"attempts"`
	InitialMS int `mapstructure:"initial_ms"`
	MaxMS     int `mapstructure:"max_ms"`
	JitterMS  int `mapstructure:"jitter_ms"`
}

// SinkConfig configures the recording endpoint (logship-sink).
type SinkConfig struct {
	Listen string `mapstructure:"listen"`
}
