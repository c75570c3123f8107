package config

import "time"

type Config struct {
	Device     Device     `yaml:"device"`
	Collect    Collect    `yaml:"collect"`
	Influx     Influx     `yaml:"influx"`
	Postgres   Postgres   `yaml:"postgres"`
	Prometheus Prometheus `yaml:"prometheus"`
}

func DefaultConfig() Config {
	return Config{
		Device:     DefaultDevice(),
		Collect:    DefaultCollect(),
		Postgres:   Postgres{Table: "modem_points"},
		Prometheus: Prometheus{MetricsPath: "/metrics"},
	}
}

func DefaultDevice() Device {
	return Device{
		Address:            "192.168.100.1",
		Username:           "admin",
		Password:           "motorola",
		Timeout:            30,
		InsecureSkipVerify: true,
	}
}

func DefaultCollect() Collect {
	return Collect{
		Interval: time.Minute,
	}
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig()

	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	if c.Postgres.Table == "" {
		c.Postgres.Table = "modem_points"
	}
	if c.Prometheus.MetricsPath == "" {
		c.Prometheus.MetricsPath = "/metrics"
	}

	return nil
}

type Device struct {
	Address            string  `yaml:"address"`
	Username           string  `yaml:"username"`
	Password           string  `yaml:"password"`
	Timeout            float64 `yaml:"timeout"`
	InsecureSkipVerify bool    `yaml:"insecure_skip_verify"`
}

func (d *Device) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*d = DefaultDevice()

	type plain Device
	if err := unmarshal((*plain)(d)); err != nil {
		return err
	}

	return nil
}

func (d Device) TimeoutDuration() time.Duration {
	return time.Duration(d.Timeout * float64(time.Second))
}

type Collect struct {
	Interval time.Duration `yaml:"interval"`
	Info     bool          `yaml:"info"`
	Logs     bool          `yaml:"logs"`
}

func (c *Collect) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultCollect()

	type plain Collect
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	return nil
}

type Influx struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

func (i Influx) Enabled() bool {
	return i.URL != ""
}

type Postgres struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

func (p Postgres) Enabled() bool {
	return p.DSN != ""
}

type Prometheus struct {
	Listen      string `yaml:"listen"`
	MetricsPath string `yaml:"metrics_path"`
}

func (p Prometheus) Enabled() bool {
	return p.Listen != ""
}
