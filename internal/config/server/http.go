package server

type HTTPServerConfig struct {
	Address  string `mapstructure:"address"  yaml:"address"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
}
