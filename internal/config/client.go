package config

// ClientConfig is read by the showctl command.  Flags override it.
type ClientConfig struct {
	APIURL  string
	Token   string
	BandID  uint64
	Timeout int // seconds
}

func LoadClientConfig() ClientConfig {
	LoadDotEnv()
	return ClientConfig{
		APIURL:  envStr("BANDCTL_API_URL", "http://localhost:8080/api/v1"),
		Token:   envStr("BANDCTL_TOKEN", ""),
		BandID:  uint64(envInt64("BANDCTL_BAND_ID", 0)),
		Timeout: envInt("BANDCTL_TIMEOUT_SEC", 15),
	}
}
