package types

// CommonConf contains behavior shared by both access modes.
type CommonConf struct {
	Timeout   int  `ini:"timeout"`   // per-request timeout in seconds
	TimeSleep int  `ini:"timeSleep"` // courtesy delay between pages in seconds
	Debug     bool `ini:"debug"`
}

// SearchConf contains search-flow specific configuration.
type SearchConf struct {
	EndCount   int    `ini:"end_count"`  // target number of results
	MaxPages   int    `ini:"max_pages"`  // hard page ceiling per run
	PageSize   int    `ini:"page_size"`  // records requested per API page
	Level      string `ini:"level"`      // output detail level: 1, 2, 3
	OutputName string `ini:"output_name"`
	Format     string `ini:"format"` // json, csv, txt

	// MaxConsecutiveFailures is the hard exit threshold for the unified
	// client. Without it a pool of permanently banned proxies could cycle
	// through mode switches forever.
	MaxConsecutiveFailures int `ini:"max_consecutive_failures"`
	MaxRetries             int `ini:"max_retries"` // backoff retries per page
}

// ProxyPoolConf contains the proxy pool scheduler configuration.
type ProxyPoolConf struct {
	Enabled                  bool   `ini:"enabled"`
	AllowDirect              bool   `ini:"allow_direct"`
	RefreshIntervalSeconds   int    `ini:"refresh_interval_seconds"`
	ValidationTimeoutSeconds int    `ini:"validation_timeout_seconds"`
	ValidationConcurrency    int    `ini:"validation_concurrency"`
	ValidationBatchSize      int    `ini:"validation_batch_size"`
	MaxFailuresBeforeRemoval int    `ini:"max_failures_before_removal"`
	PoolFile                 string `ini:"pool_file"`
}

// DetectConf holds the ban-detection constants. FOFA has changed these
// codes before (850100 appeared in 2025), so they are configuration, not
// protocol guarantees.
type DetectConf struct {
	BanCode       int    `ini:"ban_code"`       // generic IP ban
	CaptchaCode   int    `ini:"captcha_code"`   // captcha required
	CaptchaSubstr string `ini:"captcha_substr"` // web-mode marker
}

// LogConf contains logging specific configuration.
type LogConf struct {
	Level string `ini:"level"`
}

// Config is the unified configuration for the whole tool.
type Config struct {
	CommonConf    `ini:"common"`
	SearchConf    `ini:"search"`
	ProxyPoolConf `ini:"proxypool"`
	DetectConf    `ini:"detect"`
	LogConf       `ini:"log"`
}

// Default returns a Config with the defaults used when no ini file is
// present. The detection constants match the codes observed on the live
// service.
func Default() *Config {
	return &Config{
		CommonConf: CommonConf{
			Timeout:   180,
			TimeSleep: 3,
		},
		SearchConf: SearchConf{
			EndCount:               100,
			MaxPages:               10,
			PageSize:               20,
			Level:                  "1",
			OutputName:             "fofa_results",
			Format:                 "json",
			MaxConsecutiveFailures: 3,
			MaxRetries:             3,
		},
		ProxyPoolConf: ProxyPoolConf{
			Enabled:                  true,
			AllowDirect:              true,
			RefreshIntervalSeconds:   300,
			ValidationTimeoutSeconds: 5,
			ValidationConcurrency:    10,
			ValidationBatchSize:      20,
			MaxFailuresBeforeRemoval: 3,
			PoolFile:                 "proxies.txt",
		},
		DetectConf: DetectConf{
			BanCode:       -3000,
			CaptchaCode:   850100,
			CaptchaSubstr: "captcha",
		},
		LogConf: LogConf{
			Level: "info",
		},
	}
}
