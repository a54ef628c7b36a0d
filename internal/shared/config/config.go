package config

import (
	"os"

	"gopkg.in/ini.v1"

	"fofahack/internal/shared/types"
)

// LoadIni loads the behavior configuration file on top of the built-in
// defaults. A missing file is not an error; the defaults stand.
func LoadIni(cfg *types.Config, fileName string) error {
	defer func() {
		overrideFromEnv(&cfg.ProxyPoolConf.PoolFile, "FOFAHACK_POOL_FILE")
		overrideFromEnv(&cfg.LogConf.Level, "FOFAHACK_LOG_LEVEL")
	}()

	iniFile, err := ini.Load(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return iniFile.MapTo(cfg)
}

func overrideFromEnv(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
