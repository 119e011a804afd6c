package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const DefaultConfigPath = "configs/config.yaml"

// ErrMissingToken is returned when notification is enabled without a credential.
var ErrMissingToken = errors.New("notify token is not configured (set NOTIFY_TOKEN or notify.token)")

type Source struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Encoding string `yaml:"encoding"`
}

type Config struct {
	Scraper struct {
		Timeout   int    `yaml:"timeout"`
		Delay     int    `yaml:"delay"`
		UserAgent string `yaml:"userAgent"`
		Browser   struct {
			Enabled  bool `yaml:"enabled"`
			Headless bool `yaml:"headless"`
			Debug    bool `yaml:"debug"`
		} `yaml:"browser"`
	} `yaml:"scraper"`
	Markets       []Source `yaml:"markets"`
	CodeDirectory []Source `yaml:"codeDirectory"`
	Output        struct {
		Dir    string `yaml:"dir"`
		Prefix string `yaml:"prefix"`
		XLSX   bool   `yaml:"xlsx"`
	} `yaml:"output"`
	Notify struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
		Token   string `yaml:"token"`
	} `yaml:"notify"`
	Log struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns the built-in settings used when no config file exists.
func DefaultConfig() *Config {
	config := &Config{}
	config.Scraper.Timeout = 15
	config.Scraper.Delay = 500
	config.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	config.Scraper.Browser.Headless = true
	config.Markets = []Source{
		{Name: "KOSPI", URL: "https://finance.naver.com/sise/sise_upper.naver", Encoding: "euc-kr"},
		{Name: "KOSDAQ", URL: "https://finance.naver.com/sise/sise_upper.naver?sosok=1", Encoding: "euc-kr"},
	}
	config.CodeDirectory = []Source{
		{Name: "KOSPI", URL: "https://kind.krx.co.kr/corpgeneral/corpList.do?method=download&searchType=13&marketType=stockMkt", Encoding: "cp949"},
		{Name: "KOSDAQ", URL: "https://kind.krx.co.kr/corpgeneral/corpList.do?method=download&searchType=13&marketType=kosdaqMkt", Encoding: "cp949"},
	}
	config.Output.Dir = "sise_csv"
	config.Output.Prefix = "upper_limit_stocks"
	config.Notify.Enabled = true
	config.Notify.URL = "https://notify-api.line.me/api/notify"
	config.Log.Dir = "logs"
	config.Log.Level = "info"
	return config
}

// LoadConfig reads .env and the YAML file at path on top of DefaultConfig,
// then applies environment overrides. A missing YAML file is not an error.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	config := DefaultConfig()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if v := os.Getenv("NOTIFY_TOKEN"); v != "" {
		config.Notify.Token = v
	}
	if v := os.Getenv("NOTIFY_URL"); v != "" {
		config.Notify.URL = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}

	return config, nil
}

// Validate checks the settings a run cannot do without.
func (c *Config) Validate() error {
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("invalid timeout value")
	}
	if c.Scraper.Delay < 0 {
		return fmt.Errorf("invalid delay value")
	}
	if len(c.Markets) == 0 {
		return fmt.Errorf("no market sources configured")
	}
	if len(c.CodeDirectory) == 0 {
		return fmt.Errorf("no code directory sources configured")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output directory is empty")
	}
	if c.Notify.Enabled {
		if strings.TrimSpace(c.Notify.Token) == "" {
			return ErrMissingToken
		}
		if strings.TrimSpace(c.Notify.URL) == "" {
			return fmt.Errorf("notify url is empty")
		}
	}
	return nil
}
