package wafadmin;

import (
   "encoding/json"
   "os"
   "path/filepath"
   "time"

   "github.com/pkg/errors"
)

const (
   DEFAULT_API_BASE = "https://localhost"
   DEFAULT_PAGE_SIZE = 100
   DEFAULT_TIMEOUT = 30 * time.Second
   CONFIG_FILE_MODE = 0600
)

// The file keys match what the admin portal keeps, so one config serves both.
type Config struct {
   ApiBase string `json:"apiBase"`
   Token string `json:"token"`
   PageSize int `json:"pageSize"`

   Timeout time.Duration `json:"-"`
   Insecure bool `json:"-"`
}

func DefaultConfig() Config {
   return Config{
      ApiBase: DEFAULT_API_BASE,
      Token: "",
      PageSize: DEFAULT_PAGE_SIZE,
      Timeout: DEFAULT_TIMEOUT,
   };
}

// Load the config file on top of the defaults.
// A missing file is not an error, it just means defaults.
func LoadConfig(path string) (Config, error) {
   var config Config = DefaultConfig();
   if (path == "") {
      return config, nil;
   }

   data, err := os.ReadFile(path);
   if (err != nil) {
      if (os.IsNotExist(err)) {
         return config, nil;
      }

      return config, errors.Wrapf(err, "Failed to read config file: %s", path);
   }

   var fileConfig Config;
   err = json.Unmarshal(data, &fileConfig);
   if (err != nil) {
      return config, errors.Wrapf(err, "Failed to parse config file: %s", path);
   }

   config.Merge(fileConfig);
   return config, nil;
}

func SaveConfig(path string, config Config) error {
   if (path == "") {
      return errors.New("No config path.");
   }

   data, err := json.MarshalIndent(config, "", "   ");
   if (err != nil) {
      return errors.WithStack(err);
   }

   err = os.MkdirAll(filepath.Dir(path), 0700);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to create config dir for: %s", path);
   }

   err = os.WriteFile(path, append(data, '\n'), CONFIG_FILE_MODE);
   if (err != nil) {
      return errors.Wrapf(err, "Failed to write config file: %s", path);
   }

   return nil;
}

// Overwrite with any non-zero field from |other|.
func (this *Config) Merge(other Config) {
   if (other.ApiBase != "") {
      this.ApiBase = other.ApiBase;
   }

   if (other.Token != "") {
      this.Token = other.Token;
   }

   if (other.PageSize > 0) {
      this.PageSize = other.PageSize;
   }

   if (other.Timeout > 0) {
      this.Timeout = other.Timeout;
   }

   if (other.Insecure) {
      this.Insecure = true;
   }
}

// Where the config lives when no path is given.
func DefaultConfigPath() string {
   dir, err := os.UserConfigDir();
   if (err != nil) {
      return "";
   }

   return filepath.Join(dir, "wafcanary", "admin.json");
}
