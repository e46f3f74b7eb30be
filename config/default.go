package config

import (
	"bytes"
	"io"
	"os"
	"path"
	"text/template"

	"graphwire/log"

	"github.com/pkg/errors"
)

const ConfigFilename = "config.toml"

var DefaultConfig = Config{
	LogLevel: log.LevelInfo.String(),
	Engine: EngineConfig{
		PreserveObjectReferences: true,
		VersionTolerance:         true,
		MaxLength:                16 * 1024 * 1024,
	},
	Store: StoreConfig{
		Compression:   "lz4",
		CacheExpiryMS: 30000,
	},
	RPC: RPCConfig{
		Host:                  "127.0.0.1",
		Port:                  9199,
		MaxConcurrentRequests: 64,
		MaxWritesPerSecond:    500,
		WriteBurst:            50,
	},
}

const defaultConfigTemplateText = `# gwired Config File

# Sets the log level. Can be one of the following values:
# - error
# - warn
# - info
# - debug
# - trace
log_level = "{{.LogLevel}}"

# Configures how values are encoded before they are stored or
# sent over RPC.
[engine]
  # Sets the largest element count or byte length accepted while
  # decoding. Set to 0 to accept anything that fits in an int32.
  max_length = {{.Engine.MaxLength}}
  # Writes shared instances once and refers back to them afterwards.
  # Required for cyclic object graphs.
  preserve_object_references = {{.Engine.PreserveObjectReferences}}
  # Writes field lists with each type so that readers whose types
  # gained or lost fields can still decode.
  version_tolerance = {{.Engine.VersionTolerance}}

# Configures the object store.
[store]
  # Sets how long encoded payloads stay in the in-memory cache.
  cache_expiry_ms = {{.Store.CacheExpiryMS}}
  # Sets how payloads are compressed on disk. Can be one of none,
  # lz4 or zstd. Records written with other settings stay readable.
  compression = "{{.Store.Compression}}"

# Configures the behavior of this node's RPC server.
[rpc]
  # Sets the IP this node should listen for RPC requests on.
  # For the most part, this should be set to 127.0.0.1. Exposing
  # gwired's RPC port to the public internet is not safe.
  host = "{{.RPC.Host}}"
  # Sets how many requests are handled at the same time. Requests
  # beyond this wait for a free slot.
  max_concurrent_requests = {{.RPC.MaxConcurrentRequests}}
  # Sets the sustained rate of Put and Delete requests.
  max_writes_per_second = {{printf "%.1f" .RPC.MaxWritesPerSecond}}
  # Sets the port this node should listen for RPC requests on.
  port = {{.RPC.Port}}
  # Sets how many writes can burst above the sustained rate.
  write_burst = {{.RPC.WriteBurst}}
`

var defaultConfigTemplate *template.Template

func GenerateDefaultConfigFile() []byte {
	buf := new(bytes.Buffer)
	if err := defaultConfigTemplate.Execute(buf, DefaultConfig); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func ReadConfigFile(homeDir string) (*Config, error) {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDONLY, 0755)
	if err != nil {
		return nil, errors.Wrap(err, "error opening config file for reading")
	}
	defer f.Close()
	cfg, err := ReadConfig(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	return cfg, nil
}

func WriteDefaultConfigFile(homeDir string) error {
	f, err := os.OpenFile(path.Join(homeDir, ConfigFilename), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0755)
	if err != nil {
		return errors.Wrap(err, "error opening config file for writing")
	}
	defer f.Close()
	rd := bytes.NewReader(GenerateDefaultConfigFile())
	if _, err := io.Copy(f, rd); err != nil {
		return errors.Wrap(err, "error writing config file")
	}
	return nil
}

func init() {
	tmpl := template.New("defaultConfig")
	t, err := tmpl.Parse(defaultConfigTemplateText)
	if err != nil {
		panic(err)
	}
	defaultConfigTemplate = t
}
