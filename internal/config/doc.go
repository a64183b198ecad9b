// Package config loads the agent configuration file (config.yaml).
//
// Top-level types:
//   - Config{API, Fetch, Metrics} — full config tree parsed from YAML
//   - APIConfig — base_url, auth, timeout, tls
//   - AuthConfig — mode (apikey|bearer|none), header, key_env, token_env;
//     Key() and Token() resolve secret values from environment variables so
//     credentials never live in the file itself
//   - FetchConfig — page_size, page_pause, backoff_step, max_attempts,
//     on_exhausted (fail|continue)
//   - MetricsConfig — optional textfile path for run metrics
//
// Load(path) reads the YAML file, applies defaults (page size 5, 3s pause,
// 3s backoff step, 10 attempts, 30s HTTP timeout, x-api-key header), then
// validates required fields and enums.
package config
