// Package configs loads and saves kahu's configuration.
//
// Configuration is a single TOML file, by default
// $XDG_CONFIG_HOME/kahu/config.toml, with these sections:
//
//   - account: the stable account ID, also used as the key-wrapping salt
//   - storage: object storage backend, endpoint, bucket and URL lifetime
//   - database: path of the sqlite record store
//   - cache: path of the local leveldb cache and the session tier size
//   - limits: daily quotas, file and share lifetimes, download caps
//
// Storage credentials are read from KAHU_STORAGE_ACCESS_KEY and
// KAHU_STORAGE_SECRET_KEY, which override anything in the file. Load never
// fails on a missing file; call Validate before using the result.
package configs
