// Package config loads service configuration from the environment.
//
// An optional .env file is read first with godotenv; envconfig then fills the
// Config struct, applying defaults for anything unset. A missing inference
// credential is not a load error: the audit endpoint reports it per request.
package config
