// Package config provides centralized configuration management for the
// air quality dashboard service. It handles loading configuration from
// multiple sources, validation, and provides a type-safe API for
// accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern AQDASH_* for namespacing:
//
//	AQDASH_SERVER_PORT=8080
//	AQDASH_LOGGING_LEVEL=info
//	AQDASH_DATASETS_BASE_URL=https://data.example.gov/airquality
//	AQDASH_PATHS_DATASETS_DIR=data/datasets
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	csvPath := paths.GetDatasetPath("EPAbudget.csv")
//	exportPath := paths.GetExportPath("awards.xlsx")
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
