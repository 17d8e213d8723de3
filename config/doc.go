// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment, using Viper for merging and
// godotenv for .env files.
//
// Environment variables win over file values. A variable such as
// FILES_SAVE_FILE_MODE is bound to every nesting the key could have
// (files.save_file_mode, files.save.file.mode, ...), so embedded structs
// pick it up without explicit bindings.
//
//	var cfg attachd.Config
//	if err := config.LoadConfig("attachd", &cfg); err != nil { ... }
package config
