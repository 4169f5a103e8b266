// Package config loads and validates the graydeck daemon configuration.
//
// Values come from three layers, later ones winning:
//   - built-in defaults
//   - the YAML file (configs/config.yaml by default)
//   - GRAYDECK_* environment variables
//
// Secrets such as the MQTT password and the InfluxDB token are best set
// through the environment. The deck layout (buttons and pages) lives in a
// separate file, loaded by package layout; a relative deck.layout path is
// resolved against the directory of the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Deck.Model)
package config
