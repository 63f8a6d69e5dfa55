package config

import (
	"reflect"
	"strings"
)

// ConfigManager handles merging CLI flags into the Config struct.
// Priority: CLI flags > Config file > Default values.
type ConfigManager struct {
	Config *Config
	Flags  map[string]interface{}
}

func NewConfigManager(cfg *Config) *ConfigManager {
	return &ConfigManager{
		Config: cfg,
		Flags:  make(map[string]interface{}),
	}
}

// RegisterFlag records a flag value under the YAML key of the Config field
// it overrides.
func (cm *ConfigManager) RegisterFlag(key string, value interface{}) {
	cm.Flags[key] = value
}

// MergeConfiguration copies every registered non-zero flag value onto the
// matching Config field. Values that cannot be converted are ignored.
func (cm *ConfigManager) MergeConfiguration() *Config {
	configValue := reflect.ValueOf(cm.Config).Elem()
	configType := configValue.Type()

	for i := 0; i < configType.NumField(); i++ {
		field := configType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" {
			continue
		}
		key, _, _ := strings.Cut(yamlTag, ",")
		flagValue, exists := cm.Flags[key]
		if !exists || flagValue == nil || isZeroValue(reflect.ValueOf(flagValue)) {
			continue
		}
		fieldValue := configValue.Field(i)
		if !fieldValue.CanSet() {
			continue
		}
		flagVal := reflect.ValueOf(flagValue)
		if flagVal.Type().ConvertibleTo(fieldValue.Type()) {
			fieldValue.Set(flagVal.Convert(fieldValue.Type()))
		}
	}
	return cm.Config
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	default:
		return v.IsZero()
	}
}
