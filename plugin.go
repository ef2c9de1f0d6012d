package ranger

import (
	"errors"
	"fmt"
)

// The error returned when a plugin is added without a name.
var ErrMissingName = errors.New("plugin missing name")

// Plugin extends the client with listeners and commands. Init is called once
// the rooms are connected.
type Plugin interface {
	Name() string
	Init(c *Client) error
}

// Plugins is a registry of available plugins.
type Plugins map[string]Plugin

// Add registers a plugin under its name.
func (p Plugins) Add(plugin Plugin) error {
	if plugin.Name() == "" {
		return ErrMissingName
	}
	p[plugin.Name()] = plugin
	return nil
}

// Load initializes the named plugins in order. Unknown names are logged and
// skipped.
func (p Plugins) Load(c *Client, names []string) error {
	for _, name := range names {
		plugin, ok := p[name]
		if !ok {
			logger.Warningf("Cannot find plugin '%s'", name)
			continue
		}
		if err := plugin.Init(c); err != nil {
			return fmt.Errorf("plugin %s: %w", name, err)
		}
		logger.Infof("Plugin loaded: %s", name)
	}
	return nil
}
