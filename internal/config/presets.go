package config

var Presets = map[string]*Config{
	"solar": {
		Policy: PolicySolar, Timestep: 3600, FPS: 60,
	},
	"solar-fast": {
		Policy: PolicySolar, Timestep: 6 * 3600, FPS: 0,
	},
	"cluster": {
		Policy: PolicyRandom, Timestep: 1000, FPS: 60,
		Random: RandomConfig{Bodies: 100},
	},
	"dense": {
		Policy: PolicyRandom, Timestep: 500, FPS: 60,
		Random: RandomConfig{Bodies: 500, MinDistance: 5e9, MaxDistance: 3e11},
	},
	"disk": {
		Policy: PolicyRandom, Timestep: 1000, FPS: 30,
		Random: RandomConfig{Bodies: 200, MaxZ: 1e8},
	},
}

// GetPreset returns the named preset merged over the defaults, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.Policy = p.Policy
	cfg.Timestep = p.Timestep
	cfg.FPS = p.FPS
	mergeRandom(&cfg.Random, p.Random)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

func mergeRandom(dst *RandomConfig, src RandomConfig) {
	if src.Bodies != 0 {
		dst.Bodies = src.Bodies
	}
	if src.MinDistance != 0 {
		dst.MinDistance = src.MinDistance
	}
	if src.MaxDistance != 0 {
		dst.MaxDistance = src.MaxDistance
	}
	if src.MaxZ != 0 {
		dst.MaxZ = src.MaxZ
	}
}
