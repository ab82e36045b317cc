package reinforcement

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"gridmdp/grid_world"
)

// ConfigKind is the only kind FromYaml accepts.
const ConfigKind = "gridMDP"

// OuterConfig is the envelope of every config file: a kind and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// SolverConfig is the definition of a gridMDP. Keys are snake case because viper folds
// key case before the definition is re-marshalled.
type SolverConfig struct {
	Grid    GridConfig      `yaml:"grid"`
	Slip    grid_world.Slip `yaml:"slip"`
	Rewards RewardConfig    `yaml:"rewards"`
	// HyperParams is a key-val pair of param names and their value: gamma, theta.
	HyperParams []HyperParameter `yaml:"hyper_params"`
	// MaxIterations caps every solver loop; zero means the default.
	MaxIterations int `yaml:"max_iterations"`
	// Algorithm is one of policy, value, or compare and is used when no command says otherwise.
	Algorithm string `yaml:"algorithm"`
	// Deadline is a duration after which a run is cancelled, e.g. {duration: 30s}.
	Deadline map[string]string `yaml:"deadline"`
}

type GridConfig struct {
	Size      int   `yaml:"size"`
	Terminals []int `yaml:"terminals"`
}

type RewardConfig struct {
	Up    float64 `yaml:"up"`
	Down  float64 `yaml:"down"`
	Right float64 `yaml:"right"`
	Left  float64 `yaml:"left"`
}

func (rc RewardConfig) Rewards() grid_world.Rewards {
	var r grid_world.Rewards
	r[grid_world.Up] = rc.Up
	r[grid_world.Down] = rc.Down
	r[grid_world.Right] = rc.Right
	r[grid_world.Left] = rc.Left
	return r
}

type HyperParameter struct {
	Key string  `yaml:"key"`
	Val float64 `yaml:"val"`
}

// DefaultConfig is the classic 4x4 slip gridworld with the corners as terminals.
func DefaultConfig() *SolverConfig {
	return &SolverConfig{
		Grid: GridConfig{
			Size:      4,
			Terminals: []int{0, 15},
		},
		Slip: grid_world.Slip{Forward: 0.7, Stay: 0.1},
		Rewards: RewardConfig{
			Up:    -1,
			Down:  -1,
			Right: -1,
			Left:  -1,
		},
		HyperParams: []HyperParameter{
			{Key: "gamma", Val: DefaultGamma},
			{Key: "theta", Val: DefaultTheta},
		},
		MaxIterations: DefaultMaxIterations,
		Algorithm:     string(CompareAlgorithm),
	}
}

func (cfg *SolverConfig) GetHyperParamOrDefault(param string, defaultVal float64) float64 {
	for _, kvp := range cfg.HyperParams {
		if kvp.Key == param {
			return kvp.Val
		}
	}
	return defaultVal
}

// SetHyperParam overwrites param, or appends it.
func (cfg *SolverConfig) SetHyperParam(param string, val float64) {
	for i := range cfg.HyperParams {
		if cfg.HyperParams[i].Key == param {
			cfg.HyperParams[i].Val = val
			return
		}
	}
	cfg.HyperParams = append(cfg.HyperParams, HyperParameter{Key: param, Val: val})
}

// WithDeadline returns a context extended by the run deadline, if one is specified.
// Without one, the returned context is ctx itself with a cancel func.
func (cfg *SolverConfig) WithDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.Deadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("reinforcement: bad deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	innerCtx, cancel := context.WithCancel(ctx)
	return innerCtx, cancel, nil
}

// Problem builds and validates the solver input.
func (cfg *SolverConfig) Problem() (*Problem, error) {
	terminals := make([]grid_world.State, 0, len(cfg.Grid.Terminals))
	for _, t := range cfg.Grid.Terminals {
		terminals = append(terminals, grid_world.State(t))
	}
	grid, err := grid_world.NewGrid(cfg.Grid.Size, terminals...)
	if err != nil {
		return nil, err
	}

	p := NewProblem(grid, cfg.Slip, cfg.Rewards.Rewards())
	p.Gamma = cfg.GetHyperParamOrDefault("gamma", DefaultGamma)
	p.Theta = cfg.GetHyperParamOrDefault("theta", DefaultTheta)
	if cfg.MaxIterations != 0 {
		p.MaxIterations = cfg.MaxIterations
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// FromYaml loads a config file over DefaultConfig.
func FromYaml(path string) (*SolverConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}
	return fromViper(vp)
}

// FromReader is FromYaml for config that does not live in a file.
func FromReader(r io.Reader) (*SolverConfig, error) {
	vp := viper.New()
	vp.SetConfigType("yaml")
	if err := vp.ReadConfig(r); err != nil {
		return nil, err
	}
	return fromViper(vp)
}

func fromViper(vp *viper.Viper) (*SolverConfig, error) {
	outerConfig := &OuterConfig{}
	if err := vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != ConfigKind {
		return nil, fmt.Errorf("reinforcement: config kind %q, expected %q", outerConfig.Kind, ConfigKind)
	}

	spec, err := yaml.Marshal(outerConfig.Def)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err = yaml.Unmarshal(spec, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
