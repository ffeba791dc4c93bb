package config

// Envfile represents the structure of the rattle.yaml environment file.
type Envfile struct {
	Version  string    `yaml:"version"`
	Repodata []string  `yaml:"repodata"`
	Specs    []string  `yaml:"specs"`
	Locked   []string  `yaml:"locked"`
	Pinned   []string  `yaml:"pinned"`
	Virtual  []string  `yaml:"virtual"`
	Budget   BudgetDTO `yaml:"budget"`
}

// BudgetDTO represents the solver budget of an environment file.
type BudgetDTO struct {
	MaxConflicts int `yaml:"maxConflicts"`
	MaxDecisions int `yaml:"maxDecisions"`
}
