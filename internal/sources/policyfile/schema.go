package policyfile

// File is the top-level structure of warden.yaml
type File struct {
	Services  []ServiceDecl   `yaml:"services"`
	Scheduled []ScheduledDecl `yaml:"scheduled"`
}

// ServiceDecl declares the policy of a message-triggered service
type ServiceDecl struct {
	Identity        string `yaml:"identity"`
	CD              int    `yaml:"cd,omitempty"`
	Limit           int    `yaml:"limit,omitempty"`
	EnableOnDefault *bool  `yaml:"enable_on_default,omitempty"` // nil = true
	Invisible       bool   `yaml:"invisible,omitempty"`
	Help            string `yaml:"help,omitempty"`
	CDPrompt        string `yaml:"cd_prompt,omitempty"`
	LimitPrompt     string `yaml:"limit_prompt,omitempty"`
}

// ScheduledDecl declares the policy of a timer-triggered service
type ScheduledDecl struct {
	Identity        string `yaml:"identity"`
	Interval        string `yaml:"interval"` // Go duration string, ex: "30m"
	EnableOnDefault *bool  `yaml:"enable_on_default,omitempty"` // nil = true
	Invisible       bool   `yaml:"invisible,omitempty"`
	Help            string `yaml:"help,omitempty"`
}
