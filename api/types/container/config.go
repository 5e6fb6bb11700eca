package container

// Config contains the configuration data about a container, as sent to
// "POST /containers/create". Only the fields needed to run lifecycle
// containers are modelled.
type Config struct {
	Hostname     string            `json:",omitempty"`
	User         string            `json:",omitempty"`
	Image        string
	Cmd          []string          `json:",omitempty"`
	Entrypoint   []string          `json:",omitempty"`
	Env          []string          `json:",omitempty"`
	WorkingDir   string            `json:",omitempty"`
	Labels       map[string]string `json:",omitempty"`
	AttachStdout bool              `json:",omitempty"`
	AttachStderr bool              `json:",omitempty"`
	HostConfig   *HostConfig       `json:",omitempty"`
}

// HostConfig the non-portable Config structure of a container.
type HostConfig struct {
	Binds       []string `json:",omitempty"`
	NetworkMode string   `json:",omitempty"`
	SecurityOpt []string `json:",omitempty"`
	AutoRemove  bool     `json:",omitempty"`
}

// CreateResponse ContainerCreateResponse
//
// OK response to ContainerCreate operation
type CreateResponse struct {
	// The ID of the created container
	ID string `json:"Id"`

	// Warnings encountered when creating the container
	Warnings []string `json:"Warnings"`
}
