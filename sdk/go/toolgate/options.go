package toolgate

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath string
	agentID    string
}

// WithPolicy sets the path to a policy YAML file.
func WithPolicy(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithAgentID sets the agent identity attached to every intent.
func WithAgentID(id string) Option {
	return func(c *clientConfig) { c.agentID = id }
}
