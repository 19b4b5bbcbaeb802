package auth

// User decides which objects a query may see
type User interface {
	IsAuthorizedForHost(name string) bool
}

// NoAuth is the user of queries without an AuthUser header; it sees everything
type NoAuth struct{}

func (NoAuth) IsAuthorizedForHost(string) bool { return true }

// Contact is a named user restricted to a set of hosts
type Contact struct {
	Name  string
	Hosts map[string]struct{}
}

// NewContact creates a contact allowed to see the given hosts
func NewContact(name string, hosts ...string) *Contact {
	c := &Contact{Name: name, Hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		c.Hosts[h] = struct{}{}
	}
	return c
}

func (c *Contact) IsAuthorizedForHost(name string) bool {
	_, ok := c.Hosts[name]
	return ok
}
