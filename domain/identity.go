// Package domain contains core concepts of the live messaging system.
// No runtime, network, or storage logic should be added here.
package domain

// Identity is the opaque principal reference verified by the external
// identity service. Deployments use email addresses, but the core never
// inspects the value beyond equality and ordering.
type Identity string

func (i Identity) IsZero() bool { return i == "" }
