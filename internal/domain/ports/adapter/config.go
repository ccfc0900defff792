package adapter

// CredentialProvider is read-only access to API keys and other secrets.
type CredentialProvider interface {
	Credential(name string) (string, error)
}
