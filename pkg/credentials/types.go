package credentials

// Credentials is the on-disk schema of credentials.toml.
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential holds the API key for a single provider, keyed by the
// provider name used in embedding.provider or vector_store.provider.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}
