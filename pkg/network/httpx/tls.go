package httpx

import "golang.org/x/crypto/acme/autocert"

// defaultCertCacheDir keeps obtained certificates across restarts
// when no cache directory is configured.
const defaultCertCacheDir = ".codesync/certs"

type TLS struct {
	CertManager *autocert.Manager
}

func NewTLSConfig(host string, cacheDir string) *TLS {
	if cacheDir == "" {
		cacheDir = defaultCertCacheDir
	}
	tls := TLS{
		CertManager: &autocert.Manager{
			Prompt: autocert.AcceptTOS,
			Cache:  autocert.DirCache(cacheDir),
		},
	}
	if host != "" {
		tls.CertManager.HostPolicy = autocert.HostWhitelist(host)
	}
	return &tls
}
